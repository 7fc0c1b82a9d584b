// Package restserver serves stored alignment runs and accepts alignment
// submissions over HTTP.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chrissnell/notealign/internal/align"
	"github.com/chrissnell/notealign/internal/log"
	"github.com/chrissnell/notealign/internal/storage"
	"github.com/chrissnell/notealign/pkg/config"
)

// healthMaxAge is how stale a store health check may be before /healthz
// reports it unhealthy.
const healthMaxAge = 2 * time.Minute

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.ServerData
	params     align.Params
	store      storage.RunStore
	health     *storage.HealthManager
	Server     http.Server
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller. params are the
// defaults for POST /api/align; requests may override individual fields.
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.ServerData, params align.Params, store storage.RunStore, health *storage.HealthManager, logger *zap.SugaredLogger) (*Controller, error) {
	if store == nil {
		return nil, fmt.Errorf("REST server requires a run store")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if health == nil {
		health = storage.NewHealthManager()
	}

	if rc.ListenAddr == "" {
		logger.Info("server.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}
	if rc.Port == 0 {
		logger.Info("server.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		params:     params,
		store:      store,
		health:     health,
		logger:     logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infow("starting REST server", "addr", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		var err error
		if c.restConfig.TLSCertPath != "" && c.restConfig.TLSKeyPath != "" {
			err = c.Server.ListenAndServeTLS(c.restConfig.TLSCertPath, c.restConfig.TLSKeyPath)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("shutting down the REST server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware(c.logger))

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/runs", c.handlers.ListRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", c.handlers.GetRun).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/anchors", c.handlers.GetRunAnchors).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/segments", c.handlers.GetRunSegments).Methods(http.MethodGet)
	api.HandleFunc("/align", c.handlers.Align).Methods(http.MethodPost)

	router.HandleFunc("/healthz", c.handlers.Healthz).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(c.handlers.NotFound)
	return router
}
