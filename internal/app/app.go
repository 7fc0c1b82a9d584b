// Package app runs the long-lived REST service.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/notealign/internal/align"
	"github.com/chrissnell/notealign/internal/controllers/restserver"
	"github.com/chrissnell/notealign/internal/storage"
	"github.com/chrissnell/notealign/internal/storage/sqlite"
	"github.com/chrissnell/notealign/internal/storage/timescaledb"
	"github.com/chrissnell/notealign/pkg/config"
)

const healthInterval = 30 * time.Second

// App represents the main application
type App struct {
	cfg    *config.ConfigData
	params align.Params
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, params align.Params, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		params: params,
		logger: logger,
	}
}

// OpenStore opens the configured run store and returns it with its backend
// name. TimescaleDB wins when both backends are configured.
func OpenStore(ctx context.Context, storageCfg config.StorageData, logger *zap.SugaredLogger) (storage.RunStore, string, error) {
	if ts := storageCfg.TimescaleDB; ts != nil && ts.ConnectionString != "" {
		s, err := timescaledb.New(ctx, ts.ConnectionString, logger)
		if err != nil {
			return nil, "", fmt.Errorf("opening TimescaleDB run store: %w", err)
		}
		return s, "timescaledb", nil
	}
	if sl := storageCfg.SQLite; sl != nil && sl.Path != "" {
		s, err := sqlite.New(sl.Path, logger)
		if err != nil {
			return nil, "", fmt.Errorf("opening SQLite run store: %w", err)
		}
		return s, "sqlite", nil
	}
	return nil, "", fmt.Errorf("no run store configured (set storage.sqlite.path or storage.timescaledb.connection_string)")
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, backend, err := OpenStore(ctx, a.cfg.Storage, a.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	hm := storage.NewHealthManager()
	if hc, ok := store.(storage.HealthChecker); ok {
		hm.Monitor(ctx, &wg, backend, hc, healthInterval, a.logger)
	}

	ctrl, err := restserver.NewController(ctx, &wg, a.cfg.Server, a.params, store, hm, a.logger)
	if err != nil {
		return err
	}
	if err := ctrl.StartController(); err != nil {
		return err
	}

	a.logger.Infow("application started", "store", backend, "addr", ctrl.Server.Addr)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	cancel()

	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
