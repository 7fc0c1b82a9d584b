package storage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Health is the result of one store health check.
type Health struct {
	LastCheck time.Time `json:"last_check"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Error     string    `json:"error,omitempty"`
}

// HealthChecker is implemented by stores that can probe their backend.
type HealthChecker interface {
	CheckHealth(ctx context.Context) *Health
}

// HealthManager keeps the latest health of each named store in memory.
type HealthManager struct {
	mu     sync.RWMutex
	health map[string]Health
}

func NewHealthManager() *HealthManager {
	return &HealthManager{health: make(map[string]Health)}
}

// Update records h for name.
func (hm *HealthManager) Update(name string, h *Health) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.health[name] = *h
}

// Get returns the last recorded health for name.
func (hm *HealthManager) Get(name string) (Health, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	h, ok := hm.health[name]
	return h, ok
}

// All returns a snapshot of every recorded health.
func (hm *HealthManager) All() map[string]Health {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	out := make(map[string]Health, len(hm.health))
	for k, v := range hm.health {
		out[k] = v
	}
	return out
}

// IsHealthy reports whether name was healthy at a check no older than maxAge.
func (hm *HealthManager) IsHealthy(name string, maxAge time.Duration) bool {
	h, ok := hm.Get(name)
	if !ok || time.Since(h.LastCheck) > maxAge {
		return false
	}
	return h.Status == StatusHealthy
}

// Monitor checks c immediately and then every interval until ctx is done.
func (hm *HealthManager) Monitor(ctx context.Context, wg *sync.WaitGroup, name string, c HealthChecker, interval time.Duration, logger *zap.SugaredLogger) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		check := func() {
			h := c.CheckHealth(ctx)
			hm.Update(name, h)
			if h.Status != StatusHealthy {
				logger.Warnw("store unhealthy", "store", name, "message", h.Message, "error", h.Error)
			}
		}
		check()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				check()
			case <-ctx.Done():
				logger.Infow("stopping health monitor", "store", name)
				return
			}
		}
	}()
}
