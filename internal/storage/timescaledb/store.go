// Package timescaledb stores alignment runs in PostgreSQL/TimescaleDB via gorm.
package timescaledb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chrissnell/notealign/internal/database"
	"github.com/chrissnell/notealign/internal/storage"
	"github.com/chrissnell/notealign/internal/types"
)

// Store is a storage.RunStore backed by gorm.
type Store struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

var _ storage.RunStore = (*Store)(nil)

// New connects to connectionString and migrates the run tables.
func New(ctx context.Context, connectionString string, logger *zap.SugaredLogger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	db, err := database.CreateConnection(connectionString, logger.Desugar())
	if err != nil {
		return nil, err
	}
	return NewWithDB(ctx, db, logger)
}

// NewWithDB wraps an existing gorm handle.
func NewWithDB(ctx context.Context, db *gorm.DB, logger *zap.SugaredLogger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	logger.Info("creating run tables...")
	if err := database.AutoMigrate(db.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("could not create run tables: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// SaveRun upserts the run and replaces its anchors and segments.
func (s *Store) SaveRun(ctx context.Context, run *types.Run) error {
	row, anchors, segs, err := database.RowsFromRun(run)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
		if err := tx.Where("run_id = ?", row.ID).Delete(&database.AnchorRow{}).Error; err != nil {
			return fmt.Errorf("clearing anchors: %w", err)
		}
		if err := tx.Where("run_id = ?", row.ID).Delete(&database.SegmentRow{}).Error; err != nil {
			return fmt.Errorf("clearing segments: %w", err)
		}
		if len(anchors) > 0 {
			if err := tx.Create(&anchors).Error; err != nil {
				return fmt.Errorf("saving anchors: %w", err)
			}
		}
		if len(segs) > 0 {
			if err := tx.Create(&segs).Error; err != nil {
				return fmt.Errorf("saving segments: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("run %s: %w", row.ID, err)
	}
	s.logger.Debugw("run saved", "id", row.ID, "status", row.Status, "anchors", len(anchors))
	return nil
}

// GetRun loads one run with its anchors and segments.
func (s *Store) GetRun(ctx context.Context, id string) (*types.Run, error) {
	db := s.db.WithContext(ctx)

	var row database.RunRow
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", storage.ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}

	var anchors []database.AnchorRow
	if err := db.Where("run_id = ?", id).Order("seq").Find(&anchors).Error; err != nil {
		return nil, fmt.Errorf("querying anchors of run %s: %w", id, err)
	}
	var segs []database.SegmentRow
	if err := db.Where("run_id = ?", id).Order("seq").Find(&segs).Error; err != nil {
		return nil, fmt.Errorf("querying segments of run %s: %w", id, err)
	}
	return row.ToRun(anchors, segs)
}

// ListRuns returns up to limit runs, newest first, without anchors or segments.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]types.Run, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	var rows []database.RunRow
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	out := make([]types.Run, 0, len(rows))
	for _, row := range rows {
		r, err := row.ToRun(nil, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

// CheckHealth pings the database and runs a trivial query.
func (s *Store) CheckHealth(ctx context.Context) *storage.Health {
	h := &storage.Health{LastCheck: time.Now(), Status: storage.StatusHealthy, Message: "TimescaleDB operational"}

	sqlDB, err := s.db.DB()
	if err != nil {
		h.Status, h.Message, h.Error = storage.StatusUnhealthy, "Failed to get underlying database connection", err.Error()
		return h
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		h.Status, h.Message, h.Error = storage.StatusUnhealthy, "Database ping failed", err.Error()
		return h
	}
	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		h.Status, h.Message, h.Error = storage.StatusUnhealthy, "Database query test failed", err.Error()
	}
	return h
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
