// Package database connects to PostgreSQL/TimescaleDB through gorm and defines
// the row models for stored alignment runs.
package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CreateConnection opens a gorm handle with gorm's own logging routed into
// zapLogger.
func CreateConnection(connectionString string, zapLogger *zap.Logger) (*gorm.DB, error) {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	dbLogger := logger.New(
		zap.NewStdLog(zapLogger),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	zapLogger.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to create a TimescaleDB connection: %w", err)
	}
	zapLogger.Info("TimescaleDB connection successful")
	return db, nil
}

// AutoMigrate creates or updates the run tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&RunRow{}, &AnchorRow{}, &SegmentRow{})
}
