// Package migrate applies versioned SQL schema migrations.
package migrate

import (
	"database/sql"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Migration is one numbered schema change.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// DB is either a connection or a transaction.
type DB interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Provider loads migrations and tracks the applied version.
type Provider interface {
	Migrations() ([]Migration, error)
	CurrentVersion(db *sql.DB) (int, error)
	SetVersion(db DB, version int) error
	EnsureTable(db *sql.DB) error
}

// Migrator runs migrations from a Provider against a database.
type Migrator struct {
	db       *sql.DB
	provider Provider
	logger   *zap.SugaredLogger
}

// NewMigrator creates a migrator. A nil logger is replaced with a no-op one.
func NewMigrator(db *sql.DB, provider Provider, logger *zap.SugaredLogger) *Migrator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Migrator{db: db, provider: provider, logger: logger}
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	return m.To(-1)
}

// Down reverts migrations until target is the current version.
func (m *Migrator) Down(target int) error {
	current, err := m.provider.CurrentVersion(m.db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if target >= current {
		return fmt.Errorf("target version %d must be less than current version %d", target, current)
	}

	migrations, err := m.provider.Migrations()
	if err != nil {
		return fmt.Errorf("failed to get migrations: %w", err)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version > migrations[j].Version
	})

	for _, mig := range migrations {
		if mig.Version > target && mig.Version <= current {
			if err := m.apply(mig, false); err != nil {
				return fmt.Errorf("failed to roll back migration %d: %w", mig.Version, err)
			}
		}
	}
	return nil
}

// To migrates up or down to target; -1 means the latest version.
func (m *Migrator) To(target int) error {
	if err := m.provider.EnsureTable(m.db); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	current, err := m.provider.CurrentVersion(m.db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	migrations, err := m.provider.Migrations()
	if err != nil {
		return fmt.Errorf("failed to get migrations: %w", err)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	if target == -1 {
		target = current
		if len(migrations) > 0 {
			target = migrations[len(migrations)-1].Version
		}
	}
	if target < current {
		return m.Down(target)
	}

	for _, mig := range migrations {
		if mig.Version > current && mig.Version <= target {
			if err := m.apply(mig, true); err != nil {
				return fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
			}
		}
	}
	return nil
}

// Version returns the applied schema version, creating the tracking table if
// needed.
func (m *Migrator) Version() (int, error) {
	if err := m.provider.EnsureTable(m.db); err != nil {
		return 0, fmt.Errorf("failed to create migration table: %w", err)
	}
	return m.provider.CurrentVersion(m.db)
}

// Pending lists migrations newer than the applied version.
func (m *Migrator) Pending() ([]Migration, error) {
	current, err := m.Version()
	if err != nil {
		return nil, err
	}
	migrations, err := m.provider.Migrations()
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, mig := range migrations {
		if mig.Version > current {
			pending = append(pending, mig)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Version < pending[j].Version
	})
	return pending, nil
}

func (m *Migrator) apply(mig Migration, up bool) error {
	stmt, direction, version := mig.Up, "up", mig.Version
	if !up {
		stmt, direction, version = mig.Down, "down", mig.Version-1
	}
	if stmt == "" {
		return fmt.Errorf("migration %d has no %s SQL", mig.Version, direction)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(stmt); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}
	if err := m.provider.SetVersion(tx, version); err != nil {
		return fmt.Errorf("failed to update migration version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}

	m.logger.Infow("applied migration", "version", mig.Version, "name", mig.Name, "direction", direction)
	return nil
}
