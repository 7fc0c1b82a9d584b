// Package sqlite stores alignment runs in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/chrissnell/notealign/internal/database"
	"github.com/chrissnell/notealign/internal/storage"
	"github.com/chrissnell/notealign/internal/types"
	"github.com/chrissnell/notealign/pkg/migrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// fixed width so that text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is a storage.RunStore backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.SugaredLogger
}

var _ storage.RunStore = (*Store)(nil)

// NewMigrator returns a migrator for the run schema of db.
func NewMigrator(db *sql.DB, logger *zap.SugaredLogger) *migrate.Migrator {
	return migrate.NewMigrator(db, migrate.NewFSProvider(migrations, "migrations", "", migrate.SQLite), logger)
}

// New opens (creating if needed) the database at path and applies migrations.
func New(path string, logger *zap.SugaredLogger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if err := NewMigrator(db, logger).Up(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}

	logger.Infow("run store opened", "backend", "sqlite", "path", path)
	return &Store{db: db, path: path, logger: logger}, nil
}

// SaveRun inserts or replaces a run with its anchors and segments.
func (s *Store) SaveRun(ctx context.Context, run *types.Run) error {
	row, anchors, segs, err := database.RowsFromRun(run)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM anchors WHERE run_id = ?`,
		`DELETE FROM segments WHERE run_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, row.ID); err != nil {
			return fmt.Errorf("clearing run %s: %w", row.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, created_at, name, reference_path, derived_path, status, error, params, drift, overlap, event_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.CreatedAt.UTC().Format(timeLayout), row.Name, row.ReferencePath, row.DerivedPath,
		row.Status, row.Error, row.Params, row.Drift, row.Overlap, row.EventCount,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", row.ID, err)
	}

	for _, a := range anchors {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO anchors (run_id, seq, kind, gt_time, gt_labels, derived_time, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.RunID, a.Seq, a.Kind, a.GTTime, a.GTLabels, a.DerivedTime, a.Confidence)
		if err != nil {
			return fmt.Errorf("inserting anchor %d of run %s: %w", a.Seq, row.ID, err)
		}
	}
	for _, sg := range segs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO segments (run_id, seq, gt_start, gt_end, a, b, degenerate)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sg.RunID, sg.Seq, sg.GTStart, sg.GTEnd, sg.A, sg.B, sg.Degenerate)
		if err != nil {
			return fmt.Errorf("inserting segment %d of run %s: %w", sg.Seq, row.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run %s: %w", row.ID, err)
	}
	s.logger.Debugw("run saved", "id", row.ID, "status", row.Status, "anchors", len(anchors))
	return nil
}

const runColumns = `id, created_at, name, reference_path, derived_path, status, error, params, drift, overlap, event_count`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (database.RunRow, error) {
	var (
		row     database.RunRow
		created string
	)
	err := sc.Scan(&row.ID, &created, &row.Name, &row.ReferencePath, &row.DerivedPath,
		&row.Status, &row.Error, &row.Params, &row.Drift, &row.Overlap, &row.EventCount)
	if err != nil {
		return row, err
	}
	row.CreatedAt, err = time.Parse(timeLayout, created)
	if err != nil {
		return row, fmt.Errorf("parsing created_at of run %s: %w", row.ID, err)
	}
	return row, nil
}

// GetRun loads one run with its anchors and segments.
func (s *Store) GetRun(ctx context.Context, id string) (*types.Run, error) {
	row, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}

	anchors, err := s.anchors(ctx, id)
	if err != nil {
		return nil, err
	}
	segs, err := s.segments(ctx, id)
	if err != nil {
		return nil, err
	}
	return row.ToRun(anchors, segs)
}

func (s *Store) anchors(ctx context.Context, id string) ([]database.AnchorRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, kind, gt_time, gt_labels, derived_time, confidence
		FROM anchors WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying anchors of run %s: %w", id, err)
	}
	defer rows.Close()

	var out []database.AnchorRow
	for rows.Next() {
		var a database.AnchorRow
		if err := rows.Scan(&a.RunID, &a.Seq, &a.Kind, &a.GTTime, &a.GTLabels, &a.DerivedTime, &a.Confidence); err != nil {
			return nil, fmt.Errorf("scanning anchor: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) segments(ctx context.Context, id string) ([]database.SegmentRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, gt_start, gt_end, a, b, degenerate
		FROM segments WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying segments of run %s: %w", id, err)
	}
	defer rows.Close()

	var out []database.SegmentRow
	for rows.Next() {
		var sg database.SegmentRow
		if err := rows.Scan(&sg.RunID, &sg.Seq, &sg.GTStart, &sg.GTEnd, &sg.A, &sg.B, &sg.Degenerate); err != nil {
			return nil, fmt.Errorf("scanning segment: %w", err)
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

// ListRuns returns up to limit runs, newest first, without anchors or segments.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]types.Run, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []types.Run
	for rows.Next() {
		row, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		r, err := row.ToRun(nil, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// CheckHealth pings the database and runs a trivial query.
func (s *Store) CheckHealth(ctx context.Context) *storage.Health {
	h := &storage.Health{LastCheck: time.Now(), Status: storage.StatusHealthy, Message: "SQLite operational"}

	var one int
	if err := s.db.PingContext(ctx); err != nil {
		h.Status, h.Message, h.Error = storage.StatusUnhealthy, "Database ping failed", err.Error()
	} else if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		h.Status, h.Message, h.Error = storage.StatusUnhealthy, "Database query test failed", err.Error()
	}
	return h
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
