package config

import (
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/chrissnell/notealign/pkg/migrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteProvider implements ConfigProvider for SQLite databases. Alignment
// profiles live in alignment_profiles, with the row named "default" holding
// the base section. Every other setting is a dotted key in settings.
type SQLiteProvider struct {
	db       *sql.DB
	filename string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(filename string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	m := migrate.NewMigrator(db, migrate.NewFSProvider(migrations, "migrations", "config_schema_migrations", migrate.SQLite), zap.NewNop().Sugar())
	if err := m.Up(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate config database: %w", err)
	}

	return &SQLiteProvider{
		db:       db,
		filename: filename,
	}, nil
}

const profileColumns = `name, epsilon, segment_minutes, n_attempts, thresh_first, thresh_last, thresh_middle,
	seq_len, seq_max_span, max_skip_prefix, safety_forward, min_denom, exclude_labels,
	min_back, max_back, min_fwd, max_fwd, scale_back, scale_fwd, retry_fwd_factor`

// LoadConfig loads the complete configuration from SQLite
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	cfg := &ConfigData{}

	profiles, err := s.loadProfiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load alignment profiles: %w", err)
	}
	for name, p := range profiles {
		if name == DefaultProfile {
			cfg.Alignment = p
			continue
		}
		if cfg.Profiles == nil {
			cfg.Profiles = make(map[string]AlignmentData)
		}
		cfg.Profiles[name] = p
	}

	settings, err := s.loadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if err := applySettings(cfg, settings); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// GetAlignmentProfile loads a single profile row.
func (s *SQLiteProvider) GetAlignmentProfile(name string) (*AlignmentData, error) {
	if name == "" {
		name = DefaultProfile
	}
	row := s.db.QueryRow(`SELECT `+profileColumns+` FROM alignment_profiles WHERE name = ?`, name)
	_, p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		if name == DefaultProfile {
			return &AlignmentData{}, nil
		}
		return nil, fmt.Errorf("unknown alignment profile %q", name)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetStorageConfig returns storage configuration
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Storage, nil
}

// SaveConfig replaces the stored configuration with cfg.
func (s *SQLiteProvider) SaveConfig(cfg *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM alignment_profiles`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM settings`); err != nil {
		return err
	}

	if err := insertProfile(tx, DefaultProfile, cfg.Alignment); err != nil {
		return err
	}
	for name, p := range cfg.Profiles {
		if err := insertProfile(tx, name, p); err != nil {
			return fmt.Errorf("profile %s: %w", name, err)
		}
	}

	for k, v := range settingsFrom(cfg) {
		if _, err := tx.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("setting %s: %w", k, err)
		}
	}

	return tx.Commit()
}

// IsReadOnly returns false for SQLite provider
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteProvider) loadProfiles() (map[string]AlignmentData, error) {
	rows, err := s.db.Query(`SELECT ` + profileColumns + ` FROM alignment_profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]AlignmentData)
	for rows.Next() {
		name, p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, rows.Err()
}

func (s *SQLiteProvider) loadSettings() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row scanner) (string, AlignmentData, error) {
	var name string
	var epsilon, segMin, tFirst, tLast, tMiddle, maxSpan sql.NullFloat64
	var safety, minDenom, minBack, maxBack, minFwd, maxFwd sql.NullFloat64
	var scaleBack, scaleFwd, retry sql.NullFloat64
	var attempts, seqLen, skip sql.NullInt64
	var exclude sql.NullString

	err := row.Scan(&name, &epsilon, &segMin, &attempts, &tFirst, &tLast, &tMiddle,
		&seqLen, &maxSpan, &skip, &safety, &minDenom, &exclude,
		&minBack, &maxBack, &minFwd, &maxFwd, &scaleBack, &scaleFwd, &retry)
	if err != nil {
		return "", AlignmentData{}, err
	}

	p := AlignmentData{
		Epsilon:        nullFloat(epsilon),
		SegmentMinutes: nullFloat(segMin),
		Attempts:       nullInt(attempts),
		ThreshFirst:    nullFloat(tFirst),
		ThreshLast:     nullFloat(tLast),
		ThreshMiddle:   nullFloat(tMiddle),
		SeqLen:         nullInt(seqLen),
		SeqMaxSpan:     nullFloat(maxSpan),
		MaxSkipPrefix:  nullInt(skip),
		SafetyForward:  nullFloat(safety),
		MinDenom:       nullFloat(minDenom),
	}

	if exclude.Valid && exclude.String != "" {
		labels, err := parseLabels(exclude.String)
		if err != nil {
			return "", AlignmentData{}, fmt.Errorf("profile %s: %w", name, err)
		}
		p.ExcludeLabels = labels
	}

	w := WindowData{
		MinBack:            nullFloat(minBack),
		MaxBack:            nullFloat(maxBack),
		MinForward:         nullFloat(minFwd),
		MaxForward:         nullFloat(maxFwd),
		ScaleBack:          nullFloat(scaleBack),
		ScaleForward:       nullFloat(scaleFwd),
		RetryForwardFactor: nullFloat(retry),
	}
	if w != (WindowData{}) {
		p.Window = &w
	}

	return name, p, nil
}

func insertProfile(tx *sql.Tx, name string, p AlignmentData) error {
	w := WindowData{}
	if p.Window != nil {
		w = *p.Window
	}

	var exclude interface{}
	if p.ExcludeLabels != nil {
		parts := make([]string, len(p.ExcludeLabels))
		for i, l := range p.ExcludeLabels {
			parts[i] = strconv.Itoa(l)
		}
		exclude = strings.Join(parts, ",")
	}

	_, err := tx.Exec(`INSERT INTO alignment_profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		name, ptr(p.Epsilon), ptr(p.SegmentMinutes), ptr(p.Attempts), ptr(p.ThreshFirst),
		ptr(p.ThreshLast), ptr(p.ThreshMiddle), ptr(p.SeqLen), ptr(p.SeqMaxSpan),
		ptr(p.MaxSkipPrefix), ptr(p.SafetyForward), ptr(p.MinDenom), exclude,
		ptr(w.MinBack), ptr(w.MaxBack), ptr(w.MinForward), ptr(w.MaxForward),
		ptr(w.ScaleBack), ptr(w.ScaleForward), ptr(w.RetryForwardFactor))
	return err
}

// ptr converts a nil pointer into a SQL NULL.
func ptr[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func parseLabels(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		l, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude label %q", part)
		}
		out = append(out, l)
	}
	return out, nil
}
