package migrate

import (
	"database/sql"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Dialect selects SQL syntax for the version table.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// NNN_name.up.sql / NNN_name.down.sql
var fileRe = regexp.MustCompile(`^(\d+)_(.+)\.(up|down)\.sql$`)

// FSProvider loads migrations from a directory of an fs.FS, typically an
// embed.FS compiled into the binary.
type FSProvider struct {
	fsys    fs.FS
	dir     string
	table   string
	dialect Dialect
}

// NewFSProvider returns a provider reading dir within fsys. An empty table
// name defaults to schema_migrations.
func NewFSProvider(fsys fs.FS, dir, table string, dialect Dialect) *FSProvider {
	if table == "" {
		table = "schema_migrations"
	}
	return &FSProvider{fsys: fsys, dir: dir, table: table, dialect: dialect}
}

// Migrations reads and pairs every up/down file, sorted by version.
func (p *FSProvider) Migrations() ([]Migration, error) {
	byVersion := map[int]*Migration{}

	err := fs.WalkDir(p.fsys, p.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		match := fileRe.FindStringSubmatch(d.Name())
		if match == nil {
			return nil
		}

		version, err := strconv.Atoi(match[1])
		if err != nil {
			return fmt.Errorf("invalid version number in file %s: %w", d.Name(), err)
		}
		content, err := fs.ReadFile(p.fsys, path)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", path, err)
		}

		mig := byVersion[version]
		if mig == nil {
			mig = &Migration{Version: version, Name: strings.ReplaceAll(match[2], "_", " ")}
			byVersion[version] = mig
		}
		if match[3] == "up" {
			mig.Up = string(content)
		} else {
			mig.Down = string(content)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory %s: %w", p.dir, err)
	}

	out := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		out = append(out, *mig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// EnsureTable creates the version tracking table.
func (p *FSProvider) EnsureTable(db *sql.DB) error {
	ts := "DATETIME"
	if p.dialect == Postgres {
		ts = "TIMESTAMP"
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		version INTEGER PRIMARY KEY,
		applied_at %s DEFAULT CURRENT_TIMESTAMP
	)`, p.table, ts)

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// CurrentVersion is the highest recorded version, 0 when none.
func (p *FSProvider) CurrentVersion(db *sql.DB) (int, error) {
	var version int
	query := fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", p.table)
	if err := db.QueryRow(query).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// SetVersion records version as the latest applied, forgetting any newer
// versions.
func (p *FSProvider) SetVersion(db DB, version int) error {
	ph := "?"
	upsert := fmt.Sprintf("INSERT OR REPLACE INTO %s (version, applied_at) VALUES (?, CURRENT_TIMESTAMP)", p.table)
	if p.dialect == Postgres {
		ph = "$1"
		upsert = fmt.Sprintf(`INSERT INTO %s (version, applied_at) VALUES ($1, CURRENT_TIMESTAMP)
			ON CONFLICT (version) DO UPDATE SET applied_at = CURRENT_TIMESTAMP`, p.table)
	}

	if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE version > %s", p.table, ph), version); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}
	if version == 0 {
		return nil
	}
	if _, err := db.Exec(upsert, version); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}
	return nil
}
