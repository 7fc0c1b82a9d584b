// Package config loads notealign configuration from YAML files or a SQLite
// configuration database.
package config

import (
	"fmt"
	"os"

	"github.com/chrissnell/notealign/internal/align"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetAlignmentProfile(name string) (*AlignmentData, error)
	GetStorageConfig() (*StorageData, error)

	IsReadOnly() bool
	Close() error
}

// Environment variables that override configured storage locations.
const (
	EnvDatabaseURL = "NOTEALIGN_DATABASE_URL"
	EnvSQLitePath  = "NOTEALIGN_SQLITE_PATH"
)

// DefaultProfile names the base alignment profile.
const DefaultProfile = "default"

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Alignment AlignmentData            `json:"alignment" yaml:"alignment"`
	Profiles  map[string]AlignmentData `json:"profiles,omitempty" yaml:"profiles,omitempty"`
	Storage   StorageData              `json:"storage" yaml:"storage"`
	Server    ServerData               `json:"server" yaml:"server"`
	Batch     BatchData                `json:"batch" yaml:"batch"`
}

// AlignmentData overrides alignment parameters. Nil fields keep the defaults.
type AlignmentData struct {
	Epsilon        *float64    `json:"epsilon,omitempty" yaml:"epsilon,omitempty"`
	SegmentMinutes *float64    `json:"segment_minutes,omitempty" yaml:"segment_minutes,omitempty"`
	Attempts       *int        `json:"n_attempts,omitempty" yaml:"n_attempts,omitempty"`
	ThreshFirst    *float64    `json:"thresh_first,omitempty" yaml:"thresh_first,omitempty"`
	ThreshLast     *float64    `json:"thresh_last,omitempty" yaml:"thresh_last,omitempty"`
	ThreshMiddle   *float64    `json:"thresh_middle,omitempty" yaml:"thresh_middle,omitempty"`
	SeqLen         *int        `json:"seq_len,omitempty" yaml:"seq_len,omitempty"`
	SeqMaxSpan     *float64    `json:"seq_max_span,omitempty" yaml:"seq_max_span,omitempty"`
	MaxSkipPrefix  *int        `json:"max_skip_prefix,omitempty" yaml:"max_skip_prefix,omitempty"`
	SafetyForward  *float64    `json:"safety_forward,omitempty" yaml:"safety_forward,omitempty"`
	MinDenom       *float64    `json:"min_denom,omitempty" yaml:"min_denom,omitempty"`
	ExcludeLabels  []int       `json:"exclude_labels,omitempty" yaml:"exclude_labels,omitempty"`
	Window         *WindowData `json:"window,omitempty" yaml:"window,omitempty"`
}

// WindowData overrides the interior search window shape.
type WindowData struct {
	MinBack            *float64 `json:"min_back,omitempty" yaml:"min_back,omitempty"`
	MaxBack            *float64 `json:"max_back,omitempty" yaml:"max_back,omitempty"`
	MinForward         *float64 `json:"min_fwd,omitempty" yaml:"min_fwd,omitempty"`
	MaxForward         *float64 `json:"max_fwd,omitempty" yaml:"max_fwd,omitempty"`
	ScaleBack          *float64 `json:"scale_back,omitempty" yaml:"scale_back,omitempty"`
	ScaleForward       *float64 `json:"scale_fwd,omitempty" yaml:"scale_fwd,omitempty"`
	RetryForwardFactor *float64 `json:"retry_fwd_factor,omitempty" yaml:"retry_fwd_factor,omitempty"`
}

// StorageData holds the configuration for the run store backends
type StorageData struct {
	SQLite      *SQLiteData      `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty" yaml:"timescaledb,omitempty"`
}

type SQLiteData struct {
	Path string `json:"path" yaml:"path"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string" yaml:"connection_string"`
}

// ServerData configures the REST API listener.
type ServerData struct {
	ListenAddr  string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	Port        int    `json:"port,omitempty" yaml:"port,omitempty"`
	TLSCertPath string `json:"tls_cert_path,omitempty" yaml:"tls_cert_path,omitempty"`
	TLSKeyPath  string `json:"tls_key_path,omitempty" yaml:"tls_key_path,omitempty"`
}

// BatchData configures directory batch runs.
type BatchData struct {
	Root          string       `json:"root,omitempty" yaml:"root,omitempty"`
	ReferenceName string       `json:"reference_name,omitempty" yaml:"reference_name,omitempty"`
	DerivedName   string       `json:"derived_name,omitempty" yaml:"derived_name,omitempty"`
	OutputName    string       `json:"output_name,omitempty" yaml:"output_name,omitempty"`
	MergedName    string       `json:"merged_name,omitempty" yaml:"merged_name,omitempty"`
	Overlap       *OverlapData `json:"overlap,omitempty" yaml:"overlap,omitempty"`
}

// OverlapData configures the per-case overlap summary.
type OverlapData struct {
	Tolerance float64  `json:"tolerance" yaml:"tolerance"`
	Start     *float64 `json:"start,omitempty" yaml:"start,omitempty"`
	End       *float64 `json:"end,omitempty" yaml:"end,omitempty"`
}

// ApplyDefaults fills unset server and batch fields.
func (c *ConfigData) ApplyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Batch.Root == "" {
		c.Batch.Root = "."
	}
	if c.Batch.ReferenceName == "" {
		c.Batch.ReferenceName = "reference.csv"
	}
	if c.Batch.DerivedName == "" {
		c.Batch.DerivedName = "derived.csv"
	}
	if c.Batch.OutputName == "" {
		c.Batch.OutputName = "aligned.csv"
	}
}

// ApplyEnv lets the environment override storage locations.
func (c *ConfigData) ApplyEnv() {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Storage.TimescaleDB = &TimescaleDBData{ConnectionString: v}
	}
	if v := os.Getenv(EnvSQLitePath); v != "" {
		c.Storage.SQLite = &SQLiteData{Path: v}
	}
}

// AlignParams resolves the named profile on top of the base alignment section
// and the engine defaults, and validates the result. An empty name selects
// the base section alone.
func (c *ConfigData) AlignParams(profile string) (align.Params, error) {
	p := c.Alignment.Apply(align.DefaultParams())
	if profile != "" && profile != DefaultProfile {
		prof, ok := c.Profiles[profile]
		if !ok {
			return align.Params{}, fmt.Errorf("unknown alignment profile %q", profile)
		}
		p = prof.Apply(p)
	}
	if err := p.Validate(); err != nil {
		return align.Params{}, fmt.Errorf("profile %q: %w", profile, err)
	}
	return p, nil
}

// Apply overlays the set fields of a onto base.
func (a AlignmentData) Apply(base align.Params) align.Params {
	setF := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setI := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}

	p := base
	setF(&p.Epsilon, a.Epsilon)
	setF(&p.SegmentMinutes, a.SegmentMinutes)
	setI(&p.Attempts, a.Attempts)
	setF(&p.ThreshFirst, a.ThreshFirst)
	setF(&p.ThreshLast, a.ThreshLast)
	setF(&p.ThreshMiddle, a.ThreshMiddle)
	setI(&p.SeqLen, a.SeqLen)
	setF(&p.SeqMaxSpan, a.SeqMaxSpan)
	setI(&p.MaxSkipPrefix, a.MaxSkipPrefix)
	setF(&p.SafetyForward, a.SafetyForward)
	setF(&p.MinDenom, a.MinDenom)
	if a.ExcludeLabels != nil {
		p.ExcludeLabels = append([]int(nil), a.ExcludeLabels...)
	}
	if w := a.Window; w != nil {
		setF(&p.Window.MinBack, w.MinBack)
		setF(&p.Window.MaxBack, w.MaxBack)
		setF(&p.Window.MinForward, w.MinForward)
		setF(&p.Window.MaxForward, w.MaxForward)
		setF(&p.Window.ScaleBack, w.ScaleBack)
		setF(&p.Window.ScaleForward, w.ScaleForward)
		setF(&p.Window.RetryForwardFactor, w.RetryForwardFactor)
	}
	return p
}

// NewProvider opens a provider for the named backend ("yaml" or "sqlite").
func NewProvider(backend, path string) (ConfigProvider, error) {
	switch backend {
	case "", "yaml":
		return NewYAMLProvider(path), nil
	case "sqlite":
		return NewSQLiteProvider(path)
	}
	return nil, fmt.Errorf("unknown config backend %q", backend)
}
