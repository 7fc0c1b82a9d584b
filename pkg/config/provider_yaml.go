package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig reads the file once and caches the parsed result. A missing
// file yields an empty configuration so that every default applies.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	cfg := &ConfigData{}
	cfgFile, err := os.ReadFile(y.filename)
	switch {
	case os.IsNotExist(err) || y.filename == "":
	case err != nil:
		return nil, err
	default:
		if err := yaml.UnmarshalStrict(cfgFile, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", y.filename, err)
		}
	}

	cfg.ApplyDefaults()
	y.config = cfg
	return cfg, nil
}

// GetAlignmentProfile returns the base alignment section for "" or "default",
// otherwise the named profile.
func (y *YAMLProvider) GetAlignmentProfile(name string) (*AlignmentData, error) {
	cfg, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	if name == "" || name == DefaultProfile {
		return &cfg.Alignment, nil
	}
	p, ok := cfg.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown alignment profile %q", name)
	}
	return &p, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	cfg, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Storage, nil
}

// IsReadOnly returns true for YAML provider
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
