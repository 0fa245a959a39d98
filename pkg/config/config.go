// Package config loads the copro configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given
const DefaultPath = "copro.yaml"

// Store backends
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config is the root configuration
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
	Cache   CacheConfig   `yaml:"cache"`
}

// StoreConfig selects and configures the persistence backend
type StoreConfig struct {
	Backend string `yaml:"backend"` // memory, sqlite
	Path    string `yaml:"path"`
}

// CacheConfig configures the property read cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	MaxSize   int64         `yaml:"max_size"`
	TTL       time.Duration `yaml:"ttl"`
	Memcached string        `yaml:"memcached"` // host:port of a shared tier, optional
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// OutputConfig controls how results are rendered
type OutputConfig struct {
	Format   string `yaml:"format"` // text, json, csv
	Currency string `yaml:"currency"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: StoreSQLite,
			Path:    "copro.db",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Output: OutputConfig{
			Format:   "text",
			Currency: "€",
		},
		Cache: CacheConfig{
			Enabled: true,
			MaxSize: 1000,
			TTL:     5 * time.Minute,
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("COPRO_STORE"); v != "" {
		c.Store.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("COPRO_DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("COPRO_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("COPRO_LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("COPRO_CURRENCY"); v != "" {
		c.Output.Currency = v
	}
	if v := os.Getenv("COPRO_MEMCACHED"); v != "" {
		c.Cache.Memcached = v
	}
}

var (
	validBackends   = []string{StoreMemory, StoreSQLite}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "console"}
	validFormats    = []string{"text", "json", "csv"}
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !contains(validBackends, c.Store.Backend) {
		return fmt.Errorf("invalid store backend: %q (valid: %v)", c.Store.Backend, validBackends)
	}
	if c.Store.Backend == StoreSQLite && c.Store.Path == "" {
		return fmt.Errorf("store path is required for the sqlite backend")
	}
	if !contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %q (valid: %v)", c.Logging.Level, validLogLevels)
	}
	if !contains(validLogFormats, c.Logging.Format) {
		return fmt.Errorf("invalid log format: %q (valid: %v)", c.Logging.Format, validLogFormats)
	}
	if !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %q (valid: %v)", c.Output.Format, validFormats)
	}
	if c.Cache.Enabled && (c.Cache.MaxSize <= 0 || c.Cache.TTL <= 0) {
		return fmt.Errorf("cache max_size and ttl must be positive when the cache is enabled")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
