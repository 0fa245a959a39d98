package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "copro.yaml")
	content := `
store:
  backend: memory
logging:
  level: debug
output:
  format: json
cache:
  ttl: 30s
  memcached: localhost:11211
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, "copro.db", cfg.Store.Path, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, int64(1000), cfg.Cache.MaxSize)
	assert.Equal(t, "localhost:11211", cfg.Cache.Memcached)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "copro.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COPRO_STORE", "MEMORY")
	t.Setenv("COPRO_DB_PATH", "/tmp/other.db")
	t.Setenv("COPRO_LOG_LEVEL", "Info")
	t.Setenv("COPRO_LOG_FORMAT", "json")
	t.Setenv("COPRO_CURRENCY", "EUR")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, "/tmp/other.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "EUR", cfg.Output.Currency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Store.Backend = "postgres" }, "invalid store backend"},
		{"sqlite without path", func(c *Config) { c.Store.Path = "" }, "store path is required"},
		{"memory without path", func(c *Config) { c.Store.Backend = StoreMemory; c.Store.Path = "" }, ""},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
		{"bad output format", func(c *Config) { c.Output.Format = "html" }, "invalid output format"},
		{"zero cache ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache max_size and ttl"},
		{"disabled cache ignores size", func(c *Config) { c.Cache.Enabled = false; c.Cache.MaxSize = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "copro.yaml")
	cfg := DefaultConfig()
	cfg.Output.Currency = "USD"

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
