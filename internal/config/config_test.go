package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Runtime.EnableEvents)
	assert.Equal(t, "memory", cfg.Runtime.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[runtime]
transactional = true
snapshot_interval = "30s"

[logging]
level = "debug"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Runtime.Transactional)
	assert.Equal(t, 30*time.Second, cfg.Runtime.SnapshotInterval.Duration())
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.True(t, cfg.Runtime.EnableEvents)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "cardity", cfg.Metrics.Namespace)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"bad backend":          func(c *Config) { c.Runtime.Backend = "redis" },
		"sqlite without path":  func(c *Config) { c.Runtime.Backend = "sqlite" },
		"negative cache":       func(c *Config) { c.Runtime.CacheSize = -1 },
		"bad log level":        func(c *Config) { c.Logging.Level = "verbose" },
		"bad log format":       func(c *Config) { c.Logging.Format = "xml" },
		"bad tracing exporter": func(c *Config) { c.Tracing.Exporter = "jaeger" },
		"bad sample rate":      func(c *Config) { c.Tracing.SampleRate = 2.0 },
		"rpc without addr":     func(c *Config) { c.RPC.Enabled = true; c.RPC.ListenAddr = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Runtime.Backend = "sqlite"
	cfg.Runtime.StoragePath = "/tmp/cardity"
	cfg.Runtime.CacheSize = 256
	cfg.Logging.Format = "json"

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
