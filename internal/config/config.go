// Package config loads the runtime's TOML configuration file. All
// fields have working defaults, so a missing file or an empty table is
// valid.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration for the cardity runtime.
type Config struct {
	Runtime RuntimeConfig `toml:"runtime"`
	Logging LoggingConfig `toml:"logging"`
	Metrics MetricsConfig `toml:"metrics"`
	RPC     RPCConfig     `toml:"rpc"`
	Tracing TracingConfig `toml:"tracing"`
}

// RuntimeConfig carries the Orchestrator's enumerated options.
type RuntimeConfig struct {
	// EnableEvents controls whether emit statements are recorded.
	EnableEvents bool `toml:"enable_events"`

	// EnableSnapshots advertises snapshot support to host tooling.
	EnableSnapshots bool `toml:"enable_snapshots"`

	// EnablePersistence advertises persistence support to host tooling.
	EnablePersistence bool `toml:"enable_persistence"`

	// SnapshotInterval is the suggested cadence for periodic snapshots.
	SnapshotInterval Duration `toml:"snapshot_interval"`

	// StoragePath is the backend's storage location: the database file
	// for "sqlite", the database directory for "leveldb".
	StoragePath string `toml:"storage_path"`

	// Backend selects the state storage engine: "memory", "sqlite", or
	// "leveldb".
	Backend string `toml:"backend"`

	// CacheSize, when positive, wraps the backend in an LRU read cache
	// of that many entries.
	CacheSize int `toml:"cache_size"`

	// Transactional rolls back state on a failed call.
	Transactional bool `toml:"transactional"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum level: "debug", "info", "warn", or "error".
	Level string `toml:"level"`

	// Format is the output format: "text" or "json".
	Format string `toml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled determines whether metrics are collected and served.
	Enabled bool `toml:"enabled"`

	// ListenAddr is the address the metrics HTTP endpoint binds to.
	ListenAddr string `toml:"listen_addr"`

	// Namespace prefixes every metric name.
	Namespace string `toml:"namespace"`
}

// RPCConfig contains the gRPC facade configuration.
type RPCConfig struct {
	// Enabled marks the gRPC facade as in use; Validate then requires
	// ListenAddr. The serve command starts the facade regardless.
	Enabled bool `toml:"enabled"`

	// ListenAddr is the address the gRPC server binds to.
	ListenAddr string `toml:"listen_addr"`

	// MaxRecvMsgSize is the maximum inbound message size in bytes.
	MaxRecvMsgSize int `toml:"max_recv_msg_size"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Exporter selects the span exporter: "stdout" or "none".
	Exporter string `toml:"exporter"`

	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `toml:"sample_rate"`
}

// Duration wraps time.Duration for TOML text (un)marshaling.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the wrapped time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns a configuration with working defaults.
func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			EnableEvents:      true,
			EnableSnapshots:   true,
			EnablePersistence: true,
			SnapshotInterval:  Duration(0),
			StoragePath:       "",
			Backend:           "memory",
			CacheSize:         0,
			Transactional:     false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: "127.0.0.1:9464",
			Namespace:  "cardity",
		},
		RPC: RPCConfig{
			Enabled:        false,
			ListenAddr:     "127.0.0.1:26659",
			MaxRecvMsgSize: 4 * 1024 * 1024,
		},
		Tracing: TracingConfig{
			Exporter:   "none",
			SampleRate: 0.1,
		},
	}
}

// LoadConfig reads, parses, and validates the TOML file at path,
// applying defaults for any omitted field.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Runtime.Backend {
	case "memory", "sqlite", "leveldb":
	default:
		return fmt.Errorf("runtime.backend must be memory, sqlite, or leveldb, got %q", c.Runtime.Backend)
	}
	if c.Runtime.Backend != "memory" && c.Runtime.StoragePath == "" {
		return fmt.Errorf("runtime.storage_path is required for the %s backend", c.Runtime.Backend)
	}
	if c.Runtime.CacheSize < 0 {
		return fmt.Errorf("runtime.cache_size must not be negative")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	switch c.Tracing.Exporter {
	case "stdout", "none":
	default:
		return fmt.Errorf("tracing.exporter must be stdout or none, got %q", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1")
	}

	if c.RPC.Enabled && c.RPC.ListenAddr == "" {
		return fmt.Errorf("rpc.listen_addr is required when rpc is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics.listen_addr is required when metrics are enabled")
	}
	return nil
}

// Save writes the configuration as TOML to path.
func (c *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}
