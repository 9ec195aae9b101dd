package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backend identifiers. Selected once at startup via the
// storage.backend config key or the DOCSTORE_STORAGE_BACKEND override.
const (
	BackendFile  = "file"
	BackendTable = "table"
)

// Config is the root configuration structure for docstore.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
	Protocol ProtocolConfig `yaml:"protocol"`
}

// ServerConfig contains TCP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// AcceptPoll is how often the accept loop wakes to check for
	// shutdown, in milliseconds. The listener never blocks longer
	// than this on Accept.
	AcceptPoll int `yaml:"accept_poll"`
}

// StorageConfig selects and configures the persistence backend shared by
// the document store and the audit log.
type StorageConfig struct {
	// Backend is "file" or "table".
	Backend string `yaml:"backend"`

	File  FileStorageConfig  `yaml:"file"`
	Table TableStorageConfig `yaml:"table"`
}

// FileStorageConfig contains paths for the whole-file JSON backend.
// Each file holds a single JSON array and is rewritten in full on every
// mutation.
type FileStorageConfig struct {
	DocumentsPath string `yaml:"documents_path"`
	AuditPath     string `yaml:"audit_path"`
}

// TableStorageConfig contains SQLite settings for the table backend.
type TableStorageConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// ScanPageSize bounds how many documents a single List page fetches.
	ScanPageSize int `yaml:"scan_page_size"`
}

// MetricsConfig contains the optional diagnostics HTTP listener settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// ProtocolConfig contains wire protocol limits and intervals.
type ProtocolConfig struct {
	// MaxFrameBytes is the largest accepted request line, in bytes.
	MaxFrameBytes int `yaml:"max_frame_bytes"`

	// SubscriberIdleCheck is how often a parked subscriber connection
	// wakes from its blocking read to check for shutdown, in seconds.
	// It never terminates the subscription by itself.
	SubscriberIdleCheck int `yaml:"subscriber_idle_check"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: DOCSTORE_SECTION_KEY
// For example: DOCSTORE_SERVER_PORT, DOCSTORE_STORAGE_BACKEND
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults. Callers that run
// without a config file (tests, the client tools) can use it directly.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       8080,
			AcceptPoll: 1000,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			File: FileStorageConfig{
				DocumentsPath: "./data/documents.json",
				AuditPath:     "./data/audit.json",
			},
			Table: TableStorageConfig{
				Path:         "./data/docstore.db",
				WALMode:      true,
				BusyTimeout:  5,
				ScanPageSize: 100,
			},
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    9090,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Protocol: ProtocolConfig{
			MaxFrameBytes:       1 << 20,
			SubscriberIdleCheck: 1,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: DOCSTORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DOCSTORE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("DOCSTORE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DOCSTORE_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("DOCSTORE_STORAGE_DOCUMENTS_PATH"); v != "" {
		cfg.Storage.File.DocumentsPath = v
	}
	if v := os.Getenv("DOCSTORE_STORAGE_AUDIT_PATH"); v != "" {
		cfg.Storage.File.AuditPath = v
	}
	if v := os.Getenv("DOCSTORE_STORAGE_TABLE_PATH"); v != "" {
		cfg.Storage.Table.Path = v
	}
	if v := os.Getenv("DOCSTORE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Server.AcceptPoll < 1 {
		errs = append(errs, "server.accept_poll must be at least 1ms")
	}

	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.File.DocumentsPath == "" {
			errs = append(errs, "storage.file.documents_path is required")
		}
		if c.Storage.File.AuditPath == "" {
			errs = append(errs, "storage.file.audit_path is required")
		}
	case BackendTable:
		if c.Storage.Table.Path == "" {
			errs = append(errs, "storage.table.path is required")
		}
		if c.Storage.Table.ScanPageSize < 1 {
			errs = append(errs, "storage.table.scan_page_size must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend must be %q or %q", BackendFile, BackendTable))
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			errs = append(errs, "metrics.port must be between 1 and 65535")
		}
	}

	if c.Protocol.MaxFrameBytes < 1 {
		errs = append(errs, "protocol.max_frame_bytes must be positive")
	}
	if c.Protocol.SubscriberIdleCheck < 1 {
		errs = append(errs, "protocol.subscriber_idle_check must be at least 1s")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetAcceptPoll returns the accept loop poll interval as a Duration.
func (c *Config) GetAcceptPoll() time.Duration {
	return time.Duration(c.Server.AcceptPoll) * time.Millisecond
}

// GetSubscriberIdleCheck returns the subscriber liveness interval as a Duration.
func (c *Config) GetSubscriberIdleCheck() time.Duration {
	return time.Duration(c.Protocol.SubscriberIdleCheck) * time.Second
}

// ListenAddr returns the TCP listen address in host:port form.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MetricsAddr returns the diagnostics listener address in host:port form.
func (c *Config) MetricsAddr() string {
	return fmt.Sprintf("%s:%d", c.Metrics.Host, c.Metrics.Port)
}
