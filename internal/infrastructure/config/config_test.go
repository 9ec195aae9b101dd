package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadAppliesFileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 10.0.0.1
  port: 9000
storage:
  backend: table
  table:
    path: /tmp/test.db
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "10.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("server: got %+v", cfg.Server)
	}
	if cfg.Storage.Backend != BackendTable {
		t.Errorf("backend: got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Table.Path != "/tmp/test.db" {
		t.Errorf("table path: got %q", cfg.Storage.Table.Path)
	}
	// Untouched sections keep their defaults.
	if cfg.Protocol.MaxFrameBytes != 1<<20 {
		t.Errorf("max_frame_bytes default: got %d", cfg.Protocol.MaxFrameBytes)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level: got %q", cfg.Logging.Level)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
`)
	t.Setenv("DOCSTORE_SERVER_PORT", "7000")
	t.Setenv("DOCSTORE_STORAGE_BACKEND", "TABLE")
	t.Setenv("DOCSTORE_STORAGE_TABLE_PATH", "/tmp/env.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("port: got %d, want env override 7000", cfg.Server.Port)
	}
	if cfg.Storage.Backend != BackendTable {
		t.Errorf("backend: got %q, want lowercased table", cfg.Storage.Backend)
	}
	if cfg.Storage.Table.Path != "/tmp/env.db" {
		t.Errorf("table path: got %q", cfg.Storage.Table.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: a: mapping")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "accept poll too small",
			mutate:  func(c *Config) { c.Server.AcceptPoll = 0 },
			wantErr: "accept_poll",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "dynamo" },
			wantErr: "storage.backend",
		},
		{
			name: "file backend without paths",
			mutate: func(c *Config) {
				c.Storage.File.DocumentsPath = ""
			},
			wantErr: "documents_path",
		},
		{
			name: "table backend without path",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendTable
				c.Storage.Table.Path = ""
			},
			wantErr: "storage.table.path",
		},
		{
			name: "metrics enabled with bad port",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Port = 0
			},
			wantErr: "metrics.port",
		},
		{
			name:    "frame limit",
			mutate:  func(c *Config) { c.Protocol.MaxFrameBytes = 0 },
			wantErr: "max_frame_bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error: got %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	if got := cfg.GetAcceptPoll(); got != time.Second {
		t.Errorf("accept poll: got %v", got)
	}
	if got := cfg.GetSubscriberIdleCheck(); got != time.Second {
		t.Errorf("idle check: got %v", got)
	}
	if got := cfg.ListenAddr(); got != "0.0.0.0:8080" {
		t.Errorf("listen addr: got %q", got)
	}
}
