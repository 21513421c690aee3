// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }, "server.timeout"},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"zero session timeout", func(c *Config) { c.Session.Timeout = 0 }, "session.timeout"},
		{"zero reap interval", func(c *Config) { c.Session.ReapInterval = 0 }, "session.reap_interval"},
		{"zero live window", func(c *Config) { c.Presence.LiveWindow = 0 }, "presence.live_window"},
		{"zero batch size", func(c *Config) { c.Ingest.MaxBatchSize = 0 }, "ingest.max_batch_size"},
		{"negative retries", func(c *Config) { c.Ingest.RetryAttempts = -1 }, "ingest.retry_attempts"},
		{"zero query limit", func(c *Config) { c.API.DefaultQueryLimit = 0 }, "api.default_query_limit"},
		{"max below default", func(c *Config) { c.API.MaxQueryLimit = 10 }, "api.max_query_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("SESSION_TIMEOUT", "90s")
	t.Setenv("DUCKDB_PATH", ":memory:")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Session.Timeout != 90*time.Second {
		t.Errorf("expected 90s session timeout, got %s", cfg.Session.Timeout)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("expected :memory: path, got %q", cfg.Database.Path)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != "https://a.example" {
		t.Errorf("expected split CORS origins, got %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadIgnoresUnmappedEnvVars(t *testing.T) {
	t.Setenv("RANDOM_UNRELATED_VAR", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != defaultConfig().Server.Port {
		t.Errorf("unmapped env var changed config: port = %d", cfg.Server.Port)
	}
}

func TestFindConfigFileEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/custom.yaml"
	if err := os.WriteFile(path, []byte("server:\n  port: 8421\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if got := findConfigFile(); got != path {
		t.Errorf("expected %q, got %q", path, got)
	}
}

func TestAddr(t *testing.T) {
	sc := ServerConfig{Host: "127.0.0.1", Port: 8420}
	if got := sc.Addr(); got != "127.0.0.1:8420" {
		t.Errorf("Addr() = %q", got)
	}
}
