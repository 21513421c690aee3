// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package config loads and validates the Footfall service configuration.
//
// Configuration is layered with koanf: struct defaults first, then an
// optional YAML file, then environment variables. Environment variables win.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Footfall service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Presence  PresenceConfig  `koanf:"presence"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Session   SessionConfig   `koanf:"session"`
	Health    HealthConfig    `koanf:"health"`
	API       APIConfig       `koanf:"api"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	CORSOrigins []string      `koanf:"cors_origins"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB file path. Use ":memory:" for an in-memory database.
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// PresenceConfig holds the Badger live-presence store settings.
type PresenceConfig struct {
	// Path is the Badger directory. Empty means in-memory.
	Path string `koanf:"path"`

	// LiveWindow is how long a sighted device counts as live.
	LiveWindow time.Duration `koanf:"live_window"`

	// GCInterval is how often value-log garbage collection runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// IngestConfig holds detection-batch ingestion settings.
type IngestConfig struct {
	// MaxBatchSize caps the number of detections accepted in one batch.
	MaxBatchSize int `koanf:"max_batch_size"`

	// SensorRatePerSecond is the per-sensor token bucket refill rate.
	// Zero disables per-sensor rate limiting.
	SensorRatePerSecond float64 `koanf:"sensor_rate_per_second"`

	// SensorRateBurst is the per-sensor token bucket size.
	SensorRateBurst int `koanf:"sensor_rate_burst"`

	// RetryAttempts is how many times a transient storage failure is retried.
	RetryAttempts int `koanf:"retry_attempts"`

	// RetryDelay is the pause between retries.
	RetryDelay time.Duration `koanf:"retry_delay"`
}

// SessionConfig holds visit-session tracking settings.
type SessionConfig struct {
	// Timeout is the idle gap after which an open session is considered over.
	Timeout time.Duration `koanf:"timeout"`

	// ReapInterval is how often the reaper sweeps for expired open sessions.
	ReapInterval time.Duration `koanf:"reap_interval"`
}

// HealthConfig holds sensor health monitoring settings.
type HealthConfig struct {
	// PollInterval is how often the health snapshot is refreshed.
	PollInterval time.Duration `koanf:"poll_interval"`
}

// APIConfig holds query API settings.
type APIConfig struct {
	// DefaultQueryLimit is the row cap applied when a query has no limit.
	DefaultQueryLimit int `koanf:"default_query_limit"`

	// MaxQueryLimit is the hard row cap for any query.
	MaxQueryLimit int `koanf:"max_query_limit"`
}

// RateLimitConfig holds per-route-group HTTP rate limits (requests/minute).
type RateLimitConfig struct {
	Disabled  bool `koanf:"disabled"`
	Ingest    int  `koanf:"ingest"`
	Analytics int  `koanf:"analytics"`
	Health    int  `koanf:"health"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Session.Timeout <= 0 {
		return fmt.Errorf("session.timeout must be positive, got %s", c.Session.Timeout)
	}
	if c.Session.ReapInterval <= 0 {
		return fmt.Errorf("session.reap_interval must be positive, got %s", c.Session.ReapInterval)
	}
	if c.Presence.LiveWindow <= 0 {
		return fmt.Errorf("presence.live_window must be positive, got %s", c.Presence.LiveWindow)
	}
	if c.Ingest.MaxBatchSize < 1 {
		return fmt.Errorf("ingest.max_batch_size must be at least 1, got %d", c.Ingest.MaxBatchSize)
	}
	if c.Ingest.RetryAttempts < 0 {
		return fmt.Errorf("ingest.retry_attempts must not be negative, got %d", c.Ingest.RetryAttempts)
	}
	if c.API.DefaultQueryLimit < 1 {
		return fmt.Errorf("api.default_query_limit must be at least 1, got %d", c.API.DefaultQueryLimit)
	}
	if c.API.MaxQueryLimit < c.API.DefaultQueryLimit {
		return fmt.Errorf("api.max_query_limit (%d) must be at least api.default_query_limit (%d)",
			c.API.MaxQueryLimit, c.API.DefaultQueryLimit)
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
