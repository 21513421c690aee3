// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/footfall/config.yaml",
	"/etc/footfall/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are applied
// first, then overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8420,
			Timeout:     30 * time.Second,
			CORSOrigins: []string{"*"},
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:                   "/data/footfall.duckdb",
			MaxMemory:              "1GB",
			Threads:                0, // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true,
		},
		Presence: PresenceConfig{
			Path:       "", // in-memory by default
			LiveWindow: 30 * time.Second,
			GCInterval: 5 * time.Minute,
		},
		Ingest: IngestConfig{
			MaxBatchSize:        500,
			SensorRatePerSecond: 10,
			SensorRateBurst:     20,
			RetryAttempts:       1,
			RetryDelay:          100 * time.Millisecond,
		},
		Session: SessionConfig{
			Timeout:      60 * time.Second,
			ReapInterval: 30 * time.Second,
		},
		Health: HealthConfig{
			PollInterval: 30 * time.Second,
		},
		API: APIConfig{
			DefaultQueryLimit: 1000,
			MaxQueryLimit:     1000,
		},
		RateLimit: RateLimitConfig{
			Disabled:  false,
			Ingest:    600,
			Analytics: 300,
			Health:    120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using koanf with layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// FOOTFALL_SENSOR_RATE -> ingest.sensor_rate_per_second etc.
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known
// slice fields. Env vars come in as strings but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from the YAML file)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped so random environment noise cannot leak
// into the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",
		"cors_origins": "server.cors_origins",
		"environment":  "server.environment",

		// Database
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Presence store
		"presence_path":        "presence.path",
		"presence_live_window": "presence.live_window",
		"presence_gc_interval": "presence.gc_interval",

		// Ingestion
		"ingest_max_batch_size": "ingest.max_batch_size",
		"ingest_sensor_rate":    "ingest.sensor_rate_per_second",
		"ingest_sensor_burst":   "ingest.sensor_rate_burst",
		"ingest_retry_attempts": "ingest.retry_attempts",
		"ingest_retry_delay":    "ingest.retry_delay",

		// Session tracking
		"session_timeout":       "session.timeout",
		"session_reap_interval": "session.reap_interval",

		// Sensor health
		"health_poll_interval": "health.poll_interval",

		// Query API
		"api_default_query_limit": "api.default_query_limit",
		"api_max_query_limit":     "api.max_query_limit",

		// Rate limiting
		"disable_rate_limit":   "rate_limit.disabled",
		"rate_limit_ingest":    "rate_limit.ingest",
		"rate_limit_analytics": "rate_limit.analytics",
		"rate_limit_health":    "rate_limit.health",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// The caller is responsible for mutex protection when swapping configuration
// during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
