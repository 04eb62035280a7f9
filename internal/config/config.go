// Package config provides centralized configuration management for the
// application. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database  DatabaseConfig
	Inference InferenceConfig
	Workers   WorkerConfig
	Logging   LoggingConfig
}

// DatabaseConfig holds connection settings for the dataset repository.
// Only store-backed commands need it; file-based inference runs without it.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of pooled connections (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections kept open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// InferenceConfig holds dataset scan settings.
type InferenceConfig struct {
	// BatchSize is the number of rows per scan batch (default: 1000)
	BatchSize int `env:"INFER_BATCH_SIZE" default:"1000"`

	// Tolerance is the default exception ratio a candidate type may carry
	// and still qualify as best fit (default: 0)
	Tolerance float64 `env:"INFER_TOLERANCE" default:"0"`

	// MaxCategories caps distinct values per categorical column (default: 100)
	MaxCategories int `env:"INFER_MAX_CATEGORIES" default:"100"`

	// NAValues is a comma-separated list of strings treated as missing
	NAValues []string `env:"INFER_NA_VALUES" default:"NA,N/A,null"`

	// ExceptionSamples bounds retained exception samples per column and
	// candidate type (default: 25)
	ExceptionSamples int `env:"INFER_EXCEPTION_SAMPLES" default:"25"`

	// CacheRows is the maximum row count cached during a scan so that
	// hint-only re-runs can skip re-reading the stream (default: 100000)
	CacheRows int `env:"INFER_CACHE_ROWS" default:"100000"`
}

// WorkerConfig holds concurrency settings.
type WorkerConfig struct {
	// PoolSize bounds column-level fan-out within a scan (default: 4)
	PoolSize int `env:"WORKER_POOL_SIZE" default:"4"`

	// MaxScans is the maximum number of concurrent dataset scans (default: 2)
	MaxScans int `env:"WORKER_MAX_SCANS" default:"2"`

	// MaxWaitTime is how long to wait for a scan slot (default: 30s)
	MaxWaitTime time.Duration `env:"WORKER_MAX_WAIT" default:"30s"`

	// ScanTimeout is the maximum duration for a single scan (default: 10m)
	ScanTimeout time.Duration `env:"WORKER_SCAN_TIMEOUT" default:"10m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Database settings are validated only when a repository is configured.
	if c.Database.URL != "" {
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
	}

	if c.Inference.BatchSize <= 0 {
		errs = append(errs, "INFER_BATCH_SIZE must be positive")
	}
	if c.Inference.Tolerance < 0 {
		errs = append(errs, "INFER_TOLERANCE must be non-negative")
	}
	if c.Inference.MaxCategories <= 0 {
		errs = append(errs, "INFER_MAX_CATEGORIES must be positive")
	}
	if c.Inference.ExceptionSamples <= 0 {
		errs = append(errs, "INFER_EXCEPTION_SAMPLES must be positive")
	}
	if c.Inference.CacheRows < 0 {
		errs = append(errs, "INFER_CACHE_ROWS must be non-negative")
	}

	if c.Workers.PoolSize <= 0 {
		errs = append(errs, "WORKER_POOL_SIZE must be positive")
	}
	if c.Workers.MaxScans <= 0 {
		errs = append(errs, "WORKER_MAX_SCANS must be positive")
	}
	if c.Workers.MaxWaitTime <= 0 {
		errs = append(errs, "WORKER_MAX_WAIT must be positive")
	}
	if c.Workers.ScanTimeout <= 0 {
		errs = append(errs, "WORKER_SCAN_TIMEOUT must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Inference: {BatchSize: %d, Tolerance: %g, MaxCategories: %d}, ",
		c.Inference.BatchSize, c.Inference.Tolerance, c.Inference.MaxCategories))
	b.WriteString(fmt.Sprintf("Workers: {PoolSize: %d, MaxScans: %d}, ",
		c.Workers.PoolSize, c.Workers.MaxScans))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
