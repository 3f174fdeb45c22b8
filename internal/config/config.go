// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package config provides centralized configuration for all Curatus
// components, loaded in layers with Koanf v2:
//
//  1. Defaults: built-in sensible defaults for every setting
//  2. Config File: optional YAML file (config.yaml) for persistent settings
//  3. Environment Variables: override any setting
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	API         APIConfig         `koanf:"api"`
	Storage     StorageConfig     `koanf:"storage"`
	Embedding   EmbeddingConfig   `koanf:"embedding"`
	Feed        FeedConfig        `koanf:"feed"`
	Maintenance MaintenanceConfig `koanf:"maintenance"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - SERVER_HOST: Bind address (default: 0.0.0.0)
//   - SERVER_PORT: Listen port (default: 8000)
//   - SERVER_TIMEOUT: Read/write timeout (default: 30s)
//   - ENVIRONMENT: "development" or "production"
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// APIConfig holds serving-layer limits.
//
// Environment Variables:
//   - API_DEFAULT_FEED_COUNT: Items returned when count is omitted (default: 20)
//   - API_MAX_FEED_COUNT: Upper bound on requested feed size (default: 100)
//   - API_RATE_LIMIT_REQS: Requests per window per IP, 0 disables (default: 100)
//   - API_RATE_LIMIT_WINDOW: Rate limit window (default: 1m)
//   - API_CORS_ORIGINS: Comma-separated allowed origins (default: *)
type APIConfig struct {
	DefaultFeedCount int           `koanf:"default_feed_count"`
	MaxFeedCount     int           `koanf:"max_feed_count"`
	RateLimitReqs    int           `koanf:"rate_limit_reqs"`
	RateLimitWindow  time.Duration `koanf:"rate_limit_window"`
	CORSOrigins      []string      `koanf:"cors_origins"`
}

// StorageConfig holds the Badger store settings for user profiles and the
// interaction log.
//
// Environment Variables:
//   - STORAGE_PATH: Badger data directory (default: /data/curatus)
//   - STORAGE_IN_MEMORY: Run Badger without disk persistence (default: false)
type StorageConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// EmbeddingConfig holds embedding pass settings. Dimension is fixed for the
// lifetime of a deployment; changing it invalidates stored vectors.
//
// Environment Variables:
//   - EMBEDDING_DIM: Vector dimension (default: 384)
//   - EMBEDDING_BATCH_SIZE: Texts per embedding batch (default: 32)
//   - EMBEDDING_WORKERS: Concurrent embedding batches (default: 4)
type EmbeddingConfig struct {
	Dimension int `koanf:"dimension"`
	BatchSize int `koanf:"batch_size"`
	Workers   int `koanf:"workers"`
}

// FeedConfig holds ranking pipeline settings.
//
// Environment Variables:
//   - FEED_POOL_SIZE: Candidate pool size N (default: 100)
//   - FEED_EXPLORATION_RATE: Default per-user exploration rate (default: 0.3)
//   - FEED_ONLINE_LEARNING: Apply incremental preference updates (default: true)
//   - FEED_CACHE_ENABLED: Cache computed feeds per user (default: false)
//   - FEED_CACHE_TTL: Feed cache lifetime (default: 1m)
//   - FEED_SEED: Random seed, 0 uses wall clock (default: 0)
type FeedConfig struct {
	PoolSize        int           `koanf:"pool_size"`
	ExplorationRate float64       `koanf:"exploration_rate"`
	OnlineLearning  bool          `koanf:"online_learning"`
	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	Seed            int64         `koanf:"seed"`
}

// MaintenanceConfig holds the background maintenance service settings.
//
// Environment Variables:
//   - MAINTENANCE_RECOMPUTE_INTERVAL: Batch preference recompute cadence (default: 1h)
//   - MAINTENANCE_REBUILD_INTERVAL: Index rebuild cadence (default: 10m)
//   - MAINTENANCE_REBUILD_ON_STARTUP: Build the index before serving (default: true)
type MaintenanceConfig struct {
	RecomputeInterval time.Duration `koanf:"recompute_interval"`
	RebuildInterval   time.Duration `koanf:"rebuild_interval"`
	RebuildOnStartup  bool          `koanf:"rebuild_on_startup"`
}

// LoggingConfig holds log output settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: Include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks that configuration values are present and coherent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateMaintenance(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	switch c.Server.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultFeedCount < 1 {
		return fmt.Errorf("API_DEFAULT_FEED_COUNT must be positive, got %d", c.API.DefaultFeedCount)
	}
	if c.API.MaxFeedCount < c.API.DefaultFeedCount {
		return fmt.Errorf("API_MAX_FEED_COUNT (%d) must be >= API_DEFAULT_FEED_COUNT (%d)",
			c.API.MaxFeedCount, c.API.DefaultFeedCount)
	}
	if c.API.RateLimitReqs < 0 {
		return fmt.Errorf("API_RATE_LIMIT_REQS must be >= 0, got %d", c.API.RateLimitReqs)
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	if c.Embedding.Dimension < 1 {
		return fmt.Errorf("EMBEDDING_DIM must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Embedding.BatchSize < 1 {
		return fmt.Errorf("EMBEDDING_BATCH_SIZE must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Embedding.Workers < 1 {
		return fmt.Errorf("EMBEDDING_WORKERS must be positive, got %d", c.Embedding.Workers)
	}
	return nil
}

func (c *Config) validateFeed() error {
	if c.Feed.PoolSize < 1 {
		return fmt.Errorf("FEED_POOL_SIZE must be positive, got %d", c.Feed.PoolSize)
	}
	if c.Feed.ExplorationRate < 0 || c.Feed.ExplorationRate > 1 {
		return fmt.Errorf("FEED_EXPLORATION_RATE must be in [0, 1], got %v", c.Feed.ExplorationRate)
	}
	if c.Feed.CacheEnabled && c.Feed.CacheTTL <= 0 {
		return fmt.Errorf("FEED_CACHE_TTL must be positive when the cache is enabled, got %s", c.Feed.CacheTTL)
	}
	return nil
}

func (c *Config) validateMaintenance() error {
	if c.Maintenance.RecomputeInterval <= 0 {
		return fmt.Errorf("MAINTENANCE_RECOMPUTE_INTERVAL must be positive, got %s", c.Maintenance.RecomputeInterval)
	}
	if c.Maintenance.RebuildInterval <= 0 {
		return fmt.Errorf("MAINTENANCE_REBUILD_INTERVAL must be positive, got %s", c.Maintenance.RebuildInterval)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
