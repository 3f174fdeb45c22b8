// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

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

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/curatus/config.yaml",
	"/etc/curatus/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			DefaultFeedCount: 20,
			MaxFeedCount:     100,
			RateLimitReqs:    100,
			RateLimitWindow:  time.Minute,
			CORSOrigins:      []string{"*"},
		},
		Storage: StorageConfig{
			Path:     "/data/curatus",
			InMemory: false,
		},
		Embedding: EmbeddingConfig{
			Dimension: 384,
			BatchSize: 32,
			Workers:   4,
		},
		Feed: FeedConfig{
			PoolSize:        100,
			ExplorationRate: 0.3,
			OnlineLearning:  true,
			CacheEnabled:    false,
			CacheTTL:        time.Minute,
			Seed:            0, // 0 = wall clock
		},
		Maintenance: MaintenanceConfig{
			RecomputeInterval: time.Hour,
			RebuildInterval:   10 * time.Minute,
			RebuildOnStartup:  true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in defaults from defaultConfig
//  2. Config File: optional YAML file (if found)
//  3. Environment Variables: highest priority
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

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

// findConfigFile returns the first config file found, or empty string.
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

// sliceConfigPaths defines which config paths parse as comma-separated slices.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated env strings to slices for
// known slice fields. YAML-sourced values arrive as slices already.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
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
	return nil
}

// envMappings maps environment variable names to koanf config paths.
// Unmapped variables are ignored so unrelated env vars never leak in.
var envMappings = map[string]string{
	"server_host":    "server.host",
	"server_port":    "server.port",
	"server_timeout": "server.timeout",
	"environment":    "server.environment",

	"api_default_feed_count": "api.default_feed_count",
	"api_max_feed_count":     "api.max_feed_count",
	"api_rate_limit_reqs":    "api.rate_limit_reqs",
	"api_rate_limit_window":  "api.rate_limit_window",
	"api_cors_origins":       "api.cors_origins",

	"storage_path":      "storage.path",
	"storage_in_memory": "storage.in_memory",

	"embedding_dim":        "embedding.dimension",
	"embedding_batch_size": "embedding.batch_size",
	"embedding_workers":    "embedding.workers",

	"feed_pool_size":        "feed.pool_size",
	"feed_exploration_rate": "feed.exploration_rate",
	"feed_online_learning":  "feed.online_learning",
	"feed_cache_enabled":    "feed.cache_enabled",
	"feed_cache_ttl":        "feed.cache_ttl",
	"feed_seed":             "feed.seed",

	"maintenance_recompute_interval": "maintenance.recompute_interval",
	"maintenance_rebuild_interval":   "maintenance.rebuild_interval",
	"maintenance_rebuild_on_startup": "maintenance.rebuild_on_startup",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - SERVER_PORT -> server.port
//   - EMBEDDING_DIM -> embedding.dimension
//   - FEED_EXPLORATION_RATE -> feed.exploration_rate
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
