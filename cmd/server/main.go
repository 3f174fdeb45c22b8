// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package main is the entry point for the Curatus server.
//
// Curatus serves personalized content feeds: candidate generation over a
// vector similarity index, composite scoring, and diversity-constrained
// selection, with per-user preference learning from explicit feedback.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and config file (Koanf v2)
//  2. Storage: BadgerDB stores for user profiles and the interaction log
//  3. Embedding: the content embedder and the in-memory vector index
//  4. Ranking: preference tracker and the feed pipeline
//  5. HTTP server: REST API under /api/v1 plus /healthz and /metrics
//  6. Supervision: Suture tree running the HTTP server and the
//     background maintenance loops (index rebuild, preference recompute)
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (config.yaml),
// built-in defaults. See internal/config for the full variable list.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, drains in-flight requests (10s timeout), stops
// the maintenance loops, and closes the Badger store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/curatus/internal/api"
	"github.com/tomtom215/curatus/internal/config"
	"github.com/tomtom215/curatus/internal/embed"
	"github.com/tomtom215/curatus/internal/feed"
	"github.com/tomtom215/curatus/internal/ingest"
	"github.com/tomtom215/curatus/internal/logging"
	"github.com/tomtom215/curatus/internal/preference"
	"github.com/tomtom215/curatus/internal/storage"
	"github.com/tomtom215/curatus/internal/supervisor"
	"github.com/tomtom215/curatus/internal/supervisor/services"
	"github.com/tomtom215/curatus/internal/vector"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logging.Info().
		Str("version", version).
		Int("port", cfg.Server.Port).
		Int("embedding_dim", cfg.Embedding.Dimension).
		Bool("storage_in_memory", cfg.Storage.InMemory).
		Msg("Starting Curatus")

	// Badger holds user profiles and the append-only interaction log.
	db, err := storage.Open(cfg.Storage, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()

	profiles := storage.NewBadgerProfileStore(db)
	interactions := storage.NewBadgerInteractionLog(db)

	// The catalog is rebuilt from ingestion on every start; items are
	// re-ingested by the upstream fetcher rather than persisted locally.
	catalog := storage.NewMemoryCatalog()

	embedder, err := embed.NewHashingEmbedder(cfg.Embedding.Dimension)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create embedder")
	}
	index := vector.New(cfg.Embedding.Dimension, logger)

	tracker := preference.New(profiles, interactions, catalog,
		cfg.Feed.ExplorationRate, cfg.Feed.OnlineLearning, logger)

	pipeline := feed.NewPipeline(feed.Config{
		PoolSize:     cfg.Feed.PoolSize,
		DefaultCount: cfg.API.DefaultFeedCount,
		CacheEnabled: cfg.Feed.CacheEnabled,
		CacheTTL:     cfg.Feed.CacheTTL,
		Seed:         cfg.Feed.Seed,
	}, tracker, catalog, interactions, index, logger)

	ingestSvc := ingest.NewService(catalog, embedder, index,
		cfg.Embedding.BatchSize, cfg.Embedding.Workers, logger)

	handler := api.NewHandler(pipeline, tracker, ingestSvc, catalog,
		cfg.API.DefaultFeedCount, cfg.API.MaxFeedCount, version, logger)
	router := api.NewRouter(handler, cfg.API, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))
	tree.AddMaintenanceService(services.NewMaintenanceService(pipeline, services.MaintenanceServiceConfig{
		RebuildOnStartup:  cfg.Maintenance.RebuildOnStartup,
		RebuildInterval:   cfg.Maintenance.RebuildInterval,
		RecomputeInterval: cfg.Maintenance.RecomputeInterval,
	}, logger))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Curatus stopped gracefully")
}
