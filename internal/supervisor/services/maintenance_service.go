// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Maintainer is the pipeline surface the maintenance loop drives. Defined
// here to avoid importing the feed package from the supervision layer.
type Maintainer interface {
	// RebuildIndex reconstructs the vector index from the catalog.
	RebuildIndex(ctx context.Context) (int, error)

	// RecomputeAll replays interaction history into every profile.
	RecomputeAll(ctx context.Context) error
}

// MaintenanceServiceConfig holds the background maintenance cadences.
type MaintenanceServiceConfig struct {
	// RebuildOnStartup builds the index before the first tick so cold
	// deployments serve similarity candidates immediately.
	RebuildOnStartup bool

	// RebuildInterval is the index rebuild cadence.
	RebuildInterval time.Duration

	// RecomputeInterval is the batch preference recompute cadence.
	RecomputeInterval time.Duration
}

// MaintenanceService runs the periodic index rebuild and preference
// recompute loops under supervision. Failures are logged and retried on
// the next tick; a persistent panic bubbles to suture for backoff.
type MaintenanceService struct {
	maintainer Maintainer
	config     MaintenanceServiceConfig
	logger     zerolog.Logger
	name       string
}

// NewMaintenanceService creates the maintenance loop service.
func NewMaintenanceService(maintainer Maintainer, cfg MaintenanceServiceConfig, logger zerolog.Logger) *MaintenanceService {
	if cfg.RebuildInterval <= 0 {
		cfg.RebuildInterval = 10 * time.Minute
	}
	if cfg.RecomputeInterval <= 0 {
		cfg.RecomputeInterval = time.Hour
	}
	return &MaintenanceService{
		maintainer: maintainer,
		config:     cfg,
		logger:     logger.With().Str("service", "maintenance").Logger(),
		name:       "maintenance-service",
	}
}

// Serve implements the suture.Service interface.
func (s *MaintenanceService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("rebuild_on_startup", s.config.RebuildOnStartup).
		Dur("rebuild_interval", s.config.RebuildInterval).
		Dur("recompute_interval", s.config.RecomputeInterval).
		Msg("maintenance service starting")

	if s.config.RebuildOnStartup {
		s.rebuild(ctx)
	}

	rebuildTicker := time.NewTicker(s.config.RebuildInterval)
	defer rebuildTicker.Stop()
	recomputeTicker := time.NewTicker(s.config.RecomputeInterval)
	defer recomputeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("maintenance service stopping")
			return ctx.Err()
		case <-rebuildTicker.C:
			s.rebuild(ctx)
		case <-recomputeTicker.C:
			s.recompute(ctx)
		}
	}
}

func (s *MaintenanceService) rebuild(ctx context.Context) {
	size, err := s.maintainer.RebuildIndex(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("index rebuild failed, retrying on next tick")
		return
	}
	s.logger.Debug().Int("size", size).Msg("index rebuilt")
}

func (s *MaintenanceService) recompute(ctx context.Context) {
	if err := s.maintainer.RecomputeAll(ctx); err != nil {
		s.logger.Error().Err(err).Msg("batch preference recompute failed, retrying on next tick")
		return
	}
	s.logger.Debug().Msg("preference profiles recomputed")
}

// String identifies the service in suture log messages.
func (s *MaintenanceService) String() string {
	return s.name
}
