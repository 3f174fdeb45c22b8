// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package storage provides the persistence layer: a Badger-backed user
// profile store and interaction log, plus in-memory implementations of the
// catalog and the same contracts for tests and small deployments.
package storage

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/curatus/internal/config"
)

// Open opens the Badger database per the storage configuration.
// The caller owns the returned handle and must Close it on shutdown.
func Open(cfg config.StorageConfig, logger zerolog.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithLogger(badgerLogger{logger.With().Str("component", "badger").Logger()})
	if cfg.InMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", cfg.Path, err)
	}
	return db, nil
}

// badgerLogger adapts zerolog to badger.Logger. Badger's INFO output is
// chatty, so it is mapped down to debug.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}
