// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package ingest accepts new catalog items and runs the batch embedding
// pass that assigns each item its content vector exactly once.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/curatus/internal/metrics"
	"github.com/tomtom215/curatus/internal/models"
	"github.com/tomtom215/curatus/internal/vector"
)

const (
	defaultBatchSize = 32
	defaultWorkers   = 4
)

// catalogStore is the read/write catalog surface ingestion needs.
type catalogStore interface {
	models.Catalog
	models.CatalogWriter
}

// Service ingests items and embeds them in batches. Embedding batches run
// on a bounded worker group; catalog and index writes are serialized by
// the stores themselves.
type Service struct {
	catalog   catalogStore
	embedder  models.Embedder
	index     *vector.Store
	batchSize int
	workers   int
	logger    zerolog.Logger
}

// NewService creates an ingestion service. batchSize and workers fall back
// to defaults when non-positive.
func NewService(catalog catalogStore, embedder models.Embedder, index *vector.Store,
	batchSize, workers int, logger zerolog.Logger) *Service {

	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Service{
		catalog:   catalog,
		embedder:  embedder,
		index:     index,
		batchSize: batchSize,
		workers:   workers,
		logger:    logger.With().Str("component", "ingest").Logger(),
	}
}

// IngestBatch stores the items, embeds the ones that arrived without a
// vector, and rebuilds the index so the new items become queryable.
// Items without an id are assigned one.
func (s *Service) IngestBatch(ctx context.Context, items []models.Item) (accepted, embedded int, err error) {
	pending := make([]models.Item, 0, len(items))
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		if err := s.catalog.PutItem(ctx, items[i]); err != nil {
			return accepted, 0, fmt.Errorf("store item %s: %w", items[i].ID, err)
		}
		accepted++
		if !items[i].HasEmbedding() {
			pending = append(pending, items[i])
			continue
		}
		// Pre-embedded items must be staged too, or they stay
		// unqueryable until the next maintenance rebuild.
		if err := s.index.Upsert(items[i].ID, items[i].Embedding); err != nil {
			return accepted, 0, fmt.Errorf("index item %s: %w", items[i].ID, err)
		}
	}

	embedded, err = s.embedAll(ctx, pending)
	if err != nil {
		return accepted, embedded, err
	}

	s.index.Rebuild()
	s.logger.Info().
		Int("accepted", accepted).
		Int("embedded", embedded).
		Msg("ingested batch")
	return accepted, embedded, nil
}

// EmbedPending embeds every catalog item that has no vector yet and
// rebuilds the index when any were processed. Safe to run repeatedly;
// already-embedded items are never touched.
func (s *Service) EmbedPending(ctx context.Context) (int, error) {
	items, err := s.catalog.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan catalog: %w", err)
	}

	pending := items[:0]
	for _, item := range items {
		if !item.HasEmbedding() {
			pending = append(pending, item)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	embedded, err := s.embedAll(ctx, pending)
	if err != nil {
		return embedded, err
	}

	s.index.Rebuild()
	s.logger.Info().Int("embedded", embedded).Msg("embedded pending items")
	return embedded, nil
}

// embedAll splits items into batches and embeds them on a bounded worker
// group. Each item's vector lands in both the catalog and the index
// staging area; the caller decides when to rebuild.
func (s *Service) embedAll(ctx context.Context, items []models.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	var embedded atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for start := 0; start < len(items); start += s.batchSize {
		end := start + s.batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		g.Go(func() error {
			n, err := s.embedBatch(ctx, batch)
			embedded.Add(int64(n))
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return int(embedded.Load()), err
	}
	return int(embedded.Load()), nil
}

func (s *Service) embedBatch(ctx context.Context, batch []models.Item) (int, error) {
	start := time.Now()

	texts := make([]string, len(batch))
	for i, item := range batch {
		texts[i] = embeddingText(item)
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed batch of %d: %w", len(batch), err)
	}
	if len(vectors) != len(batch) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
	}

	for i, item := range batch {
		if err := s.catalog.SetEmbedding(ctx, item.ID, vectors[i]); err != nil {
			return i, fmt.Errorf("set embedding for %s: %w", item.ID, err)
		}
		if err := s.index.Upsert(item.ID, vectors[i]); err != nil {
			return i, fmt.Errorf("index %s: %w", item.ID, err)
		}
	}

	metrics.RecordEmbeddingBatch(len(texts), time.Since(start))
	return len(batch), nil
}

// embeddingText is the canonical text an item is embedded from.
func embeddingText(item models.Item) string {
	if item.Body == "" {
		return item.Title
	}
	return item.Title + "\n\n" + strings.TrimSpace(item.Body)
}
