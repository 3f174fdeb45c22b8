// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package feed

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/curatus/internal/metrics"
	"github.com/tomtom215/curatus/internal/models"
	"github.com/tomtom215/curatus/internal/preference"
	"github.com/tomtom215/curatus/internal/vector"
)

// Pipeline sequences candidate generation, scoring, and diversification
// into one request-scoped call, and exposes the feedback and maintenance
// entry points. Feed computation only reads shared state and is fully
// parallelizable across users; profile mutation serializes inside the
// preference tracker.
type Pipeline struct {
	cfg         Config
	tracker     *preference.Tracker
	catalog     models.Catalog
	log         models.InteractionLog
	index       *vector.Store
	generator   *Generator
	scorer      *Scorer
	diversifier *Diversifier

	rngMu sync.Mutex
	seeds *rand.Rand

	cache  *ttlCache
	logger zerolog.Logger
}

// NewPipeline wires the pipeline stages. The index is the similarity
// store the pipeline owns for maintenance rebuilds.
func NewPipeline(cfg Config, tracker *preference.Tracker, catalog models.Catalog,
	log models.InteractionLog, index *vector.Store, logger zerolog.Logger) *Pipeline {

	cfg.applyDefaults()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	p := &Pipeline{
		cfg:         cfg,
		tracker:     tracker,
		catalog:     catalog,
		log:         log,
		index:       index,
		generator:   NewGenerator(catalog, index, logger),
		scorer:      NewScorer(),
		diversifier: NewDiversifier(catalog, logger),
		seeds:       rand.New(rand.NewSource(seed)),
		logger:      logger.With().Str("component", "feed_pipeline").Logger(),
	}
	if cfg.CacheEnabled {
		p.cache = newTTLCache(cfg.CacheTTL)
	}
	return p
}

// newRNG derives an independent random source for one request.
func (p *Pipeline) newRNG() *rand.Rand {
	p.rngMu.Lock()
	seed := p.seeds.Int63()
	p.rngMu.Unlock()
	return rand.New(rand.NewSource(seed))
}

// ComputeFeed returns an ordered feed of up to count items for the user.
// Unknown users are not an error: they get a cold-start profile and the
// popularity fallback. An empty candidate pool yields an empty list.
func (p *Pipeline) ComputeFeed(ctx context.Context, userID string, count int) ([]ScoredItem, error) {
	if count <= 0 {
		count = p.cfg.DefaultCount
	}
	start := time.Now()

	cacheKey := fmt.Sprintf("%s|%d", userID, count)
	if p.cache != nil {
		if items, ok := p.cache.get(cacheKey); ok {
			metrics.FeedCacheHits.Inc()
			return items, nil
		}
		metrics.FeedCacheMisses.Inc()
	}

	profile, err := p.tracker.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile for %s: %w", userID, err)
	}

	seen, err := p.seenSet(ctx, profile)
	if err != nil {
		return nil, err
	}

	rng := p.newRNG()
	pool, coldStart, err := p.generator.Generate(ctx, profile, seen, p.cfg.PoolSize, rng)
	if err != nil {
		return nil, fmt.Errorf("generate candidates for %s: %w", userID, err)
	}

	var final []ScoredItem
	switch {
	case len(pool) == 0:
		// Presenting anything else to the user is the serving layer's
		// call, not the pipeline's.
		final = []ScoredItem{}
	case coldStart:
		// The fallback pool is already ordered by raw score; scoring or
		// diversifying it would reshuffle a list defined by popularity.
		if len(pool) > count {
			pool = pool[:count]
		}
		final = make([]ScoredItem, len(pool))
		for i, c := range pool {
			final[i] = ScoredItem{Item: c.Item, Source: c.Source, Score: c.Item.RawScore}
		}
	default:
		scored := p.scorer.Score(profile, pool)
		final, err = p.diversifier.Select(ctx, scored, count, profile.ExplorationRate, rng)
		if err != nil {
			return nil, fmt.Errorf("diversify feed for %s: %w", userID, err)
		}
	}

	if p.cache != nil {
		p.cache.set(cacheKey, final)
	}

	metrics.RecordFeedComputation(coldStart, time.Since(start))
	p.logger.Debug().
		Str("user_id", userID).
		Int("count", count).
		Int("returned", len(final)).
		Bool("cold_start", coldStart).
		Dur("elapsed", time.Since(start)).
		Msg("computed feed")
	return final, nil
}

// seenSet builds the set of item ids the user has already interacted
// with. Cold profiles have no history worth loading.
func (p *Pipeline) seenSet(ctx context.Context, profile *models.UserProfile) (map[string]bool, error) {
	if profile.IsCold() {
		return nil, nil
	}

	events, err := p.log.GetByUser(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("load interactions for %s: %w", profile.ID, err)
	}

	seen := make(map[string]bool, len(events))
	for _, e := range events {
		seen[e.ItemID] = true
	}
	return seen, nil
}

// RecordFeedback applies one feedback event through the preference
// tracker. Unknown users or items surface as not-found errors and leave
// all state untouched.
func (p *Pipeline) RecordFeedback(ctx context.Context, event models.InteractionEvent) error {
	if err := p.tracker.Apply(ctx, event); err != nil {
		return err
	}
	if p.cache != nil {
		p.cache.invalidateUser(event.UserID)
	}
	return nil
}

// RebuildIndex reconstructs the vector index from every embedded catalog
// item. It runs off the request path: in-flight feed computations keep
// reading the previous snapshot until the swap.
func (p *Pipeline) RebuildIndex(ctx context.Context) (int, error) {
	start := time.Now()

	items, err := p.catalog.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog for rebuild: %w", err)
	}

	var indexed int
	for _, item := range items {
		if !item.HasEmbedding() {
			continue
		}
		if err := p.index.Upsert(item.ID, item.Embedding); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", item.ID, err)
		}
		indexed++
	}

	size := p.index.Rebuild()
	if p.cache != nil {
		p.cache.purge()
	}

	metrics.RecordIndexRebuild(size, time.Since(start))
	p.logger.Info().
		Int("indexed", indexed).
		Int("size", size).
		Dur("elapsed", time.Since(start)).
		Msg("rebuilt vector index")
	return size, nil
}

// RecomputeAll replays the interaction log into every stored profile and
// drops cached feeds, which were computed against the old profiles.
func (p *Pipeline) RecomputeAll(ctx context.Context) error {
	if err := p.tracker.RecomputeAll(ctx); err != nil {
		return err
	}
	if p.cache != nil {
		p.cache.purge()
	}
	return nil
}

// IndexSize returns the current snapshot size, for health reporting.
func (p *Pipeline) IndexSize() int {
	return p.index.Size()
}

// ttlCache is a small per-user feed response cache. Entries expire after
// a fixed TTL and are invalidated on feedback and on index rebuilds.
type ttlCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	items   []ScoredItem
	expires time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *ttlCache) get(key string) ([]ScoredItem, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}

	out := make([]ScoredItem, len(entry.items))
	copy(out, entry.items)
	return out, true
}

func (c *ttlCache) set(key string, items []ScoredItem) {
	stored := make([]ScoredItem, len(items))
	copy(stored, items)

	c.mu.Lock()
	c.entries[key] = cacheEntry{items: stored, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// invalidateUser drops all cached feeds for one user. Keys are
// "userID|count", so a prefix match on "userID|" suffices.
func (c *ttlCache) invalidateUser(userID string) {
	prefix := userID + "|"
	c.mu.Lock()
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

func (c *ttlCache) purge() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
