// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package feed

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/curatus/internal/metrics"
	"github.com/tomtom215/curatus/internal/models"
	"github.com/tomtom215/curatus/internal/vector"
)

// Generator assembles the candidate pool from four retrieval strategies:
// vector similarity, trending velocity, category affinity, and uniform
// exploration. Results concatenate in that priority order, deduplicate by
// id (first occurrence wins), and truncate to the pool target.
//
// Every strategy excludes items already in the user's seen-set. A new
// user (zero preference vector, empty affinity map) skips all four
// strategies; the generator instead returns the top-N items by raw score,
// the sole path permitted to ignore the seen-set.
type Generator struct {
	catalog models.Catalog
	index   SimilarityIndex
	logger  zerolog.Logger
}

// NewGenerator creates a candidate generator.
func NewGenerator(catalog models.Catalog, index SimilarityIndex, logger zerolog.Logger) *Generator {
	return &Generator{
		catalog: catalog,
		index:   index,
		logger:  logger.With().Str("component", "candidate_generator").Logger(),
	}
}

// Generate returns the deduplicated candidate pool of up to poolSize items
// and reports whether the new-user fallback path produced it. The rng
// drives the exploration strategy only.
func (g *Generator) Generate(ctx context.Context, profile *models.UserProfile,
	seen map[string]bool, poolSize int, rng *rand.Rand) ([]Candidate, bool, error) {

	if profile == nil || profile.IsCold() {
		pool, err := g.fallback(ctx, poolSize)
		return pool, true, err
	}

	var pool []Candidate

	similar, err := g.bySimilarity(ctx, profile, seen, int(float64(poolSize)*similarityShare))
	if err != nil {
		return nil, false, err
	}
	pool = append(pool, similar...)

	trending, err := g.byTrending(ctx, seen, int(float64(poolSize)*trendingShare))
	if err != nil {
		return nil, false, err
	}
	pool = append(pool, trending...)

	affinity, err := g.byAffinity(ctx, profile, seen)
	if err != nil {
		return nil, false, err
	}
	pool = append(pool, affinity...)

	exploration, err := g.byExploration(ctx, seen, int(float64(poolSize)*explorationShare), rng)
	if err != nil {
		return nil, false, err
	}
	pool = append(pool, exploration...)

	metrics.FeedCandidatesGenerated.WithLabelValues(string(SourceSimilarity)).Observe(float64(len(similar)))
	metrics.FeedCandidatesGenerated.WithLabelValues(string(SourceTrending)).Observe(float64(len(trending)))
	metrics.FeedCandidatesGenerated.WithLabelValues(string(SourceAffinity)).Observe(float64(len(affinity)))
	metrics.FeedCandidatesGenerated.WithLabelValues(string(SourceExploration)).Observe(float64(len(exploration)))

	pool = dedupe(pool)
	if len(pool) > poolSize {
		pool = pool[:poolSize]
	}
	metrics.FeedPoolSize.Observe(float64(len(pool)))

	g.logger.Debug().
		Str("user_id", profile.ID).
		Int("similarity", len(similar)).
		Int("trending", len(trending)).
		Int("affinity", len(affinity)).
		Int("exploration", len(exploration)).
		Int("pool", len(pool)).
		Msg("generated candidates")
	return pool, false, nil
}

// fallback returns the top-n items by raw popularity score, ties broken by
// catalog iteration order.
func (g *Generator) fallback(ctx context.Context, n int) ([]Candidate, error) {
	items, err := g.catalog.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog for fallback: %w", err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RawScore > items[j].RawScore
	})
	if len(items) > n {
		items = items[:n]
	}

	pool := make([]Candidate, len(items))
	for i, item := range items {
		pool[i] = Candidate{Item: item, Source: SourceFallback}
	}
	metrics.FeedCandidatesGenerated.WithLabelValues(string(SourceFallback)).Observe(float64(len(pool)))
	return pool, nil
}

// bySimilarity queries the vector index on the user's preference vector.
// Users whose vector is still zero contribute nothing here.
func (g *Generator) bySimilarity(ctx context.Context, profile *models.UserProfile, seen map[string]bool, k int) ([]Candidate, error) {
	if k <= 0 || vector.IsZero(profile.Preference) {
		return nil, nil
	}

	hits := g.index.Query(profile.Preference, k, func(id string) bool {
		return !seen[id]
	})

	out := make([]Candidate, 0, len(hits))
	for _, hit := range hits {
		item, err := g.catalog.GetByID(ctx, hit.ID)
		if err != nil {
			// Index entry whose backing item no longer exists.
			continue
		}
		out = append(out, Candidate{Item: *item, Source: SourceSimilarity})
	}
	return out, nil
}

// byTrending pulls recent items ranked by score velocity. The catalog call
// over-fetches so seen-set filtering still fills the budget.
func (g *Generator) byTrending(ctx context.Context, seen map[string]bool, n int) ([]Candidate, error) {
	if n <= 0 {
		return nil, nil
	}

	items, err := g.catalog.GetRecentByVelocity(ctx, trendingMaxAgeHours, n+len(seen))
	if err != nil {
		return nil, fmt.Errorf("trending candidates: %w", err)
	}

	var out []Candidate
	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		out = append(out, Candidate{Item: item, Source: SourceTrending})
		if len(out) == n {
			break
		}
	}
	return out, nil
}

// byAffinity pulls the highest-raw-score items from the user's strongest
// categories.
func (g *Generator) byAffinity(ctx context.Context, profile *models.UserProfile, seen map[string]bool) ([]Candidate, error) {
	if len(profile.Affinity) == 0 {
		return nil, nil
	}

	categories := topCategories(profile.Affinity, affinityTopCategories)

	var out []Candidate
	for _, category := range categories {
		items, err := g.catalog.GetTopByCategory(ctx, category, affinityPerCategory+len(seen))
		if err != nil {
			return nil, fmt.Errorf("affinity candidates for %s: %w", category, err)
		}
		taken := 0
		for _, item := range items {
			if seen[item.ID] {
				continue
			}
			out = append(out, Candidate{Item: item, Source: SourceAffinity})
			taken++
			if taken == affinityPerCategory {
				break
			}
		}
	}
	return out, nil
}

// byExploration draws a uniform random sample over the catalog.
func (g *Generator) byExploration(ctx context.Context, seen map[string]bool, n int, rng *rand.Rand) ([]Candidate, error) {
	if n <= 0 {
		return nil, nil
	}

	items, err := g.catalog.GetRandom(ctx, rng, n+len(seen))
	if err != nil {
		return nil, fmt.Errorf("exploration candidates: %w", err)
	}

	var out []Candidate
	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		out = append(out, Candidate{Item: item, Source: SourceExploration})
		if len(out) == n {
			break
		}
	}
	return out, nil
}

// topCategories returns up to n category names ordered by weight
// descending, names ascending on ties so the cut is deterministic.
func topCategories(affinity map[string]float64, n int) []string {
	type entry struct {
		category string
		weight   float64
	}
	entries := make([]entry, 0, len(affinity))
	for c, w := range affinity {
		entries = append(entries, entry{c, w})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].weight != entries[j].weight {
			return entries[i].weight > entries[j].weight
		}
		return entries[i].category < entries[j].category
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.category
	}
	return out
}

// dedupe removes duplicate item ids, keeping the first occurrence.
func dedupe(pool []Candidate) []Candidate {
	seen := make(map[string]bool, len(pool))
	out := pool[:0]
	for _, c := range pool {
		if seen[c.Item.ID] {
			continue
		}
		seen[c.Item.ID] = true
		out = append(out, c)
	}
	return out
}
