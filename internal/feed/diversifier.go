// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package feed

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/tomtom215/curatus/internal/metrics"
	"github.com/tomtom215/curatus/internal/models"
)

// Diversifier runs a single greedy pass over the score-sorted list:
// unsafe items are dropped unconditionally, a category stops accepting
// after 2 items, and a content-type bucket stops accepting after
// ceil(count/2) items. Selection ends when count items are accepted or
// the list is exhausted.
//
// It then substitutes floor(count·exploration_rate) random tail positions
// with items drawn uniformly from the full catalog, independent of the
// seen-set and the already-accepted set. The substitution can reintroduce
// a duplicate or previously-seen item; that is long-standing observed
// behavior kept on purpose, pending product clarification.
type Diversifier struct {
	catalog models.Catalog
	logger  zerolog.Logger
}

// NewDiversifier creates a diversifier.
func NewDiversifier(catalog models.Catalog, logger zerolog.Logger) *Diversifier {
	return &Diversifier{
		catalog: catalog,
		logger:  logger.With().Str("component", "diversifier").Logger(),
	}
}

// Select applies the diversity caps and exploration substitution.
// explorationRate is the user's rate in [0, 1]; rng drives both the
// position sample and the catalog draw.
func (d *Diversifier) Select(ctx context.Context, scored []ScoredItem, count int,
	explorationRate float64, rng *rand.Rand) ([]ScoredItem, error) {

	accepted := d.greedyPass(scored, count)

	if err := d.substituteExploration(ctx, accepted, count, explorationRate, rng); err != nil {
		return nil, err
	}
	return accepted, nil
}

func (d *Diversifier) greedyPass(scored []ScoredItem, count int) []ScoredItem {
	typeCap := (count + 1) / 2 // ceil(count/2)

	accepted := make([]ScoredItem, 0, count)
	categoryCount := make(map[string]int)
	typeCount := make(map[models.ContentType]int)

	for _, s := range scored {
		if s.Item.Unsafe {
			metrics.FeedItemsDropped.WithLabelValues("unsafe").Inc()
			continue
		}
		if categoryCount[s.Item.Category] >= maxPerCategory {
			metrics.FeedItemsDropped.WithLabelValues("category_cap").Inc()
			continue
		}
		if typeCount[s.Item.ContentType] >= typeCap {
			metrics.FeedItemsDropped.WithLabelValues("content_type_cap").Inc()
			continue
		}

		accepted = append(accepted, s)
		categoryCount[s.Item.Category]++
		typeCount[s.Item.ContentType]++
		if len(accepted) == count {
			break
		}
	}
	return accepted
}

// substituteExploration overwrites random positions in the tail segment
// with random catalog items. Substituted entries carry no rank score.
func (d *Diversifier) substituteExploration(ctx context.Context, accepted []ScoredItem,
	count int, explorationRate float64, rng *rand.Rand) error {

	numExploration := int(float64(count) * explorationRate)
	if numExploration <= 0 || len(accepted) <= numExploration {
		return nil
	}

	tailStart := len(accepted) - numExploration
	positions := make([]int, numExploration)
	for i, p := range rng.Perm(numExploration) {
		positions[i] = tailStart + p
	}

	// Over-draw so unsafe catalog items can be skipped without leaving
	// substitution slots unfilled. Unsafe never reaches the output, even
	// through the random draw.
	randomItems, err := d.catalog.GetRandom(ctx, rng, 2*numExploration)
	if err != nil {
		return fmt.Errorf("exploration substitution: %w", err)
	}

	next := 0
	for _, item := range randomItems {
		if next >= len(positions) {
			break
		}
		if item.Unsafe {
			metrics.FeedItemsDropped.WithLabelValues("unsafe").Inc()
			continue
		}
		accepted[positions[next]] = ScoredItem{Item: item, Source: SourceExploration}
		metrics.FeedExplorationSubstitutions.Inc()
		next++
	}
	return nil
}
