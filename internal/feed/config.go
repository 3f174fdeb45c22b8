// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package feed

import "time"

// Strategy shares of the candidate pool. The four shares partition the
// pool target; each strategy's budget is the floor of its share.
const (
	similarityShare  = 0.4
	trendingShare    = 0.3
	affinityShare    = 0.2
	explorationShare = 0.1

	// trendingMaxAgeHours bounds the trending window.
	trendingMaxAgeHours = 48.0

	// affinityTopCategories is how many of the user's strongest
	// categories the affinity strategy reads.
	affinityTopCategories = 3

	// affinityPerCategory caps items pulled per category.
	affinityPerCategory = 10
)

// Scoring weights. Deliberately heuristic; the sub-terms need not sum to
// a fixed maximum.
const (
	weightSimilarity = 0.4
	weightEngagement = 0.3
	weightFreshness  = 0.2
	weightAffinity   = 0.1

	// freshnessHorizonHours is the linear decay horizon (one week).
	freshnessHorizonHours = 168.0
)

// Diversity caps applied by the selector.
const (
	// maxPerCategory caps accepted items sharing one category.
	maxPerCategory = 2
)

// Config holds the orchestrator's tunables. Zero values are filled in by
// applyDefaults.
type Config struct {
	// PoolSize is the candidate pool target N.
	PoolSize int

	// DefaultCount is the feed length when the caller passes count <= 0.
	DefaultCount int

	// CacheEnabled turns on the per-user TTL response cache.
	CacheEnabled bool

	// CacheTTL is the cache entry lifetime.
	CacheTTL time.Duration

	// Seed seeds the pipeline's random source; 0 uses the wall clock.
	Seed int64
}

func (c *Config) applyDefaults() {
	if c.PoolSize <= 0 {
		c.PoolSize = 100
	}
	if c.DefaultCount <= 0 {
		c.DefaultCount = 10
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Minute
	}
}
