// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package feed

import (
	"sort"

	"github.com/tomtom215/curatus/internal/models"
	"github.com/tomtom215/curatus/internal/vector"
)

// Scorer assigns each candidate a scalar rank score:
//
//	score = 0.4·cosine(profile, item)     (0 if either vector missing)
//	      + 0.3·min(engagement, 1)
//	      + 0.2·freshness
//	      + 0.1·affinity_weight(category)
//
//	engagement = 0.3·(raw_score/1000) + 0.2·(comments/100) + 0.1·upvote_ratio
//	freshness  = max(0, 1 − age_hours/168)
type Scorer struct{}

// NewScorer creates a scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes rank scores and returns candidates sorted by score
// descending. The sort is stable: equal scores keep their pre-sort
// relative order.
func (s *Scorer) Score(profile *models.UserProfile, pool []Candidate) []ScoredItem {
	out := make([]ScoredItem, len(pool))
	for i, c := range pool {
		out[i] = ScoredItem{
			Item:   c.Item,
			Source: c.Source,
			Score:  s.scoreOne(profile, c.Item),
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func (s *Scorer) scoreOne(profile *models.UserProfile, item models.Item) float64 {
	var score float64

	// Similarity term. Preference vectors are unit-norm or zero, item
	// embeddings unit-norm, so the inner product is cosine similarity.
	if profile != nil && len(profile.Preference) > 0 && item.HasEmbedding() &&
		len(profile.Preference) == len(item.Embedding) {
		score += weightSimilarity * vector.Dot(profile.Preference, item.Embedding)
	}

	engagement := 0.3*(item.RawScore/1000) +
		0.2*(float64(item.CommentCount)/100) +
		0.1*item.UpvoteRatio
	if engagement > 1 {
		engagement = 1
	}
	score += weightEngagement * engagement

	freshness := 1 - item.AgeHours/freshnessHorizonHours
	if freshness < 0 {
		freshness = 0
	}
	score += weightFreshness * freshness

	if profile != nil && len(profile.Affinity) > 0 {
		score += weightAffinity * profile.Affinity[item.Category]
	}

	return score
}
