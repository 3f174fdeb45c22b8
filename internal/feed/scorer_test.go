// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package feed

import (
	"math"
	"testing"

	"github.com/tomtom215/curatus/internal/models"
)

const scoreTolerance = 1e-9

func TestScoreIdenticalVectors(t *testing.T) {
	// An item whose embedding equals the preference vector contributes
	// exactly the full similarity weight.
	profile := models.NewUserProfile("reader", 0.3)
	profile.Preference = []float32{1, 0, 0, 0}

	item := models.Item{
		ID:        "match",
		Category:  "golang",
		Embedding: []float32{1, 0, 0, 0},
		AgeHours:  168, // freshness term zero
	}

	scored := NewScorer().Score(profile, []Candidate{{Item: item, Source: SourceSimilarity}})
	if len(scored) != 1 {
		t.Fatalf("scored %d items, want 1", len(scored))
	}
	if got, want := scored[0].Score, weightSimilarity; math.Abs(got-want) > scoreTolerance {
		t.Errorf("score = %v, want exactly %v (similarity term only)", got, want)
	}
}

func TestScoreComponents(t *testing.T) {
	profile := models.NewUserProfile("reader", 0.3)
	profile.Preference = []float32{1, 0}
	profile.Affinity = map[string]float64{"golang": 0.5}

	tests := []struct {
		name string
		item models.Item
		want float64
	}{
		{
			name: "all terms",
			item: models.Item{
				ID:           "a",
				Category:     "golang",
				Embedding:    []float32{1, 0},
				RawScore:     500,
				CommentCount: 50,
				UpvoteRatio:  1.0,
				AgeHours:     84,
			},
			// 0.4·1 + 0.3·(0.15+0.10+0.10) + 0.2·0.5 + 0.1·0.5
			want: 0.4 + 0.3*0.35 + 0.2*0.5 + 0.1*0.5,
		},
		{
			name: "engagement capped at one",
			item: models.Item{
				ID:           "viral",
				Category:     "other",
				RawScore:     100000,
				CommentCount: 100000,
				UpvoteRatio:  1.0,
				AgeHours:     168,
			},
			want: 0.3 * 1.0,
		},
		{
			name: "freshness clamped at zero",
			item: models.Item{
				ID:       "ancient",
				Category: "other",
				AgeHours: 10000,
			},
			want: 0,
		},
		{
			name: "missing embedding drops similarity term",
			item: models.Item{
				ID:       "unembedded",
				Category: "golang",
				AgeHours: 168,
			},
			want: 0.1 * 0.5,
		},
		{
			name: "dimension mismatch drops similarity term",
			item: models.Item{
				ID:        "wrongdim",
				Category:  "other",
				Embedding: []float32{1, 0, 0, 0},
				AgeHours:  168,
			},
			want: 0,
		},
	}

	scorer := NewScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored := scorer.Score(profile, []Candidate{{Item: tt.item}})
			if got := scored[0].Score; math.Abs(got-tt.want) > scoreTolerance {
				t.Errorf("score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreSortsDescendingStable(t *testing.T) {
	profile := models.NewUserProfile("reader", 0.3)

	// Same zero score for b and c: input order must survive the sort.
	pool := []Candidate{
		{Item: models.Item{ID: "b", AgeHours: 10000}},
		{Item: models.Item{ID: "c", AgeHours: 10000}},
		{Item: models.Item{ID: "a", AgeHours: 1, UpvoteRatio: 1}},
	}

	scored := NewScorer().Score(profile, pool)
	gotIDs := []string{scored[0].Item.ID, scored[1].Item.ID, scored[2].Item.ID}
	wantIDs := []string{"a", "b", "c"}
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Fatalf("order = %v, want %v", gotIDs, wantIDs)
		}
	}
	for i := 1; i < len(scored); i++ {
		if scored[i].Score > scored[i-1].Score {
			t.Fatalf("scores not descending: %v then %v", scored[i-1].Score, scored[i].Score)
		}
	}
}

func TestScorePreservesSource(t *testing.T) {
	profile := models.NewUserProfile("reader", 0.3)
	pool := []Candidate{
		{Item: models.Item{ID: "t"}, Source: SourceTrending},
		{Item: models.Item{ID: "s"}, Source: SourceSimilarity},
	}

	scored := NewScorer().Score(profile, pool)
	for _, s := range scored {
		switch s.Item.ID {
		case "t":
			if s.Source != SourceTrending {
				t.Errorf("item t: source = %s, want %s", s.Source, SourceTrending)
			}
		case "s":
			if s.Source != SourceSimilarity {
				t.Errorf("item s: source = %s, want %s", s.Source, SourceSimilarity)
			}
		}
	}
}
