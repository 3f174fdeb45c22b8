// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package embed

import (
	"context"
	"math"
	"testing"

	"github.com/tomtom215/curatus/internal/vector"
)

func TestNewHashingEmbedderRejectsBadDimension(t *testing.T) {
	if _, err := NewHashingEmbedder(0); err == nil {
		t.Error("expected error for dimension 0")
	}
	e, err := NewHashingEmbedder(64)
	if err != nil {
		t.Fatalf("NewHashingEmbedder: %v", err)
	}
	if e.Dimension() != 64 {
		t.Errorf("Dimension() = %d, want 64", e.Dimension())
	}
}

func TestEmbedDeterministic(t *testing.T) {
	e, _ := NewHashingEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, []string{"Go concurrency patterns explained"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := e.Embed(ctx, []string{"Go concurrency patterns explained"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("embeddings differ at %d: %v vs %v", i, a[0][i], b[0][i])
		}
	}
}

func TestEmbedNormalized(t *testing.T) {
	e, _ := NewHashingEmbedder(64)
	vecs, err := e.Embed(context.Background(), []string{"some text with several tokens"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if n := vector.Norm(vecs[0]); math.Abs(n-1.0) > 1e-5 {
		t.Errorf("norm = %v, want 1", n)
	}
}

func TestEmbedSimilarTextsCloser(t *testing.T) {
	e, _ := NewHashingEmbedder(128)
	ctx := context.Background()

	vecs, err := e.Embed(ctx, []string{
		"golang channels and goroutines tutorial",
		"golang channels and goroutines deep dive",
		"sourdough bread baking hydration schedule",
	})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	similar := vector.Cosine(vecs[0], vecs[1])
	dissimilar := vector.Cosine(vecs[0], vecs[2])
	if similar <= dissimilar {
		t.Errorf("overlapping texts should score higher: similar=%v dissimilar=%v", similar, dissimilar)
	}
}

func TestEmbedEmptyText(t *testing.T) {
	e, _ := NewHashingEmbedder(32)
	vecs, err := e.Embed(context.Background(), []string{""})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if !vector.IsZero(vecs[0]) {
		t.Error("empty text should embed to the zero vector")
	}
	if len(vecs[0]) != 32 {
		t.Errorf("dimension = %d, want 32", len(vecs[0]))
	}
}

func TestEmbedHonorsContextCancellation(t *testing.T) {
	e, _ := NewHashingEmbedder(32)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Embed(ctx, []string{"a", "b"}); err == nil {
		t.Error("expected context error")
	}
}
