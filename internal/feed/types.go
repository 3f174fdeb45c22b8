// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package feed implements the ranking pipeline: candidate generation,
// scoring, diversity-constrained selection, and the orchestrator that
// sequences them per request and exposes the feedback entry point.
package feed

import (
	"github.com/tomtom215/curatus/internal/models"
	"github.com/tomtom215/curatus/internal/vector"
)

// Source names the candidate strategy that produced an item.
type Source string

const (
	SourceSimilarity  Source = "similarity"
	SourceTrending    Source = "trending"
	SourceAffinity    Source = "affinity"
	SourceExploration Source = "exploration"
	SourceFallback    Source = "fallback"
)

// Candidate is a pipeline-local pairing of an item with its provenance.
// Never persisted.
type Candidate struct {
	Item   models.Item
	Source Source
}

// ScoredItem is a candidate with its scalar rank score.
type ScoredItem struct {
	Item   models.Item
	Source Source
	Score  float64
}

// SimilarityIndex is the read surface of the vector store the generator
// consumes.
type SimilarityIndex interface {
	// Query returns up to k nearest entries by cosine similarity,
	// skipping ids rejected by the filter.
	Query(query []float32, k int, filter func(id string) bool) []vector.Result

	// Built reports whether the index has been constructed yet.
	Built() bool
}
