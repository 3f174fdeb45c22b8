// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package embed provides the embedding function used during content
// ingestion. The ranking core treats the embedder as a fixed black box:
// it is never trained or updated, only called in batches.
//
// HashingEmbedder is a deterministic feature-hashing implementation.
// It produces stable, L2-normalized vectors where texts sharing tokens
// land near each other, which is enough for development, tests, and
// small deployments. Production setups plug a model-server-backed
// implementation of models.Embedder instead.
package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/tomtom215/curatus/internal/vector"
)

// HashingEmbedder maps tokens to dimensions with FNV-1a and accumulates
// signed counts, then L2-normalizes. Deterministic across processes.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder creates an embedder producing vectors of the given
// dimension.
func NewHashingEmbedder(dim int) (*HashingEmbedder, error) {
	if dim < 1 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	return &HashingEmbedder{dim: dim}, nil
}

// Dimension returns the fixed output vector dimension.
func (e *HashingEmbedder) Dimension() int {
	return e.dim
}

// Embed maps each text to a normalized vector. Embedding the same text
// always yields the same vector. Empty or token-free texts produce the
// zero vector.
func (e *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *HashingEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dim)
	for _, tok := range tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dim))
		// Second hash bit picks the sign so frequent tokens do not all
		// push the same direction.
		if sum&(1<<63) != 0 {
			vec[idx] -= 1
		} else {
			vec[idx] += 1
		}
	}
	return vector.Normalize(vec)
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
