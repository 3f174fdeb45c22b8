// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package vector implements the in-memory similarity index that backs
// candidate generation. Vectors are L2-normalized at insert time so inner
// product equals cosine similarity at query time.
//
// The index separates a mutable staging area from an immutable queryable
// snapshot. Upsert writes to staging only; Rebuild compacts staging into a
// new snapshot and swaps it in atomically. Queries read the snapshot
// lock-free and never observe a partially built state.
package vector

import (
	"container/heap"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Result is a single nearest-neighbor hit.
type Result struct {
	ID    string
	Score float64
}

// snapshot is the immutable queryable state. Slices are parallel:
// vectors[i] belongs to ids[i].
type snapshot struct {
	ids     []string
	vectors [][]float32
}

// Store is a flat cosine-similarity index with copy-on-write snapshots.
// Reads are lock-free; Upsert and Rebuild serialize on a write mutex.
type Store struct {
	dim   int
	state atomic.Value // holds *snapshot, nil until first Rebuild

	mu      sync.Mutex // guards staging
	staging map[string][]float32

	warnOnce sync.Once
	logger   zerolog.Logger
}

// New creates an empty store for vectors of the given dimension.
func New(dim int, logger zerolog.Logger) *Store {
	return &Store{
		dim:     dim,
		staging: make(map[string][]float32),
		logger:  logger.With().Str("component", "vector_store").Logger(),
	}
}

// Upsert stages a vector under the given id, replacing any staged entry.
// The vector is normalized on the way in. The queryable snapshot is not
// affected until the next Rebuild.
func (s *Store) Upsert(id string, vec []float32) error {
	if len(vec) != s.dim {
		return fmt.Errorf("vector dimension %d does not match index dimension %d", len(vec), s.dim)
	}

	s.mu.Lock()
	s.staging[id] = Normalize(vec)
	s.mu.Unlock()
	return nil
}

// Remove deletes a staged entry. The snapshot keeps serving the old vector
// until the next Rebuild.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	delete(s.staging, id)
	s.mu.Unlock()
}

// Rebuild compacts the staging area into a new immutable snapshot and
// swaps it in. Returns the snapshot size. Safe to call concurrently with
// queries; in-flight queries keep reading the previous snapshot.
func (s *Store) Rebuild() int {
	s.mu.Lock()
	snap := &snapshot{
		ids:     make([]string, 0, len(s.staging)),
		vectors: make([][]float32, 0, len(s.staging)),
	}
	for id, vec := range s.staging {
		snap.ids = append(snap.ids, id)
		snap.vectors = append(snap.vectors, vec)
	}
	s.mu.Unlock()

	s.state.Store(snap)
	s.logger.Info().Int("size", len(snap.ids)).Msg("index rebuilt")
	return len(snap.ids)
}

// Built reports whether at least one Rebuild has completed.
func (s *Store) Built() bool {
	return s.state.Load() != nil
}

// Size returns the number of vectors in the current snapshot.
func (s *Store) Size() int {
	snap, _ := s.state.Load().(*snapshot)
	if snap == nil {
		return 0
	}
	return len(snap.ids)
}

// Pending returns the number of staged vectors awaiting the next Rebuild.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.staging)
}

// Query returns up to k entries most similar to the query vector, ordered
// by descending cosine similarity. Entries for which filter returns false
// are skipped; a nil filter admits everything.
//
// A query before the first Rebuild returns an empty result and logs a
// warning. It never triggers a build inline. A query whose dimension does
// not match the index dimension is answered empty as well.
func (s *Store) Query(query []float32, k int, filter func(id string) bool) []Result {
	if k <= 0 {
		return nil
	}
	if len(query) != s.dim {
		s.logger.Warn().
			Int("query_dim", len(query)).
			Int("index_dim", s.dim).
			Msg("query dimension does not match index dimension, returning empty result")
		return nil
	}

	snap, _ := s.state.Load().(*snapshot)
	if snap == nil {
		s.warnOnce.Do(func() {
			s.logger.Warn().Msg("query before first index build, returning empty result")
		})
		return nil
	}

	q := Normalize(query)

	h := make(resultHeap, 0, k)
	for i, vec := range snap.vectors {
		if filter != nil && !filter(snap.ids[i]) {
			continue
		}
		score := Dot(q, vec)
		if len(h) < k {
			heap.Push(&h, Result{ID: snap.ids[i], Score: score})
		} else if score > h[0].Score {
			h[0] = Result{ID: snap.ids[i], Score: score}
			heap.Fix(&h, 0)
		}
	}

	out := make([]Result, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(Result)
	}
	return out
}

// resultHeap is a min-heap on Score so the weakest kept hit is evictable.
type resultHeap []Result

func (h resultHeap) Len() int            { return len(h) }
func (h resultHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h resultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x interface{}) { *h = append(*h, x.(Result)) }
func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
