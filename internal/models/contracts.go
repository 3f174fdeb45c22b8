// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package models

import (
	"context"
	"errors"
	"math/rand"
)

// Sentinel errors reported by collaborator implementations.
var (
	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrProfileNotFound indicates no profile exists for the user.
	ErrProfileNotFound = errors.New("profile not found")
)

// Catalog is the read-only item catalog consumed by the ranking core.
// Implementations return fully-materialized item records; the core never
// triggers per-item lazy loads.
type Catalog interface {
	// GetAll returns every item in the catalog, in stable iteration order.
	GetAll(ctx context.Context) ([]Item, error)

	// GetByID returns the item with the given id, or ErrItemNotFound.
	GetByID(ctx context.Context, id string) (*Item, error)

	// GetTopByCategory returns up to n items in the category,
	// ordered by raw score descending.
	GetTopByCategory(ctx context.Context, category string, n int) ([]Item, error)

	// GetRandom returns up to n items drawn uniformly at random.
	// The caller supplies the random source so draws are reproducible.
	GetRandom(ctx context.Context, rng *rand.Rand, n int) ([]Item, error)

	// GetRecentByVelocity returns up to n items younger than maxAgeHours,
	// ordered by raw_score/(age_hours+1) descending.
	GetRecentByVelocity(ctx context.Context, maxAgeHours float64, n int) ([]Item, error)
}

// CatalogWriter is the ingestion-side write surface of the catalog.
// The ranking core never uses it; only the ingest pass and seeding do.
type CatalogWriter interface {
	// PutItem inserts or replaces an item record.
	PutItem(ctx context.Context, item Item) error

	// SetEmbedding assigns an item's embedding. Performed once per item
	// by the batch embedding pass.
	SetEmbedding(ctx context.Context, id string, embedding []float32) error
}

// InteractionLog records feedback events and serves per-user history.
type InteractionLog interface {
	// Append records an event. Events are append-only.
	Append(ctx context.Context, event InteractionEvent) error

	// GetByUser returns all past events for a user, oldest first.
	// Used to build the seen-set and for batch preference recompute.
	GetByUser(ctx context.Context, userID string) ([]InteractionEvent, error)
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	// Get returns the user's profile, or ErrProfileNotFound.
	Get(ctx context.Context, userID string) (*UserProfile, error)

	// Put inserts or replaces a profile.
	Put(ctx context.Context, profile *UserProfile) error

	// List returns all known profiles.
	List(ctx context.Context) ([]*UserProfile, error)
}

// Embedder is the fixed, pretrained embedding function. The core never
// trains or modifies it; it is called in batches during ingestion only.
type Embedder interface {
	// Dimension returns the fixed output vector dimension D.
	Dimension() int

	// Embed maps each text to a vector of dimension D.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
