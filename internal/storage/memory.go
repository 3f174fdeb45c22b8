// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package storage

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/tomtom215/curatus/internal/models"
)

// MemoryCatalog implements models.Catalog and models.CatalogWriter in
// memory. Items keep insertion order so GetAll has a stable iteration
// order across calls.
type MemoryCatalog struct {
	mu    sync.RWMutex
	order []string
	items map[string]models.Item
}

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		items: make(map[string]models.Item),
	}
}

// PutItem inserts or replaces an item record.
func (c *MemoryCatalog) PutItem(ctx context.Context, item models.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[item.ID]; !exists {
		c.order = append(c.order, item.ID)
	}
	c.items[item.ID] = item
	return nil
}

// SetEmbedding assigns an item's embedding, or models.ErrItemNotFound.
func (c *MemoryCatalog) SetEmbedding(ctx context.Context, id string, embedding []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[id]
	if !ok {
		return models.ErrItemNotFound
	}
	item.Embedding = embedding
	c.items[id] = item
	return nil
}

// GetAll returns every item in insertion order.
func (c *MemoryCatalog) GetAll(ctx context.Context) ([]models.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Item, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out, nil
}

// GetByID returns the item with the given id, or models.ErrItemNotFound.
func (c *MemoryCatalog) GetByID(ctx context.Context, id string) (*models.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	if !ok {
		return nil, models.ErrItemNotFound
	}
	return &item, nil
}

// GetTopByCategory returns up to n items in the category, ordered by raw
// score descending. Ties keep insertion order.
func (c *MemoryCatalog) GetTopByCategory(ctx context.Context, category string, n int) ([]models.Item, error) {
	c.mu.RLock()
	var matched []models.Item
	for _, id := range c.order {
		if item := c.items[id]; item.Category == category {
			matched = append(matched, item)
		}
	}
	c.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].RawScore > matched[j].RawScore
	})
	if len(matched) > n {
		matched = matched[:n]
	}
	return matched, nil
}

// GetRandom returns up to n distinct items drawn uniformly at random using
// the supplied source.
func (c *MemoryCatalog) GetRandom(ctx context.Context, rng *rand.Rand, n int) ([]models.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n > len(c.order) {
		n = len(c.order)
	}
	if n <= 0 {
		return nil, nil
	}

	out := make([]models.Item, 0, n)
	for _, idx := range rng.Perm(len(c.order))[:n] {
		out = append(out, c.items[c.order[idx]])
	}
	return out, nil
}

// GetRecentByVelocity returns up to n items younger than maxAgeHours,
// ordered by raw_score/(age_hours+1) descending.
func (c *MemoryCatalog) GetRecentByVelocity(ctx context.Context, maxAgeHours float64, n int) ([]models.Item, error) {
	c.mu.RLock()
	var recent []models.Item
	for _, id := range c.order {
		if item := c.items[id]; item.AgeHours < maxAgeHours {
			recent = append(recent, item)
		}
	}
	c.mu.RUnlock()

	velocity := func(item models.Item) float64 {
		return item.RawScore / (item.AgeHours + 1)
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return velocity(recent[i]) > velocity(recent[j])
	})
	if len(recent) > n {
		recent = recent[:n]
	}
	return recent, nil
}

// Len returns the number of items in the catalog.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// MemoryProfileStore implements models.ProfileStore in memory. Used in
// tests and available for ephemeral deployments.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*models.UserProfile
}

// NewMemoryProfileStore creates an empty in-memory profile store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{
		profiles: make(map[string]*models.UserProfile),
	}
}

// Get returns a copy of the stored profile, or models.ErrProfileNotFound.
func (s *MemoryProfileStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	return profile.Clone(), nil
}

// Put stores a copy of the profile.
func (s *MemoryProfileStore) Put(ctx context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = profile.Clone()
	return nil
}

// List returns copies of all stored profiles.
func (s *MemoryProfileStore) List(ctx context.Context) ([]*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Clone())
	}
	return out, nil
}

// MemoryInteractionLog implements models.InteractionLog in memory.
type MemoryInteractionLog struct {
	mu     sync.RWMutex
	events map[string][]models.InteractionEvent
}

// NewMemoryInteractionLog creates an empty in-memory interaction log.
func NewMemoryInteractionLog() *MemoryInteractionLog {
	return &MemoryInteractionLog{
		events: make(map[string][]models.InteractionEvent),
	}
}

// Append records an event.
func (l *MemoryInteractionLog) Append(ctx context.Context, event models.InteractionEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events[event.UserID] = append(l.events[event.UserID], event)
	return nil
}

// GetByUser returns all events for a user in append order.
func (l *MemoryInteractionLog) GetByUser(ctx context.Context, userID string) ([]models.InteractionEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	events := l.events[userID]
	out := make([]models.InteractionEvent, len(events))
	copy(out, events)
	return out, nil
}
