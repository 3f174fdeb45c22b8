// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package preference maintains each user's preference vector and
// category-affinity weights. Two update paths exist: a batch recompute
// from the full interaction log, and an online incremental update applied
// on each new feedback event. Both leave the vector unit-norm, or exactly
// zero for users with no positive signal.
package preference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/curatus/internal/metrics"
	"github.com/tomtom215/curatus/internal/models"
	"github.com/tomtom215/curatus/internal/vector"
)

const (
	// learningRate is the online update step size.
	learningRate = 0.1

	// dislikeBatchWeight scales the negative signal in batch recompute.
	dislikeBatchWeight = 0.3

	// durationWeightCap bounds the engagement weight of a single like.
	durationWeightCap = 2.0

	// fallbackSampleLimit bounds the catalog sample used when a user has
	// no likes to recompute from.
	fallbackSampleLimit = 100

	// affinityStep is the per-event movement of a category weight.
	affinityStep = 0.1
)

// Tracker owns all mutations of user profiles. Concurrent updates for the
// same user serialize on a per-user lock; distinct users never contend.
type Tracker struct {
	profiles models.ProfileStore
	log      models.InteractionLog
	catalog  models.Catalog

	defaultExploration float64
	onlineLearning     bool

	locks  keyedMutex
	logger zerolog.Logger
}

// New creates a Tracker.
func New(profiles models.ProfileStore, log models.InteractionLog, catalog models.Catalog,
	defaultExploration float64, onlineLearning bool, logger zerolog.Logger) *Tracker {
	return &Tracker{
		profiles:           profiles,
		log:                log,
		catalog:            catalog,
		defaultExploration: defaultExploration,
		onlineLearning:     onlineLearning,
		logger:             logger.With().Str("component", "preference_tracker").Logger(),
	}
}

// Get returns the user's profile, or models.ErrProfileNotFound.
func (t *Tracker) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	return t.profiles.Get(ctx, userID)
}

// GetOrCreate returns the user's profile, creating and persisting a
// cold-start profile for unknown users.
func (t *Tracker) GetOrCreate(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := t.profiles.Get(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, models.ErrProfileNotFound) {
		return nil, err
	}

	unlock := t.locks.lock(userID)
	defer unlock()

	// Re-check under the lock; another request may have created it.
	profile, err = t.profiles.Get(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, models.ErrProfileNotFound) {
		return nil, err
	}

	profile = models.NewUserProfile(userID, t.defaultExploration)
	if err := t.profiles.Put(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile for %s: %w", userID, err)
	}
	t.logger.Info().Str("user_id", userID).Msg("created cold-start profile")
	return profile, nil
}

// List returns every stored profile.
func (t *Tracker) List(ctx context.Context) ([]*models.UserProfile, error) {
	return t.profiles.List(ctx)
}

// Create registers a new profile with an explicit exploration rate.
// An existing profile is returned unchanged.
func (t *Tracker) Create(ctx context.Context, userID, username string, explorationRate float64) (*models.UserProfile, error) {
	unlock := t.locks.lock(userID)
	defer unlock()

	if existing, err := t.profiles.Get(ctx, userID); err == nil {
		return existing, nil
	} else if !errors.Is(err, models.ErrProfileNotFound) {
		return nil, err
	}

	profile := models.NewUserProfile(userID, explorationRate)
	profile.Username = username
	if err := t.profiles.Put(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile for %s: %w", userID, err)
	}
	return profile, nil
}

// Apply records a feedback event and applies the online incremental update
// to the user's preference vector and affinity map:
//
//	like:    new = normalize((1-α)·old + α·item_vector)
//	dislike: new = normalize(old − 0.5α·item_vector)
//	skip, click: vector unchanged
//
// Returns models.ErrProfileNotFound or models.ErrItemNotFound when the
// referenced records are missing; existing state is never corrupted.
func (t *Tracker) Apply(ctx context.Context, event models.InteractionEvent) error {
	item, err := t.catalog.GetByID(ctx, event.ItemID)
	if err != nil {
		return err
	}

	unlock := t.locks.lock(event.UserID)
	defer unlock()

	profile, err := t.profiles.Get(ctx, event.UserID)
	if err != nil {
		return err
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := t.log.Append(ctx, event); err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}

	t.applyCounters(profile, event)

	if t.onlineLearning && item.HasEmbedding() {
		t.applyVector(profile, item.Embedding, event.Type)
	}
	t.applyAffinity(profile, item.Category, event.Type)

	profile.UpdatedAt = time.Now().UTC()
	if err := t.profiles.Put(ctx, profile); err != nil {
		return fmt.Errorf("put profile: %w", err)
	}

	metrics.RecordFeedback(event.Type.String())
	metrics.PreferenceOnlineUpdates.WithLabelValues(event.Type.String()).Inc()
	t.logger.Debug().
		Str("user_id", event.UserID).
		Str("item_id", event.ItemID).
		Str("type", event.Type.String()).
		Msg("applied feedback")
	return nil
}

// applyCounters updates the running interaction statistics.
func (t *Tracker) applyCounters(profile *models.UserProfile, event models.InteractionEvent) {
	profile.TotalInteractions++
	switch event.Type {
	case models.InteractionLike:
		profile.TotalLikes++
	case models.InteractionDislike:
		profile.TotalDislikes++
	}
	if event.DurationSeconds > 0 {
		n := float64(profile.TotalInteractions)
		profile.AvgReadSeconds = (profile.AvgReadSeconds*(n-1) + event.DurationSeconds) / n
	}
}

// applyVector moves the preference vector toward liked content and away
// from disliked content. Skip and click never move the vector.
func (t *Tracker) applyVector(profile *models.UserProfile, embedding []float32, typ models.InteractionType) {
	old := profile.Preference
	if len(old) == 0 {
		old = make([]float32, len(embedding))
	}
	if len(old) != len(embedding) {
		t.logger.Warn().
			Str("user_id", profile.ID).
			Int("profile_dim", len(old)).
			Int("item_dim", len(embedding)).
			Msg("dimension mismatch, skipping vector update")
		return
	}

	updated := make([]float32, len(old))
	switch typ {
	case models.InteractionLike:
		for i := range old {
			updated[i] = float32((1-learningRate)*float64(old[i]) + learningRate*float64(embedding[i]))
		}
	case models.InteractionDislike:
		for i := range old {
			updated[i] = float32(float64(old[i]) - 0.5*learningRate*float64(embedding[i]))
		}
	default:
		return
	}

	profile.Preference = vector.Normalize(updated)
}

// applyAffinity nudges the category weight toward 1 on like and toward 0
// on dislike, keeping it in [0, 1]. Other event types leave it unchanged.
func (t *Tracker) applyAffinity(profile *models.UserProfile, category string, typ models.InteractionType) {
	if category == "" {
		return
	}
	if profile.Affinity == nil {
		profile.Affinity = make(map[string]float64)
	}

	w := profile.Affinity[category]
	switch typ {
	case models.InteractionLike:
		w += affinityStep * (1 - w)
	case models.InteractionDislike:
		w -= affinityStep * w
	default:
		return
	}
	profile.Affinity[category] = w
}

// Recompute rebuilds the user's preference vector and affinity map from
// the full interaction log:
//
//	preference = mean(liked vectors, each weighted by min(duration/30, 2))
//	           − 0.3 · mean(disliked vectors)
//
// normalized to unit length. With no liked interactions the vector falls
// back to the normalized mean embedding over a bounded catalog sample, or
// stays zero when the catalog is empty.
func (t *Tracker) Recompute(ctx context.Context, userID string) error {
	start := time.Now()

	unlock := t.locks.lock(userID)
	defer unlock()

	profile, err := t.profiles.Get(ctx, userID)
	if err != nil {
		return err
	}

	events, err := t.log.GetByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load interactions for %s: %w", userID, err)
	}

	pref, err := t.recomputeVector(ctx, events)
	if err != nil {
		return err
	}
	profile.Preference = pref
	profile.Affinity = t.recomputeAffinity(ctx, events)
	profile.UpdatedAt = time.Now().UTC()

	if err := t.profiles.Put(ctx, profile); err != nil {
		return fmt.Errorf("put profile: %w", err)
	}

	metrics.PreferenceBatchRecomputes.Inc()
	metrics.PreferenceBatchDuration.Observe(time.Since(start).Seconds())
	t.logger.Debug().
		Str("user_id", userID).
		Int("events", len(events)).
		Msg("recomputed preference")
	return nil
}

// RecomputeAll runs Recompute for every stored profile. Used by the
// background maintenance service.
func (t *Tracker) RecomputeAll(ctx context.Context) error {
	profiles, err := t.profiles.List(ctx)
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}

	var failed int
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.Recompute(ctx, p.ID); err != nil {
			failed++
			t.logger.Error().Err(err).Str("user_id", p.ID).Msg("recompute failed")
		}
	}
	if failed > 0 {
		return fmt.Errorf("recompute failed for %d of %d profiles", failed, len(profiles))
	}
	return nil
}

func (t *Tracker) recomputeVector(ctx context.Context, events []models.InteractionEvent) ([]float32, error) {
	var (
		likedSum    []float64
		likedCount  int
		dislikeSum  []float64
		dislikeCnt  int
		accumulated = func(dst []float64, e []float32, w float64) []float64 {
			if dst == nil {
				dst = make([]float64, len(e))
			}
			for i := range e {
				dst[i] += w * float64(e[i])
			}
			return dst
		}
	)

	for _, event := range events {
		if event.Type != models.InteractionLike && event.Type != models.InteractionDislike {
			continue
		}
		item, err := t.catalog.GetByID(ctx, event.ItemID)
		if errors.Is(err, models.ErrItemNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load item %s: %w", event.ItemID, err)
		}
		if !item.HasEmbedding() {
			continue
		}

		if event.Type == models.InteractionLike {
			weight := event.DurationSeconds / 30.0
			if weight > durationWeightCap {
				weight = durationWeightCap
			}
			likedSum = accumulated(likedSum, item.Embedding, weight)
			likedCount++
		} else {
			dislikeSum = accumulated(dislikeSum, item.Embedding, 1.0)
			dislikeCnt++
		}
	}

	if likedCount == 0 {
		return t.fallbackVector(ctx)
	}

	out := make([]float32, len(likedSum))
	for i := range likedSum {
		v := likedSum[i] / float64(likedCount)
		if dislikeCnt > 0 && i < len(dislikeSum) {
			v -= dislikeBatchWeight * dislikeSum[i] / float64(dislikeCnt)
		}
		out[i] = float32(v)
	}
	return vector.Normalize(out), nil
}

// fallbackVector returns the normalized mean embedding over a bounded
// catalog sample, or nil when no embedded items exist.
func (t *Tracker) fallbackVector(ctx context.Context) ([]float32, error) {
	items, err := t.catalog.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog sample: %w", err)
	}

	var sum []float64
	var count int
	for _, item := range items {
		if count >= fallbackSampleLimit {
			break
		}
		if !item.HasEmbedding() {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(item.Embedding))
		}
		for i, x := range item.Embedding {
			sum[i] += float64(x)
		}
		count++
	}

	if count == 0 {
		return nil, nil
	}

	out := make([]float32, len(sum))
	for i := range sum {
		out[i] = float32(sum[i] / float64(count))
	}
	return vector.Normalize(out), nil
}

// recomputeAffinity replays like/dislike events in log order against a
// fresh affinity map, using the same per-event step as the online path.
func (t *Tracker) recomputeAffinity(ctx context.Context, events []models.InteractionEvent) map[string]float64 {
	affinity := make(map[string]float64)
	for _, event := range events {
		if event.Type != models.InteractionLike && event.Type != models.InteractionDislike {
			continue
		}
		item, err := t.catalog.GetByID(ctx, event.ItemID)
		if err != nil || item.Category == "" {
			continue
		}

		w := affinity[item.Category]
		if event.Type == models.InteractionLike {
			w += affinityStep * (1 - w)
		} else {
			w -= affinityStep * w
		}
		affinity[item.Category] = w
	}
	return affinity
}

// keyedMutex serializes operations per key. Locks are never removed; the
// key space is bounded by the active user population.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
