// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/curatus/internal/models"
	"github.com/tomtom215/curatus/internal/preference"
	"github.com/tomtom215/curatus/internal/storage"
	"github.com/tomtom215/curatus/internal/vector"
)

type pipelineFixture struct {
	catalog  *storage.MemoryCatalog
	profiles *storage.MemoryProfileStore
	log      *storage.MemoryInteractionLog
	index    *vector.Store
	tracker  *preference.Tracker
	pipeline *Pipeline
}

func newPipelineFixture(t *testing.T, cfg Config) *pipelineFixture {
	t.Helper()
	logger := testLogger()

	f := &pipelineFixture{
		catalog:  storage.NewMemoryCatalog(),
		profiles: storage.NewMemoryProfileStore(),
		log:      storage.NewMemoryInteractionLog(),
		index:    vector.New(4, logger),
	}
	f.tracker = preference.New(f.profiles, f.log, f.catalog, 0, true, logger)
	f.pipeline = NewPipeline(cfg, f.tracker, f.catalog, f.log, f.index, logger)
	return f
}

func (f *pipelineFixture) put(t *testing.T, item models.Item) {
	t.Helper()
	if err := f.catalog.PutItem(context.Background(), item); err != nil {
		t.Fatalf("PutItem: %v", err)
	}
}

func TestComputeFeedNewUserTopByRawScore(t *testing.T) {
	f := newPipelineFixture(t, Config{Seed: 1})
	for i := 0; i < 15; i++ {
		f.put(t, models.Item{
			ID:       fmt.Sprintf("item-%d", i),
			Category: fmt.Sprintf("cat-%d", i%4),
			RawScore: float64(150 - i*10),
			AgeHours: 1,
		})
	}

	feed, err := f.pipeline.ComputeFeed(context.Background(), "brand-new", 10)
	if err != nil {
		t.Fatalf("ComputeFeed: %v", err)
	}
	if len(feed) != 10 {
		t.Fatalf("feed length = %d, want 10", len(feed))
	}
	for i, s := range feed {
		wantID := fmt.Sprintf("item-%d", i)
		if s.Item.ID != wantID {
			t.Errorf("position %d: got %s, want %s (raw score order)", i, s.Item.ID, wantID)
		}
		if s.Score != s.Item.RawScore {
			t.Errorf("position %d: score = %v, want the raw score %v", i, s.Score, s.Item.RawScore)
		}
		if s.Source != SourceFallback {
			t.Errorf("position %d: source = %s, want %s", i, s.Source, SourceFallback)
		}
	}

	// The cold-start request must have created a profile.
	if _, err := f.profiles.Get(context.Background(), "brand-new"); err != nil {
		t.Errorf("profile not persisted for cold-start user: %v", err)
	}
}

func TestComputeFeedEmptyCatalog(t *testing.T) {
	f := newPipelineFixture(t, Config{Seed: 1})

	feed, err := f.pipeline.ComputeFeed(context.Background(), "anyone", 10)
	if err != nil {
		t.Fatalf("ComputeFeed: %v", err)
	}
	if len(feed) != 0 {
		t.Fatalf("feed length = %d, want 0 for an empty catalog", len(feed))
	}
}

func TestComputeFeedEmptyPoolForWarmUser(t *testing.T) {
	f := newPipelineFixture(t, Config{Seed: 1})

	// A warm profile over an empty catalog: every strategy comes back
	// empty and the result is an empty list, not an error.
	profile := models.NewUserProfile("warm", 0)
	profile.Affinity = map[string]float64{"golang": 0.5}
	if err := f.profiles.Put(context.Background(), profile); err != nil {
		t.Fatalf("Put: %v", err)
	}

	feed, err := f.pipeline.ComputeFeed(context.Background(), "warm", 10)
	if err != nil {
		t.Fatalf("ComputeFeed: %v", err)
	}
	if len(feed) != 0 {
		t.Fatalf("feed length = %d, want 0", len(feed))
	}
}

func TestComputeFeedDefaultCount(t *testing.T) {
	f := newPipelineFixture(t, Config{Seed: 1, DefaultCount: 5})
	for i := 0; i < 20; i++ {
		f.put(t, models.Item{
			ID:       fmt.Sprintf("item-%d", i),
			RawScore: float64(20 - i),
		})
	}

	feed, err := f.pipeline.ComputeFeed(context.Background(), "someone", 0)
	if err != nil {
		t.Fatalf("ComputeFeed: %v", err)
	}
	if len(feed) != 5 {
		t.Fatalf("feed length = %d, want the default count 5", len(feed))
	}
}

func TestComputeFeedExcludesSeenForWarmUser(t *testing.T) {
	f := newPipelineFixture(t, Config{Seed: 7})
	for i := 0; i < 20; i++ {
		f.put(t, models.Item{
			ID:          fmt.Sprintf("item-%d", i),
			Category:    fmt.Sprintf("cat-%d", i%5),
			RawScore:    float64(200 - i*10),
			AgeHours:    1,
			UpvoteRatio: 0.9,
		})
	}

	if _, err := f.tracker.GetOrCreate(context.Background(), "reader"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	// Liking item-0 warms the profile and puts it in the seen-set.
	if err := f.pipeline.RecordFeedback(context.Background(), models.InteractionEvent{
		UserID: "reader", ItemID: "item-0", Type: models.InteractionLike,
	}); err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}

	feed, err := f.pipeline.ComputeFeed(context.Background(), "reader", 10)
	if err != nil {
		t.Fatalf("ComputeFeed: %v", err)
	}
	if len(feed) == 0 {
		t.Fatal("expected a non-empty feed")
	}
	for _, s := range feed {
		if s.Item.ID == "item-0" {
			t.Errorf("seen item item-0 served again")
		}
	}
}

func TestRecordFeedbackUnknownItem(t *testing.T) {
	f := newPipelineFixture(t, Config{Seed: 1})

	err := f.pipeline.RecordFeedback(context.Background(), models.InteractionEvent{
		UserID: "reader", ItemID: "ghost", Type: models.InteractionLike,
	})
	if !errors.Is(err, models.ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound", err)
	}
}

func TestRebuildIndex(t *testing.T) {
	f := newPipelineFixture(t, Config{Seed: 1})
	f.put(t, models.Item{ID: "embedded-1", Embedding: []float32{1, 0, 0, 0}})
	f.put(t, models.Item{ID: "embedded-2", Embedding: []float32{0, 1, 0, 0}})
	f.put(t, models.Item{ID: "pending"})

	size, err := f.pipeline.RebuildIndex(context.Background())
	if err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}
	if size != 2 {
		t.Fatalf("index size = %d, want 2 (unembedded items excluded)", size)
	}
	if f.pipeline.IndexSize() != 2 {
		t.Fatalf("IndexSize = %d, want 2", f.pipeline.IndexSize())
	}
}

func TestComputeFeedCache(t *testing.T) {
	f := newPipelineFixture(t, Config{Seed: 1, CacheEnabled: true, CacheTTL: time.Minute})
	for i := 0; i < 10; i++ {
		f.put(t, models.Item{
			ID:       fmt.Sprintf("item-%d", i),
			RawScore: float64(100 - i),
		})
	}

	first, err := f.pipeline.ComputeFeed(context.Background(), "reader", 5)
	if err != nil {
		t.Fatalf("ComputeFeed: %v", err)
	}

	// A new chart-topper appears, but the cached feed is served as-is.
	f.put(t, models.Item{ID: "breaking", RawScore: 10000})

	cached, err := f.pipeline.ComputeFeed(context.Background(), "reader", 5)
	if err != nil {
		t.Fatalf("ComputeFeed (cached): %v", err)
	}
	if len(cached) != len(first) {
		t.Fatalf("cached feed length = %d, want %d", len(cached), len(first))
	}
	for i := range first {
		if cached[i].Item.ID != first[i].Item.ID {
			t.Fatalf("cached feed diverged at %d: %s vs %s", i, cached[i].Item.ID, first[i].Item.ID)
		}
	}

	// Feedback invalidates the user's cache entries.
	if err := f.pipeline.RecordFeedback(context.Background(), models.InteractionEvent{
		UserID: "reader", ItemID: "item-9", Type: models.InteractionSkip,
	}); err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}

	fresh, err := f.pipeline.ComputeFeed(context.Background(), "reader", 5)
	if err != nil {
		t.Fatalf("ComputeFeed (after feedback): %v", err)
	}
	if len(fresh) == 0 || fresh[0].Item.ID != "breaking" {
		t.Fatalf("feed after invalidation ignores the new top item: got %v", fresh[0].Item.ID)
	}
}

func TestComputeFeedConcurrent(t *testing.T) {
	f := newPipelineFixture(t, Config{Seed: 1})
	for i := 0; i < 30; i++ {
		f.put(t, models.Item{
			ID:       fmt.Sprintf("item-%d", i),
			Category: fmt.Sprintf("cat-%d", i%6),
			RawScore: float64(300 - i*10),
			AgeHours: 1,
		})
	}

	done := make(chan error, 20)
	for i := 0; i < 20; i++ {
		userID := fmt.Sprintf("user-%d", i%4)
		go func() {
			_, err := f.pipeline.ComputeFeed(context.Background(), userID, 10)
			done <- err
		}()
	}
	for i := 0; i < 20; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent ComputeFeed: %v", err)
		}
	}
}
