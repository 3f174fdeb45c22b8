// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package feed

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/tomtom215/curatus/internal/models"
	"github.com/tomtom215/curatus/internal/storage"
)

func scoredList(items ...models.Item) []ScoredItem {
	out := make([]ScoredItem, len(items))
	for i, item := range items {
		out[i] = ScoredItem{Item: item, Source: SourceSimilarity, Score: float64(len(items) - i)}
	}
	return out
}

func TestSelectCategoryCap(t *testing.T) {
	items := make([]models.Item, 6)
	for i := range items {
		items[i] = models.Item{
			ID:          fmt.Sprintf("go-%d", i),
			Category:    "golang",
			ContentType: models.ContentType(i % 3),
		}
	}

	d := NewDiversifier(storage.NewMemoryCatalog(), testLogger())
	got, err := d.Select(context.Background(), scoredList(items...), 6, 0, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("selected %d items from one category, want 2", len(got))
	}
	// Highest-scored survivors, in score order.
	if got[0].Item.ID != "go-0" || got[1].Item.ID != "go-1" {
		t.Errorf("selected %s, %s; want go-0, go-1", got[0].Item.ID, got[1].Item.ID)
	}
}

func TestSelectDropsUnsafe(t *testing.T) {
	items := []models.Item{
		{ID: "ok-1", Category: "a"},
		{ID: "bad", Category: "b", Unsafe: true},
		{ID: "ok-2", Category: "c", ContentType: models.ContentLink},
	}

	d := NewDiversifier(storage.NewMemoryCatalog(), testLogger())
	got, err := d.Select(context.Background(), scoredList(items...), 3, 0, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	for _, s := range got {
		if s.Item.Unsafe {
			t.Fatalf("unsafe item %s selected", s.Item.ID)
		}
	}
	if len(got) != 2 {
		t.Fatalf("selected %d items, want 2", len(got))
	}
}

func TestSubstitutionSkipsUnsafe(t *testing.T) {
	// The random draw must never surface an unsafe item, even when the
	// catalog contains nothing else.
	catalog := storage.NewMemoryCatalog()
	for i := 0; i < 20; i++ {
		if err := catalog.PutItem(context.Background(), models.Item{
			ID:       fmt.Sprintf("nsfw-%d", i),
			Category: fmt.Sprintf("cat-%d", i),
			Unsafe:   true,
		}); err != nil {
			t.Fatalf("PutItem: %v", err)
		}
	}

	ranked := make([]models.Item, 10)
	for i := range ranked {
		ranked[i] = models.Item{
			ID:          fmt.Sprintf("ranked-%d", i),
			Category:    fmt.Sprintf("cat-%d", i),
			ContentType: models.ContentType(i % 3),
		}
	}

	d := NewDiversifier(catalog, testLogger())
	got, err := d.Select(context.Background(), scoredList(ranked...), 10, 0.3, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	for _, s := range got {
		if s.Item.Unsafe {
			t.Fatalf("unsafe item %s in output", s.Item.ID)
		}
		if s.Source == SourceExploration {
			t.Fatalf("exploration slot filled from an all-unsafe catalog: %s", s.Item.ID)
		}
	}
	if len(got) != 10 {
		t.Fatalf("selected %d items, want 10", len(got))
	}
}

func TestSubstitutionFillsFromSafeCatalog(t *testing.T) {
	// Mixed catalog: unsafe entries are skipped and slots still fill
	// from the safe remainder.
	catalog := storage.NewMemoryCatalog()
	for i := 0; i < 10; i++ {
		if err := catalog.PutItem(context.Background(), models.Item{
			ID:       fmt.Sprintf("cat-item-%d", i),
			Category: fmt.Sprintf("cat-%d", i),
			Unsafe:   i == 0,
		}); err != nil {
			t.Fatalf("PutItem: %v", err)
		}
	}

	ranked := make([]models.Item, 10)
	for i := range ranked {
		ranked[i] = models.Item{
			ID:          fmt.Sprintf("ranked-%d", i),
			Category:    fmt.Sprintf("rcat-%d", i),
			ContentType: models.ContentType(i % 3),
		}
	}

	d := NewDiversifier(catalog, testLogger())
	got, err := d.Select(context.Background(), scoredList(ranked...), 10, 0.2, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	var substituted int
	for _, s := range got {
		if s.Item.Unsafe {
			t.Fatalf("unsafe item %s in output", s.Item.ID)
		}
		if s.Source == SourceExploration {
			substituted++
		}
	}
	// floor(10*0.2) = 2 slots; the over-draw of 4 contains at most one
	// unsafe item, so both slots always fill.
	if substituted != 2 {
		t.Errorf("substituted = %d, want 2", substituted)
	}
}

func TestSelectContentTypeCap(t *testing.T) {
	// count=5 gives a per-type ceiling of 3.
	items := make([]models.Item, 8)
	for i := range items {
		items[i] = models.Item{
			ID:          fmt.Sprintf("vid-%d", i),
			Category:    fmt.Sprintf("cat-%d", i), // no category pressure
			ContentType: models.ContentVideo,
		}
	}

	d := NewDiversifier(storage.NewMemoryCatalog(), testLogger())
	got, err := d.Select(context.Background(), scoredList(items...), 5, 0, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("selected %d video items, want 3 (ceil of 5/2)", len(got))
	}
}

func TestSelectStopsAtCount(t *testing.T) {
	items := make([]models.Item, 30)
	for i := range items {
		items[i] = models.Item{
			ID:          fmt.Sprintf("item-%d", i),
			Category:    fmt.Sprintf("cat-%d", i),
			ContentType: models.ContentType(i % 3),
		}
	}

	d := NewDiversifier(storage.NewMemoryCatalog(), testLogger())
	got, err := d.Select(context.Background(), scoredList(items...), 10, 0, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("selected %d items, want 10", len(got))
	}
	for i := 0; i < 10; i++ {
		if got[i].Item.ID != fmt.Sprintf("item-%d", i) {
			t.Errorf("position %d: got %s, want item-%d", i, got[i].Item.ID, i)
		}
	}
}

func TestSelectExplorationSubstitution(t *testing.T) {
	catalog := storage.NewMemoryCatalog()
	for i := 0; i < 20; i++ {
		err := catalog.PutItem(context.Background(), models.Item{
			ID:       fmt.Sprintf("wild-%d", i),
			Category: "wilderness",
		})
		if err != nil {
			t.Fatalf("PutItem: %v", err)
		}
	}

	items := make([]models.Item, 10)
	for i := range items {
		items[i] = models.Item{
			ID:          fmt.Sprintf("ranked-%d", i),
			Category:    fmt.Sprintf("cat-%d", i),
			ContentType: models.ContentType(i % 3),
		}
	}

	d := NewDiversifier(catalog, testLogger())
	// rate 0.3 on count 10 replaces the last 3 positions.
	got, err := d.Select(context.Background(), scoredList(items...), 10, 0.3, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("selected %d items, want 10", len(got))
	}

	for i := 0; i < 7; i++ {
		if got[i].Item.ID != fmt.Sprintf("ranked-%d", i) {
			t.Errorf("head position %d changed: %s", i, got[i].Item.ID)
		}
	}
	for i := 7; i < 10; i++ {
		if got[i].Source != SourceExploration {
			t.Errorf("tail position %d: source = %s, want %s", i, got[i].Source, SourceExploration)
		}
		if got[i].Score != 0 {
			t.Errorf("tail position %d: substituted item carries score %v, want 0", i, got[i].Score)
		}
	}
}

func TestSelectNoSubstitutionWhenFeedTooShort(t *testing.T) {
	catalog := storage.NewMemoryCatalog()
	if err := catalog.PutItem(context.Background(), models.Item{ID: "wild", Category: "w"}); err != nil {
		t.Fatalf("PutItem: %v", err)
	}

	items := []models.Item{
		{ID: "only-1", Category: "a"},
		{ID: "only-2", Category: "b", ContentType: models.ContentLink},
	}

	d := NewDiversifier(catalog, testLogger())
	// rate 0.3 on count 10 asks for 3 substitutions, but only 2 items
	// were accepted, so substitution is skipped entirely.
	got, err := d.Select(context.Background(), scoredList(items...), 10, 0.3, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("selected %d items, want 2", len(got))
	}
	for _, s := range got {
		if s.Source == SourceExploration {
			t.Errorf("item %s substituted in a feed shorter than the substitution budget", s.Item.ID)
		}
	}
}

func TestSelectZeroRateNoSubstitution(t *testing.T) {
	items := make([]models.Item, 5)
	for i := range items {
		items[i] = models.Item{
			ID:       fmt.Sprintf("item-%d", i),
			Category: fmt.Sprintf("cat-%d", i),
		}
	}

	d := NewDiversifier(storage.NewMemoryCatalog(), testLogger())
	got, err := d.Select(context.Background(), scoredList(items...), 5, 0, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	for _, s := range got {
		if s.Source == SourceExploration {
			t.Errorf("substitution ran with a zero exploration rate")
		}
	}
}
