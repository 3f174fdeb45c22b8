// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFeedComputation(t *testing.T) {
	before := testutil.ToFloat64(FeedsComputed.WithLabelValues("true"))
	RecordFeedComputation(true, 5*time.Millisecond)
	after := testutil.ToFloat64(FeedsComputed.WithLabelValues("true"))
	if after != before+1 {
		t.Errorf("cold-start counter = %v, want %v", after, before+1)
	}

	before = testutil.ToFloat64(FeedsComputed.WithLabelValues("false"))
	RecordFeedComputation(false, 5*time.Millisecond)
	after = testutil.ToFloat64(FeedsComputed.WithLabelValues("false"))
	if after != before+1 {
		t.Errorf("warm counter = %v, want %v", after, before+1)
	}
}

func TestRecordFeedback(t *testing.T) {
	for _, typ := range []string{"like", "dislike", "skip", "click"} {
		before := testutil.ToFloat64(FeedbackEvents.WithLabelValues(typ))
		RecordFeedback(typ)
		after := testutil.ToFloat64(FeedbackEvents.WithLabelValues(typ))
		if after != before+1 {
			t.Errorf("feedback counter for %s = %v, want %v", typ, after, before+1)
		}
	}
}

func TestRecordIndexRebuild(t *testing.T) {
	RecordIndexRebuild(1234, 10*time.Millisecond)
	if got := testutil.ToFloat64(IndexSize); got != 1234 {
		t.Errorf("IndexSize = %v, want 1234", got)
	}

	RecordIndexRebuild(99, time.Millisecond)
	if got := testutil.ToFloat64(IndexSize); got != 99 {
		t.Errorf("IndexSize after second rebuild = %v, want 99", got)
	}
}

func TestRecordEmbeddingBatch(t *testing.T) {
	before := testutil.ToFloat64(EmbeddingTexts)
	RecordEmbeddingBatch(32, 20*time.Millisecond)
	after := testutil.ToFloat64(EmbeddingTexts)
	if after != before+32 {
		t.Errorf("EmbeddingTexts = %v, want %v", after, before+32)
	}
}

func TestRecordStorageOperation(t *testing.T) {
	before := testutil.ToFloat64(StorageErrors.WithLabelValues("get", "profiles"))
	RecordStorageOperation("get", "profiles", time.Millisecond, nil)
	if got := testutil.ToFloat64(StorageErrors.WithLabelValues("get", "profiles")); got != before {
		t.Errorf("error counter incremented on success: %v", got)
	}

	RecordStorageOperation("get", "profiles", time.Millisecond, errors.New("key not found"))
	if got := testutil.ToFloat64(StorageErrors.WithLabelValues("get", "profiles")); got != before+1 {
		t.Errorf("error counter = %v, want %v", got, before+1)
	}
}
