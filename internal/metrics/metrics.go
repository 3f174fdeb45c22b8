// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - API endpoint latency and throughput
// - Feed pipeline stages (generation, scoring, diversification)
// - Preference tracker updates
// - Vector index size and rebuilds
// - Embedding batches

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Feed Pipeline Metrics
	FeedsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_computations_total",
			Help: "Total number of feed computations",
		},
		[]string{"cold_start"}, // "true" for new-user fallback feeds
	)

	FeedComputationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_computation_duration_seconds",
			Help:    "End-to-end feed computation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	FeedCandidatesGenerated = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_candidates_generated",
			Help:    "Number of candidates contributed per strategy before deduplication",
			Buckets: []float64{0, 5, 10, 20, 40, 60, 80, 100, 150},
		},
		[]string{"source"}, // "similarity", "trending", "affinity", "exploration", "fallback"
	)

	FeedPoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_candidate_pool_size",
			Help:    "Deduplicated candidate pool size per feed computation",
			Buckets: []float64{0, 10, 25, 50, 75, 100, 150, 200},
		},
	)

	FeedItemsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_items_dropped_total",
			Help: "Total number of candidates dropped during diversification",
		},
		[]string{"reason"}, // "unsafe", "category_cap", "content_type_cap"
	)

	FeedExplorationSubstitutions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_exploration_substitutions_total",
			Help: "Total number of feed positions replaced by exploration items",
		},
	)

	FeedCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_cache_hits_total",
			Help: "Total number of feed response cache hits",
		},
	)

	FeedCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_cache_misses_total",
			Help: "Total number of feed response cache misses",
		},
	)

	// Feedback and Preference Metrics
	FeedbackEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_events_total",
			Help: "Total number of recorded feedback events",
		},
		[]string{"type"}, // "like", "dislike", "skip", "click"
	)

	PreferenceOnlineUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preference_online_updates_total",
			Help: "Total number of incremental preference vector updates",
		},
		[]string{"type"},
	)

	PreferenceBatchRecomputes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "preference_batch_recomputes_total",
			Help: "Total number of batch preference recomputations",
		},
	)

	PreferenceBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "preference_batch_duration_seconds",
			Help:    "Duration of batch preference recomputation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Vector Index Metrics
	IndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vector_index_size",
			Help: "Number of vectors in the current index snapshot",
		},
	)

	IndexRebuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vector_index_rebuilds_total",
			Help: "Total number of index rebuilds",
		},
	)

	IndexRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vector_index_rebuild_duration_seconds",
			Help:    "Duration of index rebuilds in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	IndexQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vector_index_queries_total",
			Help: "Total number of similarity queries served",
		},
	)

	// Embedding Metrics
	EmbeddingBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_batches_total",
			Help: "Total number of embedding batches processed",
		},
	)

	EmbeddingTexts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_texts_total",
			Help: "Total number of texts embedded",
		},
	)

	EmbeddingBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_batch_duration_seconds",
			Help:    "Duration of embedding batches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Storage Metrics
	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_operation_duration_seconds",
			Help:    "Duration of profile/interaction store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "store"},
	)

	StorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_errors_total",
			Help: "Total number of storage operation errors",
		},
		[]string{"operation", "store"},
	)
)

// RecordFeedComputation records a completed feed computation.
func RecordFeedComputation(coldStart bool, duration time.Duration) {
	label := "false"
	if coldStart {
		label = "true"
	}
	FeedsComputed.WithLabelValues(label).Inc()
	FeedComputationDuration.Observe(duration.Seconds())
}

// RecordFeedback records a feedback event by type name.
func RecordFeedback(interactionType string) {
	FeedbackEvents.WithLabelValues(interactionType).Inc()
}

// RecordIndexRebuild records an index rebuild and the new snapshot size.
func RecordIndexRebuild(size int, duration time.Duration) {
	IndexRebuilds.Inc()
	IndexRebuildDuration.Observe(duration.Seconds())
	IndexSize.Set(float64(size))
}

// RecordEmbeddingBatch records a processed embedding batch.
func RecordEmbeddingBatch(texts int, duration time.Duration) {
	EmbeddingBatches.Inc()
	EmbeddingTexts.Add(float64(texts))
	EmbeddingBatchDuration.Observe(duration.Seconds())
}

// RecordStorageOperation records a storage call, counting errors separately.
func RecordStorageOperation(operation, store string, duration time.Duration, err error) {
	StorageOperationDuration.WithLabelValues(operation, store).Observe(duration.Seconds())
	if err != nil {
		StorageErrors.WithLabelValues(operation, store).Inc()
	}
}
