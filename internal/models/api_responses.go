// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package models

import (
	"time"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
// It provides consistent structure for both successful and error responses, with metadata
// for observability and caching information.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"items": [...]},
//	  "metadata": {
//	    "timestamp": "2026-08-26T12:00:00Z",
//	    "query_time_ms": 12,
//	    "cached": false
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "Invalid count parameter",
//	    "details": {"field": "count"}
//	  },
//	  "metadata": {"timestamp": "2026-08-26T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability and performance tracking.
//
// Fields:
//   - Timestamp: Server time when response was generated (RFC3339 format)
//   - QueryTimeMS: Feed computation time in milliseconds (0 if cached)
//   - Cached: Whether response was served from the feed cache (omitted if false)
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - NOT_FOUND: Resource doesn't exist
//   - INTERNAL_ERROR: Unexpected server failure
//   - RATE_LIMIT_EXCEEDED: Too many requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// FeedItem is a single ranked entry in a computed feed. Score is the
// composite ranking score at selection time; Source names the candidate
// strategy that produced the item.
type FeedItem struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Category     string  `json:"category"`
	Author       string  `json:"author,omitempty"`
	URL          string  `json:"url,omitempty"`
	ContentType  string  `json:"content_type"`
	Score        float64 `json:"score"`
	RawScore     float64 `json:"raw_score"`
	CommentCount int     `json:"comment_count"`
	AgeHours     float64 `json:"age_hours"`
	Source       string  `json:"source,omitempty"`
}

// FeedResponse is the payload of GET /api/v1/feed/{userID}.
type FeedResponse struct {
	UserID string     `json:"user_id"`
	Items  []FeedItem `json:"items"`
	Count  int        `json:"count"`
}

// FeedbackRequest records a user interaction with a feed item.
//
// Type accepts "like", "dislike", "skip", or "click". DurationSeconds is
// the observed read/watch time and only influences like events.
type FeedbackRequest struct {
	ItemID          string  `json:"item_id" validate:"required"`
	Type            string  `json:"type" validate:"required,oneof=like dislike skip click"`
	DurationSeconds float64 `json:"duration_seconds" validate:"gte=0"`
}

// CreateUserRequest registers a new user profile.
type CreateUserRequest struct {
	UserID          string  `json:"user_id" validate:"required,min=1,max=128"`
	Username        string  `json:"username" validate:"omitempty,max=128"`
	ExplorationRate float64 `json:"exploration_rate" validate:"gte=0,lte=1"`
}

// UserStatsResponse summarizes a user's interaction history and learned state.
type UserStatsResponse struct {
	UserID            string             `json:"user_id"`
	TotalInteractions int                `json:"total_interactions"`
	TotalLikes        int                `json:"total_likes"`
	TotalDislikes     int                `json:"total_dislikes"`
	AvgReadSeconds    float64            `json:"avg_read_seconds"`
	ExplorationRate   float64            `json:"exploration_rate"`
	ColdStart         bool               `json:"cold_start"`
	TopCategories     []CategoryAffinity `json:"top_categories"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// UserListResponse enumerates all known user profiles.
type UserListResponse struct {
	Users []UserStatsResponse `json:"users"`
	Total int                 `json:"total"`
}

// CategoryAffinity pairs a category with the user's learned affinity weight.
type CategoryAffinity struct {
	Category string  `json:"category"`
	Weight   float64 `json:"weight"`
}

// IngestItemRequest adds a content item to the catalog. Embeddings are
// computed server-side from Title and Body; items posted without an ID
// are assigned one during ingestion.
type IngestItemRequest struct {
	ID           string  `json:"id" validate:"omitempty,max=256"`
	Title        string  `json:"title" validate:"required"`
	Body         string  `json:"body"`
	Category     string  `json:"category" validate:"required"`
	Author       string  `json:"author"`
	URL          string  `json:"url" validate:"omitempty,url"`
	ContentType  string  `json:"content_type" validate:"required,oneof=text link video"`
	RawScore     float64 `json:"raw_score" validate:"gte=0"`
	CommentCount int     `json:"comment_count" validate:"gte=0"`
	UpvoteRatio  float64 `json:"upvote_ratio" validate:"gte=0,lte=1"`
	AgeHours     float64 `json:"age_hours" validate:"gte=0"`
	Unsafe       bool    `json:"unsafe"`
}

// IngestResponse reports the outcome of a batch ingest call.
type IngestResponse struct {
	Accepted int `json:"accepted"`
	Embedded int `json:"embedded"`
}

// RebuildResponse reports the outcome of an index rebuild.
type RebuildResponse struct {
	IndexSize  int   `json:"index_size"`
	DurationMS int64 `json:"duration_ms"`
}

// HealthResponse is the payload of GET /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	IndexSize int    `json:"index_size"`
}
