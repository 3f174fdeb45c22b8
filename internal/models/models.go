// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package models defines the domain types shared across Curatus and the
// collaborator contracts the ranking core consumes (item catalog,
// interaction log, user profile store, embedding function).
package models

import (
	"time"
)

// ContentType classifies an item for feed-composition balance.
type ContentType int

const (
	// ContentText is a self/text item.
	ContentText ContentType = iota
	// ContentLink is an external link item.
	ContentLink
	// ContentVideo is a video item.
	ContentVideo
)

// String returns a human-readable name for the content type.
func (t ContentType) String() string {
	switch t {
	case ContentText:
		return "text"
	case ContentLink:
		return "link"
	case ContentVideo:
		return "video"
	default:
		return "unknown"
	}
}

// InteractionType classifies explicit user feedback on an item.
type InteractionType int

const (
	// InteractionLike is an explicit positive signal.
	InteractionLike InteractionType = iota
	// InteractionDislike is an explicit negative signal.
	InteractionDislike
	// InteractionSkip indicates the item was passed over.
	InteractionSkip
	// InteractionClick indicates the item was opened.
	InteractionClick
)

// String returns a human-readable name for the interaction type.
func (t InteractionType) String() string {
	switch t {
	case InteractionLike:
		return "like"
	case InteractionDislike:
		return "dislike"
	case InteractionSkip:
		return "skip"
	case InteractionClick:
		return "click"
	default:
		return "unknown"
	}
}

// ParseInteractionType converts a wire-format string into an InteractionType.
// The serving layer must reject anything this function does not recognize
// before the event reaches the ranking core.
func ParseInteractionType(s string) (InteractionType, bool) {
	switch s {
	case "like":
		return InteractionLike, true
	case "dislike":
		return InteractionDislike, true
	case "skip":
		return InteractionSkip, true
	case "click":
		return InteractionClick, true
	default:
		return 0, false
	}
}

// Item represents a content item in the catalog.
//
// Items are immutable once ingested, except for the embedding, which is
// assigned exactly once by the batch embedding pass.
type Item struct {
	// ID is the unique content identifier.
	ID string `json:"id"`

	// Title is the item title.
	Title string `json:"title"`

	// Body is the item text, empty for pure link/video items.
	Body string `json:"body,omitempty"`

	// Category is the topical label used for affinity and diversity caps.
	Category string `json:"category"`

	// Author is the content author, informational only.
	Author string `json:"author,omitempty"`

	// URL is the external link, if any.
	URL string `json:"url,omitempty"`

	// Embedding is the L2-normalized content vector of dimension D.
	// Nil until the embedding pass has processed the item.
	Embedding []float32 `json:"embedding,omitempty"`

	// RawScore is the upstream engagement score.
	RawScore float64 `json:"raw_score"`

	// CommentCount is the number of comments on the item.
	CommentCount int `json:"comment_count"`

	// UpvoteRatio is the fraction of positive votes, in [0, 1].
	UpvoteRatio float64 `json:"upvote_ratio"`

	// AgeHours is the item age in hours at ingestion refresh time.
	AgeHours float64 `json:"age_hours"`

	// ContentType is the feed-composition bucket (text/link/video).
	ContentType ContentType `json:"content_type"`

	// Unsafe flags content that must never be served.
	Unsafe bool `json:"unsafe,omitempty"`
}

// HasEmbedding reports whether the item has been through the embedding pass.
func (i *Item) HasEmbedding() bool {
	return len(i.Embedding) > 0
}

// UserProfile holds a user's learned preferences and interaction counters.
// Mutated only by the preference tracker.
type UserProfile struct {
	// ID is the unique user identifier.
	ID string `json:"id"`

	// Username is an optional display name.
	Username string `json:"username,omitempty"`

	// Preference is the user's preference vector of dimension D.
	// It is unit-norm after every update, or exactly the zero vector
	// (represented as nil or all zeros) for users with no positive signal.
	Preference []float32 `json:"preference,omitempty"`

	// Affinity maps category to a learned weight in [0, 1].
	Affinity map[string]float64 `json:"affinity,omitempty"`

	// ExplorationRate is the fraction of the feed randomized for discovery.
	ExplorationRate float64 `json:"exploration_rate"`

	// TotalInteractions counts all recorded feedback events.
	TotalInteractions int `json:"total_interactions"`

	// TotalLikes counts like events.
	TotalLikes int `json:"total_likes"`

	// TotalDislikes counts dislike events.
	TotalDislikes int `json:"total_dislikes"`

	// AvgReadSeconds is the running mean engagement duration.
	AvgReadSeconds float64 `json:"avg_read_seconds"`

	// CreatedAt is when the profile was first created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the profile was last mutated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserProfile creates a cold-start profile: zero preference vector,
// empty affinity map, and the supplied default exploration rate.
func NewUserProfile(id string, explorationRate float64) *UserProfile {
	now := time.Now().UTC()
	return &UserProfile{
		ID:              id,
		Affinity:        make(map[string]float64),
		ExplorationRate: explorationRate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsCold reports whether the profile carries no learned signal yet:
// zero (or absent) preference vector and an empty affinity map.
func (p *UserProfile) IsCold() bool {
	if len(p.Affinity) > 0 {
		return false
	}
	for _, v := range p.Preference {
		if v != 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the profile.
func (p *UserProfile) Clone() *UserProfile {
	c := *p
	if p.Preference != nil {
		c.Preference = make([]float32, len(p.Preference))
		copy(c.Preference, p.Preference)
	}
	if p.Affinity != nil {
		c.Affinity = make(map[string]float64, len(p.Affinity))
		for k, v := range p.Affinity {
			c.Affinity[k] = v
		}
	}
	return &c
}

// InteractionEvent is a single feedback event. Events are append-only:
// never mutated or deleted once recorded.
type InteractionEvent struct {
	// UserID identifies the user who produced the event.
	UserID string `json:"user_id"`

	// ItemID identifies the item the event applies to.
	ItemID string `json:"item_id"`

	// Type is the feedback kind (like/dislike/skip/click).
	Type InteractionType `json:"type"`

	// DurationSeconds is the engagement duration in seconds.
	DurationSeconds float64 `json:"duration_seconds"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
}
