// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/curatus/internal/metrics"
	"github.com/tomtom215/curatus/internal/models"
)

const interactionKeyPrefix = "interaction:"

// BadgerInteractionLog implements models.InteractionLog on BadgerDB.
//
// Keys are "interaction:<userID>:<unixnano padded>:<uuid>" so a prefix scan
// over a user yields events in chronological order. Events are append-only.
type BadgerInteractionLog struct {
	db *badger.DB
}

// NewBadgerInteractionLog creates an interaction log on an open Badger handle.
func NewBadgerInteractionLog(db *badger.DB) *BadgerInteractionLog {
	return &BadgerInteractionLog{db: db}
}

// interactionKey builds a chronologically sortable key for an event.
// The timestamp is zero-padded so lexicographic order matches time order;
// the uuid suffix disambiguates events in the same nanosecond.
func interactionKey(userID string, ts time.Time) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s", interactionKeyPrefix, userID, ts.UnixNano(), uuid.NewString()))
}

// Append records an event.
func (s *BadgerInteractionLog) Append(ctx context.Context, event models.InteractionEvent) error {
	start := time.Now()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(interactionKey(event.UserID, event.Timestamp), data)
	})
	metrics.RecordStorageOperation("append", "interactions", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

// GetByUser returns all events for a user, oldest first.
func (s *BadgerInteractionLog) GetByUser(ctx context.Context, userID string) ([]models.InteractionEvent, error) {
	start := time.Now()
	var events []models.InteractionEvent

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(interactionKeyPrefix + userID + ":")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var event models.InteractionEvent
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			})
			if err != nil {
				return fmt.Errorf("unmarshal interaction: %w", err)
			}
			// The prefix scan can overmatch when a user ID itself
			// contains the key delimiter.
			if event.UserID != userID {
				continue
			}
			events = append(events, event)
		}
		return nil
	})
	metrics.RecordStorageOperation("get_by_user", "interactions", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return events, nil
}
