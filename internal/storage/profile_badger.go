// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/curatus/internal/metrics"
	"github.com/tomtom215/curatus/internal/models"
)

const profileKeyPrefix = "profile:"

// BadgerProfileStore implements models.ProfileStore on BadgerDB, durable
// across restarts.
type BadgerProfileStore struct {
	db *badger.DB
}

// NewBadgerProfileStore creates a profile store on an open Badger handle.
func NewBadgerProfileStore(db *badger.DB) *BadgerProfileStore {
	return &BadgerProfileStore{db: db}
}

// Get retrieves a profile by user ID, or models.ErrProfileNotFound.
func (s *BadgerProfileStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	start := time.Now()
	var profile models.UserProfile

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profileKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return models.ErrProfileNotFound
		}
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &profile)
		})
	})
	metrics.RecordStorageOperation("get", "profiles", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Put inserts or replaces a profile.
func (s *BadgerProfileStore) Put(ctx context.Context, profile *models.UserProfile) error {
	start := time.Now()
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(profileKeyPrefix+profile.ID), data)
	})
	metrics.RecordStorageOperation("put", "profiles", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

// List returns all stored profiles.
func (s *BadgerProfileStore) List(ctx context.Context) ([]*models.UserProfile, error) {
	start := time.Now()
	var profiles []*models.UserProfile

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(profileKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var profile models.UserProfile
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &profile)
			})
			if err != nil {
				return fmt.Errorf("unmarshal profile: %w", err)
			}
			profiles = append(profiles, &profile)
		}
		return nil
	})
	metrics.RecordStorageOperation("list", "profiles", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return profiles, nil
}
