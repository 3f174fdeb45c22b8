// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package services

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/curatus/internal/logging"
)

// mockMaintainer counts maintenance calls.
type mockMaintainer struct {
	rebuilds   atomic.Int32
	recomputes atomic.Int32
	rebuildErr error
}

func (m *mockMaintainer) RebuildIndex(ctx context.Context) (int, error) {
	m.rebuilds.Add(1)
	return 0, m.rebuildErr
}

func (m *mockMaintainer) RecomputeAll(ctx context.Context) error {
	m.recomputes.Add(1)
	return nil
}

func TestMaintenanceServiceImplementsSuture(t *testing.T) {
	var _ suture.Service = NewMaintenanceService(&mockMaintainer{},
		MaintenanceServiceConfig{}, logging.NewTestLogger(io.Discard))
}

func TestMaintenanceServiceRebuildOnStartup(t *testing.T) {
	mock := &mockMaintainer{}
	svc := NewMaintenanceService(mock, MaintenanceServiceConfig{
		RebuildOnStartup:  true,
		RebuildInterval:   time.Hour,
		RecomputeInterval: time.Hour,
	}, logging.NewTestLogger(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for mock.rebuilds.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("startup rebuild never happened")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestMaintenanceServiceTicks(t *testing.T) {
	mock := &mockMaintainer{}
	svc := NewMaintenanceService(mock, MaintenanceServiceConfig{
		RebuildInterval:   10 * time.Millisecond,
		RecomputeInterval: 10 * time.Millisecond,
	}, logging.NewTestLogger(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for mock.rebuilds.Load() < 2 || mock.recomputes.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("ticks missing: rebuilds=%d recomputes=%d",
				mock.rebuilds.Load(), mock.recomputes.Load())
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	cancel()
	<-done
}

func TestMaintenanceServiceSurvivesRebuildFailure(t *testing.T) {
	mock := &mockMaintainer{rebuildErr: errors.New("catalog unavailable")}
	svc := NewMaintenanceService(mock, MaintenanceServiceConfig{
		RebuildInterval:   10 * time.Millisecond,
		RecomputeInterval: time.Hour,
	}, logging.NewTestLogger(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Failures must not terminate the loop; ticks keep retrying.
	deadline := time.After(2 * time.Second)
	for mock.rebuilds.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("rebuild retries stalled at %d", mock.rebuilds.Load())
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	cancel()
	<-done
}
