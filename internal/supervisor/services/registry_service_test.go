// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/murmur/internal/realtime"
)

// mockRegistry is a test double for ContextRegistry.
type mockRegistry struct {
	runErr   error
	runCount atomic.Int32
}

func (m *mockRegistry) RunWithContext(ctx context.Context) error {
	m.runCount.Add(1)
	if m.runErr != nil {
		return m.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

type stubSocket struct{}

func (stubSocket) ID() uint64         { return 1 }
func (stubSocket) Writable() bool     { return true }
func (stubSocket) Send(_ []byte) bool { return true }
func (stubSocket) Close()             {}

func TestRegistryService_Interface(t *testing.T) {
	var _ suture.Service = (*RegistryService)(nil)
	var _ ContextRegistry = (*realtime.Registry)(nil)
}

func TestRegistryService_Serve(t *testing.T) {
	t.Run("returns context error on cancellation", func(t *testing.T) {
		reg := &mockRegistry{}
		svc := NewRegistryService(reg)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Error("Serve did not return after context cancellation")
		}
		if reg.runCount.Load() != 1 {
			t.Errorf("expected 1 run, got %d", reg.runCount.Load())
		}
	})

	t.Run("propagates registry errors", func(t *testing.T) {
		expectedErr := errors.New("registry failure")
		svc := NewRegistryService(&mockRegistry{runErr: expectedErr})

		if err := svc.Serve(context.Background()); !errors.Is(err, expectedErr) {
			t.Errorf("expected %v, got %v", expectedErr, err)
		}
	})

	t.Run("real registry rejects binds after shutdown", func(t *testing.T) {
		reg := realtime.NewRegistry()
		svc := NewRegistryService(reg)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded, got %v", err)
		}
		if err := reg.Bind("u1", stubSocket{}); !errors.Is(err, realtime.ErrRegistryClosed) {
			t.Errorf("Bind() after shutdown = %v, want ErrRegistryClosed", err)
		}
	})
}

func TestRegistryService_String(t *testing.T) {
	if got := NewRegistryService(&mockRegistry{}).String(); got != "connection-registry" {
		t.Errorf("expected 'connection-registry', got %q", got)
	}
}
