// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

func TestWorkerService(t *testing.T) {
	var _ suture.Service = (*WorkerService)(nil)

	t.Run("wraps failures with the worker name", func(t *testing.T) {
		cause := errors.New("value log locked")
		svc := NewWorkerService("session-gc", func(context.Context) error { return cause })

		err := svc.Serve(context.Background())
		if !errors.Is(err, cause) || !strings.HasPrefix(err.Error(), "session-gc:") {
			t.Errorf("Serve() error = %v", err)
		}
	})

	t.Run("passes through cancellation", func(t *testing.T) {
		svc := NewWorkerService("w", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) || strings.HasPrefix(err.Error(), "w:") {
			t.Errorf("Serve() error = %v, want bare context.Canceled", err)
		}
	})

	t.Run("nil run waits for cancellation", func(t *testing.T) {
		svc := NewWorkerService("idle", nil)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() error = %v", err)
		}
	})

	if got := NewWorkerService("session-gc", nil).String(); got != "session-gc" {
		t.Errorf("String() = %q", got)
	}
}

func TestWorkerService_RestartedBySupervisor(t *testing.T) {
	var runs atomic.Int32
	svc := NewWorkerService("flaky", func(ctx context.Context) error {
		if runs.Add(1) < 3 {
			return errors.New("transient")
		}
		<-ctx.Done()
		return ctx.Err()
	})

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if runs.Load() < 3 {
		t.Errorf("worker ran %d times, want 3", runs.Load())
	}
	cancel()
	<-errCh
}
