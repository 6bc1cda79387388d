// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package ingest

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/realtime"
)

func init() {
	logging.SetLogger(logging.NewTestLogger(io.Discard))
}

// call is one recorded broadcast. Users is nil for BroadcastToAll.
type call struct {
	Users []string
	Event realtime.Event
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []call
}

func (b *recordingBroadcaster) BroadcastToAll(ev realtime.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call{Event: ev})
}

func (b *recordingBroadcaster) BroadcastToUsers(users []string, ev realtime.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call{Users: append([]string(nil), users...), Event: ev})
}

func (b *recordingBroadcaster) snapshot() []call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]call(nil), b.calls...)
}

func (b *recordingBroadcaster) waitCalls(t *testing.T, n int) []call {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if c := b.snapshot(); len(c) >= n {
			return c
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d broadcasts, got %d", n, len(b.snapshot()))
	return nil
}

func waitReady(t *testing.T, ready <-chan struct{}, errCh <-chan error) {
	t.Helper()
	select {
	case <-ready:
	case err := <-errCh:
		t.Fatalf("Serve() returned before ready: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber never became ready")
	}
}
