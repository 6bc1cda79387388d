// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package realtime

import (
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/murmur/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

var fakeIDs atomic.Uint64

// fakeSocket records frames in memory.
type fakeSocket struct {
	id uint64

	mu       sync.Mutex
	frames   []Event
	writable bool
	closed   int
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{id: fakeIDs.Add(1) + 1<<40, writable: true}
}

func (f *fakeSocket) ID() uint64 { return f.id }

func (f *fakeSocket) Writable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writable
}

func (f *fakeSocket) Send(frame []byte) bool {
	var e Event
	if err := json.Unmarshal(frame, &e); err != nil {
		panic(err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, e)
	return true
}

func (f *fakeSocket) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writable = false
	f.closed++
}

func (f *fakeSocket) setWritable(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writable = v
}

func (f *fakeSocket) events() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.frames))
	copy(out, f.frames)
	return out
}

func (f *fakeSocket) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

// presenceUpdates returns the presence:update events received by f.
func (f *fakeSocket) presenceUpdates() []PresenceUpdate {
	var out []PresenceUpdate
	for _, e := range f.events() {
		if e.Event != EventPresenceUpdate {
			continue
		}
		m, _ := e.Data.(map[string]any)
		uid, _ := m["userId"].(string)
		status, _ := m["status"].(string)
		out = append(out, PresenceUpdate{UserID: uid, Status: status})
	}
	return out
}

// presenceRecorder collects observer notifications.
type presenceRecorder struct {
	mu      sync.Mutex
	changes []PresenceUpdate
}

func (p *presenceRecorder) PresenceChanged(userID, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, PresenceUpdate{UserID: userID, Status: status})
}

func (p *presenceRecorder) snapshot() []PresenceUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PresenceUpdate, len(p.changes))
	copy(out, p.changes)
	return out
}

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s: timeout after %v", msg, timeout)
}
