// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package realtime

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/metrics"
)

var (
	// ErrEmptyUserID is returned by Bind for an empty user id.
	ErrEmptyUserID = errors.New("realtime: empty user id")

	// ErrNilSocket is returned by Bind for a nil socket.
	ErrNilSocket = errors.New("realtime: nil socket")

	// ErrSocketOwned is returned when a socket is already bound to another user.
	ErrSocketOwned = errors.New("realtime: socket bound to another user")

	// ErrRegistryClosed is returned by Bind after Close.
	ErrRegistryClosed = errors.New("realtime: registry closed")
)

// ShutdownReason describes why the registry stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
	ShutdownReasonClosed          ShutdownReason = "closed"
)

// UserStats is one diagnostics row.
type UserStats struct {
	UserID string `json:"userId"`
	Count  int    `json:"count"`
}

// Registry maps user ids to their live sockets and derives presence from
// the population of that map.
//
// A user id is a key iff its socket set is non-empty, and a socket is owned
// by at most one user. Mutation and broadcast iteration share one mutex so
// a bind racing an unbind for the same user cannot lose an edge.
type Registry struct {
	mu        sync.Mutex
	users     map[string]map[uint64]Socket
	owner     map[uint64]string
	observers []PresenceObserver
	closed    bool
	done      chan struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		users: make(map[string]map[uint64]Socket),
		owner: make(map[uint64]string),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind adds socket to userID's set. The new socket is sent connection:ack
// followed by a presence:state snapshot that includes userID. If this is the
// user's first socket, presence:update online goes to every bound socket.
//
// Binding a socket that is already bound to the same user is a no-op.
func (r *Registry) Bind(userID string, socket Socket) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if socket == nil {
		return ErrNilSocket
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}
	id := socket.ID()
	if owner, ok := r.owner[id]; ok {
		if owner == userID {
			return nil
		}
		return ErrSocketOwned
	}

	set, ok := r.users[userID]
	first := !ok || len(set) == 0
	if !ok {
		set = make(map[uint64]Socket)
		r.users[userID] = set
	}
	set[id] = socket
	r.owner[id] = userID
	metrics.WSConnections.Inc()

	r.sendLocked(socket, Event{Event: EventConnectionAck})
	r.sendLocked(socket, Event{Event: EventPresenceState, Data: PresenceState{UserIDs: r.onlineLocked()}})

	logging.Debug().
		Str("component", "registry").
		Str("user_id", userID).
		Uint64("socket_id", id).
		Int("user_sockets", len(set)).
		Msg("socket bound")

	if first {
		r.transitionLocked(userID, StatusOnline)
	}
	return nil
}

// Unbind removes socket from userID's set. Removing the last socket deletes
// the key and sends presence:update offline to the remaining sockets.
// Unbinding an unknown socket is a no-op.
func (r *Registry) Unbind(userID string, socket Socket) {
	if socket == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := socket.ID()
	set, ok := r.users[userID]
	if !ok {
		return
	}
	if _, bound := set[id]; !bound {
		return
	}
	delete(set, id)
	delete(r.owner, id)
	metrics.WSConnections.Dec()

	logging.Debug().
		Str("component", "registry").
		Str("user_id", userID).
		Uint64("socket_id", id).
		Int("user_sockets", len(set)).
		Msg("socket unbound")

	if len(set) == 0 {
		delete(r.users, userID)
		r.transitionLocked(userID, StatusOffline)
	}
}

// BroadcastToAll sends event to every writable socket. It never fails.
func (r *Registry) BroadcastToAll(event Event) {
	frame, ok := encode(event)
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.fanoutAllLocked(frame)
}

// BroadcastToUsers sends event to every writable socket of the listed users.
// Users without sockets are skipped. An empty list performs no work. A user
// listed twice still receives one frame per socket. It never fails.
func (r *Registry) BroadcastToUsers(userIDs []string, event Event) {
	if len(userIDs) == 0 {
		return
	}
	frame, ok := encode(event)
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(userIDs))
	for _, uid := range userIDs {
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		for _, s := range r.users[uid] {
			deliver(s, frame)
		}
	}
}

// Stats returns the socket count of every present user, sorted by user id.
func (r *Registry) Stats() []UserStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := make([]UserStats, 0, len(r.users))
	for uid, set := range r.users {
		stats = append(stats, UserStats{UserID: uid, Count: len(set)})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].UserID < stats[j].UserID })
	return stats
}

// OnlineUsers returns the sorted ids of users with at least one socket.
func (r *Registry) OnlineUsers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.onlineLocked()
}

// IsOnline reports whether userID has at least one socket.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[userID]
	return ok
}

// ConnectionCount returns the number of bound sockets.
func (r *Registry) ConnectionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.owner)
}

// UserCount returns the number of online users.
func (r *Registry) UserCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// RunWithContext blocks until ctx is done or Close is called, then closes
// every socket. It is the registry's supervised lifecycle.
func (r *Registry) RunWithContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		n := r.ConnectionCount()
		r.Close()
		logging.Info().
			Str("component", "registry").
			Str("reason", string(shutdownReason(ctx))).
			Int("sockets_closed", n).
			Msg("registry stopped")
		return ctx.Err()
	case <-r.done:
		logging.Info().
			Str("component", "registry").
			Str("reason", string(ShutdownReasonClosed)).
			Msg("registry stopped")
		return nil
	}
}

// Close closes every bound socket and empties the registry. Later Binds
// fail with ErrRegistryClosed. No presence events are sent on teardown.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	sockets := make([]Socket, 0, len(r.owner))
	for _, set := range r.users {
		for _, s := range set {
			sockets = append(sockets, s)
		}
	}
	metrics.WSConnections.Sub(float64(len(r.owner)))
	metrics.WSOnlineUsers.Sub(float64(len(r.users)))
	r.users = make(map[string]map[uint64]Socket)
	r.owner = make(map[uint64]string)
	close(r.done)
	r.mu.Unlock()

	// Socket close callbacks call Unbind, which needs the lock.
	for _, s := range sockets {
		s.Close()
	}
}

func (r *Registry) fanoutAllLocked(frame []byte) {
	for _, set := range r.users {
		for _, s := range set {
			deliver(s, frame)
		}
	}
}

func (r *Registry) sendLocked(s Socket, event Event) {
	if frame, ok := encode(event); ok {
		deliver(s, frame)
	}
}

func (r *Registry) onlineLocked() []string {
	ids := make([]string, 0, len(r.users))
	for uid := range r.users {
		ids = append(ids, uid)
	}
	sort.Strings(ids)
	return ids
}

// deliver writes frame to s if it is writable. Failures are counted only.
func deliver(s Socket, frame []byte) {
	if !s.Writable() || !s.Send(frame) {
		metrics.WSFramesDropped.Inc()
		return
	}
	metrics.WSFramesSent.Inc()
}

func encode(event Event) ([]byte, bool) {
	frame, err := event.Encode()
	if err != nil {
		metrics.WSErrors.WithLabelValues("marshal").Inc()
		logging.Error().Err(err).Str("event", event.Event).Msg("failed to encode event")
		return nil, false
	}
	return frame, true
}

func shutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}
