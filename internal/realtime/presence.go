// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package realtime

import (
	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/metrics"
)

// Presence is derived, never stored: a user is online iff the registry
// holds at least one socket for them. The registry calls transitionLocked
// on the 0->1 and 1->0 edges only, so each edge produces exactly one
// presence:update and one observer call.

// PresenceObserver is notified of presence edges in the order they occur.
// Calls are made while the registry lock is held; implementations must
// return quickly and must not call back into the Registry.
type PresenceObserver interface {
	PresenceChanged(userID, status string)
}

// PresenceObserverFunc adapts a function to PresenceObserver.
type PresenceObserverFunc func(userID, status string)

// PresenceChanged implements PresenceObserver.
func (f PresenceObserverFunc) PresenceChanged(userID, status string) {
	f(userID, status)
}

// WithObserver registers a presence observer.
func WithObserver(o PresenceObserver) Option {
	return func(r *Registry) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// transitionLocked announces an edge to every bound socket, then to the
// observers. r.mu must be held.
func (r *Registry) transitionLocked(userID, status string) {
	metrics.RecordPresence(status)
	logging.Info().
		Str("component", "registry").
		Str("user_id", userID).
		Str("status", status).
		Int("online_users", len(r.users)).
		Msg("presence changed")

	frame, ok := encode(Event{
		Event: EventPresenceUpdate,
		Data:  PresenceUpdate{UserID: userID, Status: status},
	})
	if ok {
		r.fanoutAllLocked(frame)
	}
	for _, o := range r.observers {
		o.PresenceChanged(userID, status)
	}
}
