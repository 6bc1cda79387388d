// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package realtime

// Socket is a bound connection as seen by the registry.
//
// Implementations must be safe for concurrent use. Send must not block:
// it enqueues the frame and reports false when the frame was not accepted.
type Socket interface {
	// ID is unique per physical connection for the life of the process.
	ID() uint64

	// Writable reports whether the transport is still open.
	Writable() bool

	// Send enqueues one text frame.
	Send(frame []byte) bool

	// Close terminates the transport. Safe to call more than once.
	Close()
}

// Broadcaster is the send API used by the rest of the application
// (message, notification, like/comment and typing handlers).
type Broadcaster interface {
	BroadcastToAll(event Event)
	BroadcastToUsers(userIDs []string, event Event)
}
