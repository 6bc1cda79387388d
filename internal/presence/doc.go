// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package presence publishes the in-process online set to Redis.
//
// A RedisMirror is registered as a realtime.PresenceObserver and run as a
// supervised service. Keys carry a TTL and are renewed while the user stays
// online, so a crashed process leaves no stale presence behind for longer
// than one TTL.
package presence
