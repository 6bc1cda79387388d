// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package session resolves the user behind a WebSocket upgrade request.
//
// The REST API owns login and session issuance. This package only reads:
// SessionAuthenticator looks a session id (X-Session-ID header or sid
// cookie) up in a Store, and JWTAuthenticator verifies an HS256 token.
// Both return "" with a nil error when the request has no valid identity.
// Only a failing store yields an error, wrapped with ErrAdapter.
//
// Stores are MemoryStore, BadgerStore (badger v4) and RedisStore
// (go-redis v9). NewAdapter builds the configured one and wraps the badger
// and redis stores in a BreakerStore, so a dead backend fails upgrades fast
// until a probe lookup succeeds again.
package session
