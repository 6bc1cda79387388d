// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

/*
Command server runs the Murmur realtime gateway.

Murmur accepts authenticated WebSocket connections, tracks which users are
online, and fans events out to their sockets. Other processes push events
over HTTP, a Redis channel or a NATS subject.

# Startup

 1. Configuration: defaults, optional config.yaml, environment (koanf v2)
 2. Logging: zerolog, bridged to slog for the supervisor
 3. Redis (optional): shared client for sessions, event bridge and presence mirror
 4. Session adapter: memory, badger or redis store, or JWT
 5. Connection registry and upgrade gateway
 6. Supervisor tree: data (badger GC, presence mirror), messaging
    (registry, Redis and NATS bridges) and api (HTTP server) layers

# Configuration

Common environment variables:

	HTTP_PORT=8080
	ENVIRONMENT=production          # hides /api/v1/realtime/stats
	REALTIME_PATHS=/ws,/api/v1/ws
	REALTIME_INGEST_TOKEN=...       # required in X-Internal-Token when set
	SESSION_MODE=session            # or jwt (JWT_SECRET, 32+ chars)
	SESSION_STORE=redis             # memory, badger, redis
	REDIS_ENABLED=true
	REDIS_URL=redis://redis:6379/0
	REDIS_PRESENCE_MIRROR=true
	NATS_ENABLED=true
	NATS_URL=nats://nats:4222
	LOG_LEVEL=info
	LOG_FORMAT=json

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests, the registry closes every socket without sending
presence updates, and the presence mirror deletes the keys it owns.
*/
package main
