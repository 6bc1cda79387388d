// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

/*
Package ingest accepts events from other processes and hands them to the
realtime broadcaster.

The REST API's message, notification, like/comment and typing handlers do not
share memory with the gateway. They publish an Envelope instead:

	{"user_ids": ["u1", "u2"], "event": "message:new", "data": {...}}
	{"broadcast": true, "event": "post:new", "data": {...}}

Transports:

  - HTTP: POST /api/v1/realtime/events (see internal/api)
  - Redis pub/sub: RedisSubscriber on "murmur:events"
  - NATS: NATSSubscriber on "murmur.events", optionally in a queue group

Every transport goes through Dispatcher.HandlePayload, which validates the
envelope, refuses tags reserved for the gateway's own protocol
(connection:*, presence:*), and routes to BroadcastToAll or
BroadcastToUsers. Delivery is best effort, like the broadcaster itself.
*/
package ingest
