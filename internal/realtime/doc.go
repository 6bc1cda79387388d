// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

/*
Package realtime tracks which users hold open WebSocket connections and fans
application events out to them.

Key Components:

  - Gateway: Filters upgrade requests by path, authenticates them, and binds
    accepted connections
  - Registry: Maps user ids to socket sets and derives presence from them
  - Conn: A gorilla/websocket connection with read and write pumps
  - Event: The {"event","data"} JSON text frame

Architecture:

	  HTTP upgrade
	       │
	┌──────┴──────┐   401 / 500 / drop
	│   Gateway   │ ───────────────────▶ (transport closed)
	└──────┬──────┘
	       │ Bind / Unbind
	┌──────┴──────┐   PresenceChanged
	│  Registry   │ ───────────────────▶ observers (presence mirror)
	└──────┬──────┘
	       │ Send
	┌──────┴──────┬─────────┐
	│ user A #1   │ A #2    │ B #1
	└─────────────┴─────────┘

Presence:

A user is online exactly while at least one socket is bound for them.
presence:update online is fanned out when the first socket binds and
presence:update offline when the last one unbinds. Every newly bound socket
first receives connection:ack and then a presence:state snapshot. Closing
the registry tears sockets down without sending presence events.

Broadcasting:

BroadcastToAll and BroadcastToUsers encode the event once and enqueue it on
every writable target socket. Send never blocks; a full queue drops the
frame and the drop is counted. Neither call returns an error.

Thread Safety:

All Registry methods are safe for concurrent use. Observers run while the
registry lock is held and must not call back into the Registry.

Usage Example:

	registry := realtime.NewRegistry()
	gateway := realtime.NewGateway(registry, authenticator, realtime.GatewayConfig{
	    Paths: []string{"/ws"},
	})

	mux.Handle("/ws", gateway)
	handler := gateway.Guard(mux)

	registry.BroadcastToUsers([]string{"u1", "u2"},
	    realtime.NewEvent("message:new", map[string]any{"id": 42}))
*/
package realtime
