// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package realtime

import (
	"strings"

	"github.com/goccy/go-json"
)

// Event tags emitted by the registry itself.
const (
	EventConnectionAck  = "connection:ack"
	EventPresenceState  = "presence:state"
	EventPresenceUpdate = "presence:update"
	EventPong           = "pong"
)

// Presence statuses carried by presence:update.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// reservedPrefixes are tags only the registry may emit.
var reservedPrefixes = []string{"connection:", "presence:"}

// Event is the JSON text frame written to sockets:
//
//	{"event": "<tag>", "data": <optional payload>}
//
// Data is opaque to the registry; callers choose their own payload shapes.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// NewEvent builds an Event with the given tag and payload.
func NewEvent(tag string, data any) Event {
	return Event{Event: tag, Data: data}
}

// PresenceState is the data of presence:state.
type PresenceState struct {
	UserIDs []string `json:"userIds"`
}

// PresenceUpdate is the data of presence:update.
type PresenceUpdate struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// Encode serializes e once for fan-out.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// IsReserved reports whether tag belongs to the registry's own protocol.
func IsReserved(tag string) bool {
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(tag, p) {
			return true
		}
	}
	return false
}
