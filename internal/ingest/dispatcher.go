// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package ingest

import (
	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/metrics"
	"github.com/tomtom215/murmur/internal/realtime"
)

// Ingest sources, used as the metrics label.
const (
	SourceHTTP  = "http"
	SourceRedis = "redis"
	SourceNATS  = "nats"
)

// Dispatcher routes validated envelopes to the broadcaster.
type Dispatcher struct {
	broadcaster realtime.Broadcaster
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(b realtime.Broadcaster) *Dispatcher {
	return &Dispatcher{broadcaster: b}
}

// Dispatch fans env out. env must already be valid.
func (d *Dispatcher) Dispatch(source string, env Envelope) {
	metrics.RecordIngest(source, true)
	ev := env.ToEvent()
	if env.Broadcast {
		d.broadcaster.BroadcastToAll(ev)
		return
	}
	d.broadcaster.BroadcastToUsers(env.UserIDs, ev)
}

// HandlePayload decodes, validates and dispatches one raw envelope.
// Invalid payloads are counted, logged and returned.
func (d *Dispatcher) HandlePayload(source string, payload []byte) error {
	env, err := Decode(payload)
	if err != nil {
		metrics.RecordIngest(source, false)
		logging.Warn().Err(err).Str("source", source).Int("bytes", len(payload)).Msg("event envelope rejected")
		return err
	}
	d.Dispatch(source, env)
	return nil
}
