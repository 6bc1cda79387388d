// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package api

import (
	"context"
	"time"

	"github.com/tomtom215/murmur/internal/realtime"
)

// StatsSource is the read side of the connection registry.
type StatsSource interface {
	Stats() []realtime.UserStats
	ConnectionCount() int
	UserCount() int
}

// EventSink accepts raw event envelopes. *ingest.Dispatcher implements it.
type EventSink interface {
	HandlePayload(source string, payload []byte) error
}

// ReadinessCheck is one dependency probed by the readiness endpoint.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// Production hides diagnostics endpoints.
	Production bool

	// IngestToken, when set, must be presented in X-Internal-Token on
	// POST /api/v1/realtime/events.
	IngestToken string

	// Checks run on every readiness probe.
	Checks []ReadinessCheck

	// CheckTimeout bounds all readiness checks together.
	CheckTimeout time.Duration
}

// Handler serves the HTTP API.
type Handler struct {
	stats     StatsSource
	sink      EventSink
	cfg       HandlerConfig
	startTime time.Time
}

// NewHandler creates a Handler. sink may be nil, in which case the ingest
// endpoint reports 503.
func NewHandler(stats StatsSource, sink EventSink, cfg HandlerConfig) *Handler {
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = 2 * time.Second
	}
	return &Handler{
		stats:     stats,
		sink:      sink,
		cfg:       cfg,
		startTime: time.Now(),
	}
}
