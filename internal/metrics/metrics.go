// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of bound WebSocket connections",
		},
	)

	WSOnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_online_users",
			Help: "Current number of users with at least one bound connection",
		},
	)

	WSPresenceTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_presence_transitions_total",
			Help: "Total number of presence transitions",
		},
		[]string{"status"}, // "online", "offline"
	)

	WSFramesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_frames_sent_total",
			Help: "Total number of frames enqueued to sockets",
		},
	)

	WSFramesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_frames_dropped_total",
			Help: "Total number of frames dropped because a socket was not writable or its queue was full",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of inbound WebSocket messages",
		},
	)

	WSHandshakeRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_handshake_rejections_total",
			Help: "Total number of rejected upgrade requests",
		},
		[]string{"reason"}, // "path", "unauthorized", "adapter_error", "upgrade_failed"
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Event ingestion
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_ingested_total",
			Help: "Total number of events accepted from external producers",
		},
		[]string{"source"}, // "http", "redis", "nats"
	)

	EventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_rejected_total",
			Help: "Total number of events rejected by validation",
		},
		[]string{"source"},
	)

	// Presence mirror
	PresenceMirrorErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_mirror_errors_total",
			Help: "Total number of failed presence mirror writes",
		},
	)

	// Circuit breakers (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPresence records a presence transition and adjusts the online gauge.
func RecordPresence(status string) {
	WSPresenceTransitions.WithLabelValues(status).Inc()
	switch status {
	case "online":
		WSOnlineUsers.Inc()
	case "offline":
		WSOnlineUsers.Dec()
	}
}

// RecordHandshakeRejection counts a refused upgrade.
func RecordHandshakeRejection(reason string) {
	WSHandshakeRejections.WithLabelValues(reason).Inc()
}

// RecordIngest counts an accepted or rejected external event.
func RecordIngest(source string, accepted bool) {
	if accepted {
		EventsIngested.WithLabelValues(source).Inc()
		return
	}
	EventsRejected.WithLabelValues(source).Inc()
}
