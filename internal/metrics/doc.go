// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

/*
Package metrics defines the Prometheus collectors exported at /metrics.

Collectors are registered on the default registry with promauto:

  - websocket_connections, websocket_online_users: registry gauges
  - websocket_presence_transitions_total{status}: online/offline edges
  - websocket_frames_sent_total, websocket_frames_dropped_total: fan-out
  - websocket_handshake_rejections_total{reason}: gateway refusals
  - realtime_events_ingested_total{source}: HTTP, Redis and NATS bridges
  - api_requests_total, api_request_duration_seconds, api_active_requests
*/
package metrics
