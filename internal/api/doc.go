// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

/*
Package api provides the HTTP surface of the gateway on a chi router.

Routes:

	GET  /ws, /api/v1/ws (and subpaths)   WebSocket upgrade (realtime.Gateway)
	GET  /api/v1/health/live              liveness
	GET  /api/v1/health/ready             readiness, socket and user counts
	GET  /api/v1/realtime/stats           per-user socket counts (not in production)
	POST /api/v1/realtime/events          event envelope ingestion
	GET  /metrics                         prometheus

The realtime paths come from configuration. The whole router is wrapped in
Gateway.Guard, so an upgrade request for any other path has its
connection closed without a response.

JSON responses use the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "BAD_REQUEST", "message": "..."}, "meta": {...}}

Middleware order: RequestID, RealIP, Recoverer, CORS globally; then
per-group rate limiting (httprate, keyed by client IP), security headers
and prometheus instrumentation.
*/
package api
