// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

/*
Package middleware provides chi-compatible HTTP middleware.

  - RequestID: assigns an X-Request-ID (uuid v4 unless a well-formed id
    arrives from upstream) and seeds the logging context with request and
    correlation ids.
  - PrometheusMetrics: records api_requests_total,
    api_request_duration_seconds and api_active_requests, labelled by the
    chi route pattern so path parameters do not explode cardinality.

WebSocket upgrades bypass PrometheusMetrics. The response writer wrapper
forwards Hijack and Flush, so handlers that take over the connection keep
working behind it.

Usage:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
