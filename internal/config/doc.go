// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package config loads Murmur configuration with koanf.
//
// Sources are layered with later sources overriding earlier ones:
//
//	defaults  ->  config.yaml  ->  environment
//
// Environment variables use flat legacy-style names (HTTP_PORT, REDIS_URL,
// SESSION_MODE) mapped onto nested keys by envTransformFunc. List values
// (REALTIME_PATHS, CORS_ORIGINS) are comma separated.
//
// Example config.yaml:
//
//	server:
//	  port: 8080
//	  environment: production
//	realtime:
//	  paths: ["/ws"]
//	session:
//	  mode: session
//	  store: redis
//	redis:
//	  enabled: true
//	  url: redis://redis:6379/0
//	  presence_mirror: true
//	security:
//	  cors_origins: ["https://app.example.com"]
package config
