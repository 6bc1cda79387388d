// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package logging provides the process-wide zerolog logger for Murmur.
//
// Initialize once from main and log through the package helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("user_id", uid).Int("sockets", n).Msg("socket bound")
//
// Ctx attaches request and correlation ids carried by a context. NewSlogLogger
// bridges to log/slog for libraries that require it (the suture event hook).
//
// # Redaction
//
// Upgrade requests carry session cookies and bearer tokens. Never log raw
// headers; use SanitizeHeaders or HeadersDict, and SanitizeToken for single
// credential values.
package logging
