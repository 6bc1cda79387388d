// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package logging

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

const redacted = "[REDACTED]"

// sensitiveHeaders are never written to logs verbatim.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"proxy-authorization": true,
	"x-internal-token":    true,
	"x-session-id":        true,
	"sec-websocket-key":   true,
}

// SanitizeToken masks a token, keeping the first and last 4 characters.
//
//	"eyJhbGciOiJIUzI1NiJ9.payload" -> "eyJh...load"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeSessionID masks a session id.
func SanitizeSessionID(id string) string {
	return SanitizeToken(id)
}

// SanitizeHeaders returns a flattened copy of h with credential-bearing
// headers replaced by a placeholder. Header names are lower-cased.
func SanitizeHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		key := strings.ToLower(name)
		if sensitiveHeaders[key] {
			out[key] = redacted
			continue
		}
		out[key] = strings.Join(values, ", ")
	}
	return out
}

// HeadersDict renders h as a zerolog dictionary with sensitive values redacted.
//
//	logging.Debug().Dict("headers", logging.HeadersDict(r.Header)).Msg("upgrade request")
func HeadersDict(h http.Header) *zerolog.Event {
	d := zerolog.Dict()
	for k, v := range SanitizeHeaders(h) {
		d = d.Str(k, v)
	}
	return d
}
