// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package logging

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"short", "***"},
		{"abcdefghijklmnop", "abcd...mnop"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeHeaders(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("Cookie", "sid=secret-session")
	h.Set("Authorization", "Bearer abc")
	h.Set("X-Internal-Token", "tok")
	h.Add("Accept", "text/html")
	h.Add("Accept", "application/json")

	got := SanitizeHeaders(h)

	for _, k := range []string{"cookie", "authorization", "x-internal-token"} {
		if got[k] != redacted {
			t.Errorf("header %s = %q, want redacted", k, got[k])
		}
	}
	if got["accept"] != "text/html, application/json" {
		t.Errorf("accept = %q", got["accept"])
	}
}

func TestHeadersDict(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	h := http.Header{}
	h.Set("Cookie", "sid=secret-session")
	Info().Dict("headers", HeadersDict(h)).Msg("upgrade")

	if strings.Contains(buf.String(), "secret-session") {
		t.Errorf("cookie value leaked: %s", buf.String())
	}
}
