// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/realtime"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

type fakeStats struct {
	stats []realtime.UserStats
}

func (f *fakeStats) Stats() []realtime.UserStats { return f.stats }

func (f *fakeStats) ConnectionCount() int {
	n := 0
	for _, s := range f.stats {
		n += s.Count
	}
	return n
}

func (f *fakeStats) UserCount() int { return len(f.stats) }

// recordingSink records payloads and returns err.
type recordingSink struct {
	mu       sync.Mutex
	payloads [][]byte
	sources  []string
	err      error
}

func (s *recordingSink) HandlePayload(source string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, append([]byte(nil), payload...))
	s.sources = append(s.sources, source)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

// headerAuth authenticates from the X-User header.
var headerAuth = realtime.AuthenticatorFunc(func(r *http.Request) (string, error) {
	return r.Header.Get("X-User"), nil
})

func noRateLimit() *ChiMiddleware {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	return NewChiMiddleware(cfg)
}

func newTestRouter(t *testing.T, h *Handler) (*realtime.Registry, http.Handler) {
	t.Helper()
	reg := realtime.NewRegistry()
	t.Cleanup(reg.Close)
	gw := realtime.NewGateway(reg, headerAuth, realtime.GatewayConfig{Paths: []string{"/ws", "/api/v1/ws"}})
	return reg, NewRouter(h, gw, noRateLimit()).SetupChi()
}

func doRequest(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}
