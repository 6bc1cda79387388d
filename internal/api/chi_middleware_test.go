// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/murmur/internal/config"
)

func TestNewChiMiddleware_DefaultConfig(t *testing.T) {
	m := NewChiMiddleware(nil)

	if m.config == nil {
		t.Fatal("config is nil")
	}
	if len(m.config.CORSAllowedOrigins) != 0 {
		t.Errorf("CORSAllowedOrigins = %v, want []", m.config.CORSAllowedOrigins)
	}
	if m.config.CORSMaxAge != 86400 {
		t.Errorf("CORSMaxAge = %d, want 86400", m.config.CORSMaxAge)
	}
	if m.config.CORSAllowCredentials {
		t.Error("credentials must be off by default")
	}
}

func TestChiMiddlewareConfigFrom(t *testing.T) {
	tests := []struct {
		name            string
		sec             config.SecurityConfig
		wantReqs        int
		wantWindow      time.Duration
		wantCredentials bool
	}{
		{
			name:       "zero values keep defaults",
			sec:        config.SecurityConfig{},
			wantReqs:   100,
			wantWindow: time.Minute,
		},
		{
			name:            "explicit origins allow credentials",
			sec:             config.SecurityConfig{CORSOrigins: []string{"https://app.example.com"}, RateLimitReqs: 20, RateLimitWindow: 30 * time.Second},
			wantReqs:        20,
			wantWindow:      30 * time.Second,
			wantCredentials: true,
		},
		{
			name:       "wildcard disables credentials",
			sec:        config.SecurityConfig{CORSOrigins: []string{"*"}},
			wantReqs:   100,
			wantWindow: time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ChiMiddlewareConfigFrom(tt.sec)
			if cfg.RateLimitRequests != tt.wantReqs {
				t.Errorf("RateLimitRequests = %d, want %d", cfg.RateLimitRequests, tt.wantReqs)
			}
			if cfg.RateLimitWindow != tt.wantWindow {
				t.Errorf("RateLimitWindow = %v, want %v", cfg.RateLimitWindow, tt.wantWindow)
			}
			if cfg.CORSAllowCredentials != tt.wantCredentials {
				t.Errorf("CORSAllowCredentials = %v, want %v", cfg.CORSAllowCredentials, tt.wantCredentials)
			}
		})
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	cfg.RateLimitRequests = 1
	m := NewChiMiddleware(cfg)

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	for _, mw := range []func(http.Handler) http.Handler{m.RateLimit(), m.RateLimitHealth(), m.RateLimitUpgrade()} {
		h := mw(ok)
		for i := 0; i < 5; i++ {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
			}
		}
	}
}

func TestRateLimitCustom(t *testing.T) {
	m := NewChiMiddleware(nil)
	h := m.RateLimitCustom(RateLimitConfig{Requests: 1, Window: time.Minute})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	if first.Code != http.StatusOK {
		t.Errorf("first status = %d, want 200", first.Code)
	}
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", second.Code)
	}
}

func TestAPISecurityHeaders(t *testing.T) {
	h := APISecurityHeaders()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	h.ServeHTTP(rec, req)

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("expected HSTS behind an https proxy")
	}
}
