// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/murmur/internal/middleware"
	"github.com/tomtom215/murmur/internal/realtime"
)

// Router wires the API handlers and the realtime gateway onto chi.
type Router struct {
	handler       *Handler
	gateway       *realtime.Gateway
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. mw may be nil for default middleware settings.
func NewRouter(handler *Handler, gateway *realtime.Gateway, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		gateway:       gateway,
		chiMiddleware: mw,
	}
}

// SetupChi builds the HTTP handler. The gateway guard wraps everything so
// an upgrade request for a non-realtime path is closed before routing.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Not found", nil, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil, nil)
	})

	// ========================
	// Realtime Upgrade Endpoints
	// ========================
	// Prefix matching is the gateway's; chi only has to route every path
	// under each prefix to it.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitUpgrade())
		for _, p := range router.gateway.Paths() {
			r.Handle(p, router.gateway)
			r.Handle(p+"/*", router.gateway)
		}
	})

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// ========================
	// Realtime API
	// ========================
	r.Route("/api/v1/realtime", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Get("/stats", router.handler.RealtimeStats)
		r.Post("/events", router.handler.PublishEvent)
	})

	// ========================
	// Prometheus
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	return router.gateway.Guard(r)
}
