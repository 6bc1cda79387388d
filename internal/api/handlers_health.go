// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package api

import (
	"context"
	"net/http"
	"time"
)

// HealthLive handles liveness probes. It reports 200 while the process
// is serving, regardless of external dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probes. Every configured check must pass;
// otherwise the endpoint answers 503 with the failing check names.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.CheckTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.cfg.Checks))
	ready := true
	for _, c := range h.cfg.Checks {
		if err := c.Check(ctx); err != nil {
			ready = false
			checks[c.Name] = "failed"
			continue
		}
		checks[c.Name] = "ok"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, r, status, map[string]interface{}{
		"ready":        ready,
		"checks":       checks,
		"connections":  h.stats.ConnectionCount(),
		"online_users": h.stats.UserCount(),
		"uptime":       time.Since(h.startTime).Seconds(),
	})
}
