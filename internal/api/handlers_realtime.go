// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package api

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"

	"github.com/tomtom215/murmur/internal/ingest"
	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/validation"
)

// InternalTokenHeader carries the shared secret for event ingestion.
const InternalTokenHeader = "X-Internal-Token"

// RealtimeStats returns the per-user socket counts. The endpoint does not
// exist in production.
func (h *Handler) RealtimeStats(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Production {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Not found", nil, nil)
		return
	}
	respondJSON(w, r, http.StatusOK, h.stats.Stats())
}

// PublishEvent accepts one event envelope from another process and fans
// it out.
func (h *Handler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	if h.sink == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Event ingestion is not available", nil, nil)
		return
	}
	if !h.ingestAuthorized(r) {
		logging.Ctx(r.Context()).Warn().Str("remote_addr", r.RemoteAddr).Msg("event ingestion rejected: bad internal token")
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid or missing internal token", nil, nil)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, ingest.MaxEnvelopeBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "Event envelope is too large", nil, nil)
			return
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Failed to read request body", nil, err)
		return
	}

	if err := h.sink.HandlePayload(ingest.SourceHTTP, body); err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			apiErr := verr.ToAPIError()
			respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, apiErr.Message, apiErr.Details, nil)
			return
		}
		if errors.Is(err, ingest.ErrInvalidEnvelope) {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil, nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to dispatch event", nil, err)
		return
	}

	respondJSON(w, r, http.StatusAccepted, map[string]bool{"accepted": true})
}

func (h *Handler) ingestAuthorized(r *http.Request) bool {
	if h.cfg.IngestToken == "" {
		return true
	}
	got := r.Header.Get(InternalTokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.cfg.IngestToken)) == 1
}
