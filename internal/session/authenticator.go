// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/murmur/internal/logging"
)

// Default request locations of the session id.
const (
	DefaultCookieName = "sid"
	DefaultHeaderName = "X-Session-ID"
)

// SessionAuthenticator resolves the user of an upgrade request from the
// HTTP session the REST API issued. It satisfies realtime.Authenticator.
type SessionAuthenticator struct {
	store      Store
	cookieName string
	headerName string
}

// NewSessionAuthenticator creates an authenticator over store. Empty names
// fall back to the defaults.
func NewSessionAuthenticator(store Store, cookieName, headerName string) *SessionAuthenticator {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if headerName == "" {
		headerName = DefaultHeaderName
	}
	return &SessionAuthenticator{store: store, cookieName: cookieName, headerName: headerName}
}

// Authenticate returns the session's user id, "" when the request carries no
// valid session, or an error wrapping ErrAdapter when the store failed.
func (a *SessionAuthenticator) Authenticate(r *http.Request) (string, error) {
	id := a.sessionID(r)
	if id == "" {
		return "", nil
	}

	s, err := a.store.Get(r.Context(), id)
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired):
		logging.Ctx(r.Context()).Debug().
			Err(err).
			Str("session_id", logging.SanitizeSessionID(id)).
			Msg("session rejected")
		return "", nil
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrAdapter, err)
	}
	return s.UserID, nil
}

// sessionID prefers the header over the cookie.
func (a *SessionAuthenticator) sessionID(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(a.headerName)); v != "" {
		return v
	}
	if c, err := r.Cookie(a.cookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
