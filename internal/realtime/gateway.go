// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package realtime

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/metrics"
)

// Authenticator maps an upgrade request to a user id. It returns "" with a
// nil error when the request carries no authenticated session, and a
// non-nil error only when the identity backend itself failed.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(r *http.Request) (string, error)

// Authenticate implements Authenticator.
func (f AuthenticatorFunc) Authenticate(r *http.Request) (string, error) {
	return f(r)
}

// Binder is the part of the Registry the gateway needs.
type Binder interface {
	Bind(userID string, socket Socket) error
	Unbind(userID string, socket Socket)
}

// Rejection reasons recorded in websocket_handshake_rejections_total.
const (
	rejectPath         = "path"
	rejectUnauthorized = "unauthorized"
	rejectAdapterError = "adapter_error"
	rejectUpgrade      = "upgrade_failed"
	rejectBind         = "bind_failed"
)

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	// Paths are the accepted URL prefixes, matched on segment boundaries.
	Paths []string

	// AllowedOrigins is checked against the Origin header. "*" or an
	// empty list allows any origin.
	AllowedOrigins []string

	// Conn tunes accepted connections.
	Conn ConnConfig

	// Production disables debug logging of (redacted) request headers.
	Production bool
}

// Gateway authenticates upgrade requests and binds accepted connections
// into a registry.
type Gateway struct {
	binder   Binder
	auth     Authenticator
	cfg      GatewayConfig
	upgrader websocket.Upgrader
}

// NewGateway creates a Gateway.
func NewGateway(binder Binder, auth Authenticator, cfg GatewayConfig) *Gateway {
	paths := make([]string, 0, len(cfg.Paths))
	for _, p := range cfg.Paths {
		if p = strings.TrimRight(p, "/"); p != "" {
			paths = append(paths, p)
		}
	}
	cfg.Paths = paths

	g := &Gateway{binder: binder, auth: auth, cfg: cfg}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      g.checkOrigin,
	}
	return g
}

// Matches reports whether path is under one of the realtime prefixes.
func (g *Gateway) Matches(path string) bool {
	for _, p := range g.cfg.Paths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Paths returns the normalized realtime prefixes.
func (g *Gateway) Paths() []string {
	out := make([]string, len(g.cfg.Paths))
	copy(out, g.cfg.Paths)
	return out
}

// Guard terminates upgrade requests for non-realtime paths before they
// reach next. The transport is closed without any response.
func (g *Gateway) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) && !g.Matches(r.URL.Path) {
			g.terminate(w, r, 0, rejectPath)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServeHTTP handles an upgrade request on a realtime path.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusUpgradeRequired)
		return
	}
	if !g.Matches(r.URL.Path) {
		g.terminate(w, r, 0, rejectPath)
		return
	}

	log := logging.Ctx(r.Context())
	if !g.cfg.Production && logging.IsLevelEnabled(zerolog.DebugLevel) {
		log.Debug().
			Str("path", r.URL.Path).
			Dict("headers", logging.HeadersDict(r.Header)).
			Msg("upgrade request")
	}

	userID, err := g.auth.Authenticate(r)
	if err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("session lookup failed during upgrade")
		g.terminate(w, r, http.StatusInternalServerError, rejectAdapterError)
		return
	}
	if userID == "" {
		log.Debug().Str("path", r.URL.Path).Msg("upgrade rejected: no authenticated user")
		g.terminate(w, r, http.StatusUnauthorized, rejectUnauthorized)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied or the client is gone.
		metrics.RecordHandshakeRejection(rejectUpgrade)
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := NewConn(ws, g.cfg.Conn)
	if err := g.binder.Bind(userID, conn); err != nil {
		metrics.RecordHandshakeRejection(rejectBind)
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to bind socket")
		conn.Close()
		return
	}
	conn.Start(func() { g.binder.Unbind(userID, conn) })
}

// terminate hijacks the transport, optionally writes a bare status line,
// and closes it. status 0 writes nothing.
func (g *Gateway) terminate(w http.ResponseWriter, r *http.Request, status int, reason string) {
	metrics.RecordHandshakeRejection(reason)

	hj, ok := w.(http.Hijacker)
	if !ok {
		if status == 0 {
			status = http.StatusNotFound
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	netConn, buf, err := hj.Hijack()
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("hijack failed; client likely gone")
		return
	}
	defer netConn.Close()

	if status == 0 {
		return
	}
	_ = netConn.SetWriteDeadline(time.Now().Add(time.Second))
	if _, err := fmt.Fprintf(buf, "HTTP/1.1 %d %s\r\n\r\n", status, http.StatusText(status)); err != nil {
		return
	}
	_ = buf.Flush()
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	if len(g.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range g.cfg.AllowedOrigins {
		if allowed == "*" || (origin != "" && allowed == origin) {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeOrigin(origin)).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// sanitizeOrigin strips control characters before logging.
func sanitizeOrigin(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
