// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package realtime

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// headerAuth authenticates from the X-User header; "boom" simulates a
// session store outage.
var headerAuth = AuthenticatorFunc(func(r *http.Request) (string, error) {
	user := r.Header.Get("X-User")
	if user == "boom" {
		return "", errors.New("session store unreachable")
	}
	return user, nil
})

func setupGateway(t *testing.T, cfg GatewayConfig) (*Registry, *httptest.Server) {
	t.Helper()
	reg := NewRegistry()
	if cfg.Paths == nil {
		cfg.Paths = []string{"/ws", "/api/v1/ws"}
	}
	gw := NewGateway(reg, headerAuth, cfg)

	mux := http.NewServeMux()
	for _, p := range gw.Paths() {
		mux.Handle(p, gw)
		mux.Handle(p+"/", gw)
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := httptest.NewServer(gw.Guard(mux))
	t.Cleanup(func() {
		reg.Close()
		server.Close()
	})
	return reg, server
}

func wsURL(server *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + path
}

func dial(t *testing.T, server *httptest.Server, path, user string) *websocket.Conn {
	t.Helper()
	h := http.Header{}
	if user != "" {
		h.Set("X-User", user)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server, path), h)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	var e Event
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return e
}

// collect reads events from conn in the background. A gorilla connection
// is unusable after a read timeout, so silence is asserted on the channel.
func collect(conn *websocket.Conn) <-chan Event {
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		for {
			var e Event
			if err := conn.ReadJSON(&e); err != nil {
				return
			}
			ch <- e
		}
	}()
	return ch
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		if !ok {
			t.Fatal("connection closed while waiting for event")
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func expectSilence(t *testing.T, ch <-chan Event, d time.Duration) {
	t.Helper()
	select {
	case e, ok := <-ch:
		if ok {
			t.Fatalf("expected no frame, got %+v", e)
		}
	case <-time.After(d):
	}
}

func expectUpdate(t *testing.T, e Event, user, status string) {
	t.Helper()
	if e.Event != EventPresenceUpdate {
		t.Fatalf("event = %q, want %q", e.Event, EventPresenceUpdate)
	}
	m, _ := e.Data.(map[string]any)
	if m["userId"] != user || m["status"] != status {
		t.Fatalf("presence:update data = %v, want %s/%s", e.Data, user, status)
	}
}

func TestGateway_Matches(t *testing.T) {
	t.Parallel()

	gw := NewGateway(NewRegistry(), headerAuth, GatewayConfig{Paths: []string{"/ws", "/api/v1/ws/"}})
	tests := map[string]bool{
		"/ws":           true,
		"/ws/":          true,
		"/ws/room":      true,
		"/api/v1/ws":    true,
		"/api/v1/ws/x":  true,
		"/wsx":          false,
		"/api/v1/posts": false,
		"/":             false,
	}
	for path, want := range tests {
		if got := gw.Matches(path); got != want {
			t.Errorf("Matches(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestGateway_AcceptsAndBinds(t *testing.T) {
	reg, server := setupGateway(t, GatewayConfig{})

	conn := dial(t, server, "/ws", "alice")

	if e := readEvent(t, conn); e.Event != EventConnectionAck {
		t.Fatalf("first event = %q, want %q", e.Event, EventConnectionAck)
	}
	state := readEvent(t, conn)
	if state.Event != EventPresenceState {
		t.Fatalf("second event = %q, want %q", state.Event, EventPresenceState)
	}
	if got := stateUserIDs(t, state); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Errorf("presence:state userIds = %v, want [alice]", got)
	}
	expectUpdate(t, readEvent(t, conn), "alice", StatusOnline)

	if !reg.IsOnline("alice") {
		t.Error("alice should be online")
	}
}

func TestGateway_NamespacedPath(t *testing.T) {
	reg, server := setupGateway(t, GatewayConfig{})

	conn := dial(t, server, "/api/v1/ws", "alice")
	if e := readEvent(t, conn); e.Event != EventConnectionAck {
		t.Fatalf("first event = %q, want %q", e.Event, EventConnectionAck)
	}
	if reg.ConnectionCount() != 1 {
		t.Errorf("ConnectionCount() = %d, want 1", reg.ConnectionCount())
	}
}

func TestGateway_PingPong(t *testing.T) {
	_, server := setupGateway(t, GatewayConfig{})
	conn := dial(t, server, "/ws", "alice")
	for i := 0; i < 3; i++ {
		readEvent(t, conn)
	}

	if err := conn.WriteJSON(map[string]string{"event": "ping"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if e := readEvent(t, conn); e.Event != EventPong {
		t.Errorf("event = %q, want %q", e.Event, EventPong)
	}
}

func TestGateway_NonRealtimePathTerminated(t *testing.T) {
	reg, server := setupGateway(t, GatewayConfig{})

	h := http.Header{}
	h.Set("X-User", "alice")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "/api/v1/posts"), h)
	if conn != nil {
		conn.Close()
		t.Fatal("expected dial to fail")
	}
	if err == nil {
		t.Fatal("expected an error")
	}
	if resp != nil {
		t.Errorf("expected no handshake response, got status %d", resp.StatusCode)
	}
	if reg.ConnectionCount() != 0 {
		t.Errorf("ConnectionCount() = %d, want 0", reg.ConnectionCount())
	}
}

func TestGateway_NonUpgradePassesThroughGuard(t *testing.T) {
	_, server := setupGateway(t, GatewayConfig{})

	resp, err := http.Get(server.URL + "/api/v1/posts")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("GET /ws: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", resp.StatusCode)
	}
}

func TestGateway_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		user   string
		status int
	}{
		{"no session", "", http.StatusUnauthorized},
		{"adapter error", "boom", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, server := setupGateway(t, GatewayConfig{})

			h := http.Header{}
			if tt.user != "" {
				h.Set("X-User", tt.user)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "/ws"), h)
			if conn != nil {
				conn.Close()
				t.Fatal("expected dial to fail")
			}
			if !errors.Is(err, websocket.ErrBadHandshake) {
				t.Fatalf("Dial() error = %v, want ErrBadHandshake", err)
			}
			if resp == nil {
				t.Fatal("expected a status line")
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if reg.ConnectionCount() != 0 || reg.UserCount() != 0 {
				t.Errorf("registry mutated: %d sockets, %d users", reg.ConnectionCount(), reg.UserCount())
			}
		})
	}
}

func TestGateway_OriginCheck(t *testing.T) {
	_, server := setupGateway(t, GatewayConfig{AllowedOrigins: []string{"https://app.example.com"}})

	h := http.Header{}
	h.Set("X-User", "alice")
	h.Set("Origin", "https://evil.example.com")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "/ws"), h)
	if conn != nil {
		conn.Close()
		t.Fatal("expected dial to fail for foreign origin")
	}
	if !errors.Is(err, websocket.ErrBadHandshake) || resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("Dial() = %v, %v; want 403 bad handshake", resp, err)
	}
	resp.Body.Close()

	h.Set("Origin", "https://app.example.com")
	conn, resp, err = websocket.DefaultDialer.Dial(wsURL(server, "/ws"), h)
	if err != nil {
		t.Fatalf("Dial() with allowed origin error = %v", err)
	}
	resp.Body.Close()
	conn.Close()
}

func TestGateway_EndToEnd(t *testing.T) {
	reg, server := setupGateway(t, GatewayConfig{})

	// ack, presence:state [A], own online update
	a1 := dial(t, server, "/ws", "A")
	readEvent(t, a1)
	readEvent(t, a1)
	expectUpdate(t, readEvent(t, a1), "A", StatusOnline)

	// A's second tab gets ack and state but causes no update.
	a2 := dial(t, server, "/ws", "A")
	readEvent(t, a2)
	if got := stateUserIDs(t, readEvent(t, a2)); !reflect.DeepEqual(got, []string{"A"}) {
		t.Fatalf("a2 presence:state = %v, want [A]", got)
	}

	b := dial(t, server, "/ws", "B")
	readEvent(t, b)
	if got := stateUserIDs(t, readEvent(t, b)); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("b presence:state = %v, want [A B]", got)
	}
	expectUpdate(t, readEvent(t, b), "B", StatusOnline)
	expectUpdate(t, readEvent(t, a1), "B", StatusOnline)
	expectUpdate(t, readEvent(t, a2), "B", StatusOnline)

	want := []UserStats{{UserID: "A", Count: 2}, {UserID: "B", Count: 1}}
	if got := reg.Stats(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Stats() = %+v, want %+v", got, want)
	}

	if err := b.SetReadDeadline(time.Time{}); err != nil {
		t.Fatal(err)
	}
	bEvents := collect(b)

	// Closing one of A's tabs changes counts only.
	_ = a1.Close()
	waitFor(t, 2*time.Second, "A down to one socket", func() bool {
		s := reg.Stats()
		return len(s) == 2 && s[0].Count == 1
	})
	want = []UserStats{{UserID: "A", Count: 1}, {UserID: "B", Count: 1}}
	if got := reg.Stats(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Stats() = %+v, want %+v", got, want)
	}
	expectSilence(t, bEvents, 150*time.Millisecond)

	// Closing A's last tab announces offline to B.
	_ = a2.Close()
	expectUpdate(t, nextEvent(t, bEvents), "A", StatusOffline)
	want = []UserStats{{UserID: "B", Count: 1}}
	if got := reg.Stats(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Stats() = %+v, want %+v", got, want)
	}
	expectSilence(t, bEvents, 100*time.Millisecond)
}

func TestGateway_ShutdownClosesSockets(t *testing.T) {
	reg, server := setupGateway(t, GatewayConfig{})
	conn := dial(t, server, "/ws", "alice")
	for i := 0; i < 3; i++ {
		readEvent(t, conn)
	}

	reg.Close()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("ReadMessage() error = %v, want normal close", err)
	}
}
