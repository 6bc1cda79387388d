// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/metrics"
)

// minSendBuffer covers the frames Bind writes before the pumps start
// (ack, snapshot, own online update).
const minSendBuffer = 8

// ConnConfig tunes a WebSocket connection.
type ConnConfig struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

// DefaultConnConfig returns the standard pump timings.
func DefaultConnConfig() ConnConfig {
	return ConnConfig{
		SendBuffer:     256,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 64 * 1024,
	}
}

func (c ConnConfig) withDefaults() ConnConfig {
	d := DefaultConnConfig()
	switch {
	case c.SendBuffer <= 0:
		c.SendBuffer = d.SendBuffer
	case c.SendBuffer < minSendBuffer:
		c.SendBuffer = minSendBuffer
	}
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	return c
}

func (c ConnConfig) pingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}

var connIDCounter atomic.Uint64

// inbound is the only client frame the gateway understands.
type inbound struct {
	Event string `json:"event"`
}

// Conn is a Socket backed by a gorilla/websocket connection. A write pump
// drains the send queue and keeps the peer alive with pings; a read pump
// watches for close. When the read pump ends, the cleanup passed to Start
// runs exactly once.
type Conn struct {
	id   uint64
	ws   *websocket.Conn
	cfg  ConnConfig
	send chan []byte

	writable  atomic.Bool
	closed    chan struct{}
	closeOnce sync.Once
	cleanOnce sync.Once
}

// NewConn wraps ws. Call Start after the socket has been bound.
func NewConn(ws *websocket.Conn, cfg ConnConfig) *Conn {
	cfg = cfg.withDefaults()
	c := &Conn{
		id:     connIDCounter.Add(1),
		ws:     ws,
		cfg:    cfg,
		send:   make(chan []byte, cfg.SendBuffer),
		closed: make(chan struct{}),
	}
	c.writable.Store(true)
	return c
}

// ID implements Socket.
func (c *Conn) ID() uint64 { return c.id }

// Writable implements Socket.
func (c *Conn) Writable() bool { return c.writable.Load() }

// Send implements Socket. A full queue drops the frame.
func (c *Conn) Send(frame []byte) bool {
	if !c.writable.Load() {
		return false
	}
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		metrics.WSErrors.WithLabelValues("send_queue_full").Inc()
		return false
	}
}

// Close sends a close frame and tears down the transport.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.writable.Store(false)
		close(c.closed)
		deadline := time.Now().Add(c.cfg.WriteWait)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = c.ws.Close() // best-effort
	})
}

// Done is closed once Close has run.
func (c *Conn) Done() <-chan struct{} { return c.closed }

// Start launches the pumps. onClose runs once, after the peer disconnects
// or the read loop fails, and before the transport is released.
func (c *Conn) Start(onClose func()) {
	go c.writePump()
	go c.readPump(onClose)
}

func (c *Conn) cleanup(onClose func()) {
	c.cleanOnce.Do(func() {
		c.writable.Store(false)
		if onClose != nil {
			onClose()
		}
		c.Close()
	})
}

func (c *Conn) readPump(onClose func()) {
	defer c.cleanup(onClose)

	c.ws.SetReadLimit(c.cfg.MaxMessageSize)
	if err := c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				metrics.WSErrors.WithLabelValues("unexpected_close").Inc()
				logging.Warn().Err(err).Uint64("socket_id", c.id).Msg("unexpected websocket close")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()

		var msg inbound
		if json.Unmarshal(data, &msg) != nil {
			continue
		}
		if msg.Event == "ping" {
			if frame, ok := encode(Event{Event: EventPong}); ok {
				c.Send(frame)
			}
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.closed:
			return

		case frame := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				logging.Debug().Err(err).Uint64("socket_id", c.id).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
