// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tomtom215/murmur/internal/logging"
)

// DefaultNATSSubject is the core NATS subject producers publish envelopes to.
const DefaultNATSSubject = "murmur.events"

// NATSConfig configures a NATSSubscriber.
type NATSConfig struct {
	URL        string
	Subject    string
	QueueGroup string
	ClientName string
}

// NATSSubscriber consumes envelopes from a core NATS subject. The client
// reconnects on its own; Serve returns an error only when the connection
// is closed for good, so the supervisor can start over.
type NATSSubscriber struct {
	cfg        NATSConfig
	dispatcher *Dispatcher
	ready      chan struct{}
}

// NewNATSSubscriber creates a subscriber.
func NewNATSSubscriber(cfg NATSConfig, d *Dispatcher) *NATSSubscriber {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultNATSSubject
	}
	if cfg.ClientName == "" {
		cfg.ClientName = "murmur"
	}
	return &NATSSubscriber{cfg: cfg, dispatcher: d, ready: make(chan struct{})}
}

// Ready is closed after the first subscription is established.
func (s *NATSSubscriber) Ready() <-chan struct{} { return s.ready }

// Serve connects, subscribes and dispatches until ctx is done.
func (s *NATSSubscriber) Serve(ctx context.Context) error {
	closed := make(chan struct{})
	log := logging.WithComponent("nats_ingest")

	nc, err := nats.Connect(s.cfg.URL,
		nats.Name(s.cfg.ClientName),
		nats.Timeout(5*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrlRedacted()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(*nats.Conn) { close(closed) }),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	handler := func(msg *nats.Msg) {
		_ = s.dispatcher.HandlePayload(SourceNATS, msg.Data)
	}

	var sub *nats.Subscription
	if s.cfg.QueueGroup != "" {
		sub, err = nc.QueueSubscribe(s.cfg.Subject, s.cfg.QueueGroup, handler)
	} else {
		sub, err = nc.Subscribe(s.cfg.Subject, handler)
	}
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.cfg.Subject, err)
	}
	if err := nc.Flush(); err != nil {
		return fmt.Errorf("flush subscription: %w", err)
	}
	s.markReady()

	log.Info().
		Str("subject", s.cfg.Subject).
		Str("queue_group", s.cfg.QueueGroup).
		Msg("subscribed to event subject")

	select {
	case <-ctx.Done():
		if err := sub.Drain(); err != nil {
			log.Debug().Err(err).Msg("NATS drain failed")
		}
		return ctx.Err()
	case <-closed:
		return ErrSubscriptionClosed
	}
}

func (s *NATSSubscriber) markReady() {
	select {
	case <-s.ready:
	default:
		close(s.ready)
	}
}

// String implements fmt.Stringer for suture service naming.
func (s *NATSSubscriber) String() string {
	return "nats-ingest"
}
