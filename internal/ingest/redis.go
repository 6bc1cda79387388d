// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/murmur/internal/logging"
)

// DefaultRedisChannel is the pub/sub channel producers publish envelopes to.
const DefaultRedisChannel = "murmur:events"

// ErrSubscriptionClosed is returned when the upstream subscription ends
// while the service is still meant to run.
var ErrSubscriptionClosed = errors.New("subscription closed")

// RedisSubscriber consumes envelopes from a Redis pub/sub channel.
// It is a suture service; a lost subscription returns an error and the
// supervisor restarts it.
type RedisSubscriber struct {
	client     redis.UniversalClient
	channel    string
	dispatcher *Dispatcher
	ready      chan struct{}
}

// NewRedisSubscriber creates a subscriber for channel.
func NewRedisSubscriber(client redis.UniversalClient, channel string, d *Dispatcher) *RedisSubscriber {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisSubscriber{client: client, channel: channel, dispatcher: d, ready: make(chan struct{})}
}

// Ready is closed after the first subscription is confirmed.
func (s *RedisSubscriber) Ready() <-chan struct{} { return s.ready }

// Serve subscribes and dispatches until ctx is done.
func (s *RedisSubscriber) Serve(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	// Receive blocks until the subscription is confirmed or fails.
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	s.markReady()

	logging.Info().Str("component", "redis_ingest").Str("channel", s.channel).Msg("subscribed to event channel")

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return ErrSubscriptionClosed
			}
			_ = s.dispatcher.HandlePayload(SourceRedis, []byte(msg.Payload))
		}
	}
}

func (s *RedisSubscriber) markReady() {
	select {
	case <-s.ready:
	default:
		close(s.ready)
	}
}

// String implements fmt.Stringer for suture service naming.
func (s *RedisSubscriber) String() string {
	return "redis-ingest"
}
