// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package session

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/metrics"
)

// Breaker defaults.
const (
	DefaultBreakerFailures = 5
	DefaultBreakerTimeout  = 30 * time.Second
)

// BreakerConfig configures a BreakerStore.
type BreakerConfig struct {
	Name string

	// Failures is the number of consecutive store failures that opens the
	// circuit.
	Failures uint32

	// Timeout is how long the circuit stays open before one probe lookup is
	// let through.
	Timeout time.Duration
}

// BreakerStore guards Get on a remote or disk store with a circuit breaker.
// While the circuit is open lookups fail immediately, so upgrades are
// rejected with a 500 instead of each waiting on a dead backend. Missing
// and expired sessions count as successful lookups.
type BreakerStore struct {
	Store
	cb   *gobreaker.CircuitBreaker[*Session]
	name string
}

// NewBreakerStore wraps store.
func NewBreakerStore(store Store, cfg BreakerConfig) *BreakerStore {
	if cfg.Name == "" {
		cfg.Name = "session-store"
	}
	if cfg.Failures == 0 {
		cfg.Failures = DefaultBreakerFailures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBreakerTimeout
	}

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*Session](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("component", "session").
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return &BreakerStore{Store: store, cb: cb, name: cfg.Name}
}

// Get looks id up through the breaker. An open circuit returns
// gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests.
func (s *BreakerStore) Get(ctx context.Context, id string) (*Session, error) {
	return s.cb.Execute(func() (*Session, error) {
		return s.Store.Get(ctx, id)
	})
}

// State reports the circuit state ("closed", "half-open" or "open").
func (s *BreakerStore) State() string {
	return s.cb.State().String()
}

func stateValue(st gobreaker.State) float64 {
	switch st {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
