// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package session

import (
	"fmt"
	"io"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/murmur/internal/config"
)

// Store and mode names accepted in configuration.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
	StoreRedis  = "redis"

	ModeSession = "session"
	ModeJWT     = "jwt"
)

// Authenticator maps an upgrade request to a user id.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// Adapter is the configured identity adapter plus the resources it holds.
type Adapter struct {
	Authenticator Authenticator

	// Store is nil in jwt mode.
	Store Store

	// Badger is set when the store is BadgerDB, for GC supervision.
	Badger *BadgerStore

	closer io.Closer
}

// Close releases the store.
func (a *Adapter) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// NewAdapter builds the identity adapter described by cfg. rdb is required
// only for the redis store.
func NewAdapter(cfg config.SessionConfig, rdb redis.UniversalClient) (*Adapter, error) {
	if cfg.Mode == ModeJWT {
		auth, err := NewJWTAuthenticator(cfg.JWTSecret, cfg.CookieName, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return &Adapter{Authenticator: auth}, nil
	}

	a := &Adapter{}
	switch cfg.Store {
	case "", StoreMemory:
		a.Store = NewMemoryStore()
	case StoreBadger:
		bs, err := OpenBadgerStore(cfg.StorePath, cfg.KeyPrefix)
		if err != nil {
			return nil, err
		}
		a.Badger, a.closer = bs, bs
		a.Store = NewBreakerStore(bs, breakerConfig("session-badger", cfg))
	case StoreRedis:
		if rdb == nil {
			return nil, fmt.Errorf("session store %q requires redis.enabled", cfg.Store)
		}
		a.Store = NewBreakerStore(NewRedisStore(rdb, cfg.KeyPrefix), breakerConfig("session-redis", cfg))
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}

	a.Authenticator = NewSessionAuthenticator(a.Store, cfg.CookieName, cfg.HeaderName)
	return a, nil
}

func breakerConfig(name string, cfg config.SessionConfig) BreakerConfig {
	return BreakerConfig{Name: name, Failures: cfg.BreakerFailures, Timeout: cfg.BreakerTimeout}
}
