// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/murmur/internal/logging"
)

// BadgerStore implements Store using BadgerDB for durable storage.
// Entries carry a badger TTL matching the session expiry so the value log
// GC reclaims them.
type BadgerStore struct {
	db     *badger.DB
	prefix string
	owned  bool
}

// OpenBadger opens a BadgerDB at path. An empty path opens an in-memory
// database.
func OpenBadger(path string) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for sessions: %w", err)
	}
	return db, nil
}

// NewBadgerStore creates a store over an existing database. The caller
// keeps ownership of db.
func NewBadgerStore(db *badger.DB, prefix string) *BadgerStore {
	if prefix == "" {
		prefix = "session:"
	}
	return &BadgerStore{db: db, prefix: prefix}
}

// OpenBadgerStore opens path and returns a store that owns the database.
func OpenBadgerStore(path, prefix string) (*BadgerStore, error) {
	db, err := OpenBadger(path)
	if err != nil {
		return nil, err
	}
	s := NewBadgerStore(db, prefix)
	s.owned = true
	return s, nil
}

func (s *BadgerStore) key(id string) []byte {
	return []byte(s.prefix + id)
}

// Create stores a new session.
func (s *BadgerStore) Create(_ context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(s.key(session.ID), data)
		if ttl := session.TTL(); ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set session: %w", err)
		}
		return nil
	})
}

// Get retrieves a session by ID.
func (s *BadgerStore) Get(_ context.Context, id string) (*Session, error) {
	var session Session

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if err != nil {
		return nil, err
	}

	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return &session, nil
}

// Delete removes a session by ID.
func (s *BadgerStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(s.key(id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// RunGC runs value log garbage collection every interval until ctx is done.
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) error {
	if s.db.Opts().InMemory {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				err := s.db.RunValueLogGC(0.5)
				if errors.Is(err, badger.ErrNoRewrite) {
					break
				}
				if err != nil {
					logging.Warn().Err(err).Msg("session store value log GC failed")
					break
				}
			}
		}
	}
}

// Close closes the database if the store opened it.
func (s *BadgerStore) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
