// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/metrics"
)

// Defaults for MirrorConfig.
const (
	DefaultKeyPrefix = "murmur:presence:"
	DefaultTTL       = 90 * time.Second
)

// MirrorConfig configures a RedisMirror.
type MirrorConfig struct {
	// KeyPrefix is prepended to the user id. Default "murmur:presence:".
	KeyPrefix string

	// InstanceID is the value stored under each key.
	InstanceID string

	// TTL bounds how long a key survives this process. Keys are refreshed
	// every TTL/2.
	TTL time.Duration
}

// Ownership scripts. A key belongs to the instance whose id it holds.
var (
	// delIfOwner deletes KEYS[1] only while it holds ARGV[1].
	delIfOwner = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

	// renewIfOwner rewrites KEYS[1] with a fresh TTL (ARGV[2] ms) when it is
	// missing or already holds ARGV[1]. A key another instance took over is
	// left alone.
	renewIfOwner = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if v == false or v == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
	return 1
end
return 0
`)
)

// RedisMirror copies the registry's online set into Redis so other
// services can look presence up:
//
//	SET <prefix><user> <instance> EX <ttl>   on online
//	DEL <prefix><user> if owned              on offline
//
// The most recent online edge takes a key over. Offline edges, refreshes
// and shutdown only touch keys that still hold this instance's id.
//
// PresenceChanged only records the desired state and never blocks. Serve
// reconciles pending users against Redis and periodically renews all keys.
type RedisMirror struct {
	client redis.UniversalClient
	cfg    MirrorConfig

	mu      sync.Mutex
	online  map[string]struct{}
	pending map[string]struct{}
	notify  chan struct{}
}

// NewRedisMirror creates a mirror.
func NewRedisMirror(client redis.UniversalClient, cfg MirrorConfig) *RedisMirror {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &RedisMirror{
		client:  client,
		cfg:     cfg,
		online:  make(map[string]struct{}),
		pending: make(map[string]struct{}),
		notify:  make(chan struct{}, 1),
	}
}

// Key returns the Redis key for userID.
func (m *RedisMirror) Key(userID string) string {
	return m.cfg.KeyPrefix + userID
}

// PresenceChanged implements realtime.PresenceObserver.
func (m *RedisMirror) PresenceChanged(userID, status string) {
	m.mu.Lock()
	if status == "online" {
		m.online[userID] = struct{}{}
	} else {
		delete(m.online, userID)
	}
	m.pending[userID] = struct{}{}
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Serve applies presence changes until ctx is done, then deletes the keys
// that still hold this instance's id.
func (m *RedisMirror) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.TTL / 2)
	defer ticker.Stop()

	logging.Info().
		Str("component", "presence_mirror").
		Str("instance_id", m.cfg.InstanceID).
		Dur("ttl", m.cfg.TTL).
		Msg("presence mirror started")

	// Anything that changed before Serve started.
	m.flush(ctx)

	for {
		select {
		case <-ctx.Done():
			m.clear()
			return ctx.Err()
		case <-m.notify:
			m.flush(ctx)
		case <-ticker.C:
			m.refresh(ctx)
		}
	}
}

// Lookup reports which instance holds userID online, if any.
func (m *RedisMirror) Lookup(ctx context.Context, userID string) (instance string, online bool, err error) {
	val, err := m.client.Get(ctx, m.Key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup presence: %w", err)
	}
	return val, true, nil
}

func (m *RedisMirror) flush(ctx context.Context) {
	m.mu.Lock()
	if len(m.pending) == 0 {
		m.mu.Unlock()
		return
	}
	pending := m.pending
	m.pending = make(map[string]struct{})
	desired := make(map[string]bool, len(pending))
	for uid := range pending {
		_, on := m.online[uid]
		desired[uid] = on
	}
	m.mu.Unlock()

	pipe := m.client.Pipeline()
	for uid, on := range desired {
		if on {
			pipe.Set(ctx, m.Key(uid), m.cfg.InstanceID, m.cfg.TTL)
		} else {
			delIfOwner.Eval(ctx, pipe, []string{m.Key(uid)}, m.cfg.InstanceID)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil && ctx.Err() == nil {
		m.failed(err, len(desired))
		// Retry on the next notification or tick.
		m.mu.Lock()
		for uid := range desired {
			m.pending[uid] = struct{}{}
		}
		m.mu.Unlock()
	}
}

func (m *RedisMirror) refresh(ctx context.Context) {
	m.flush(ctx)

	users := m.snapshot()
	if len(users) == 0 {
		return
	}
	ttl := m.cfg.TTL.Milliseconds()
	pipe := m.client.Pipeline()
	for _, uid := range users {
		renewIfOwner.Eval(ctx, pipe, []string{m.Key(uid)}, m.cfg.InstanceID, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil && ctx.Err() == nil {
		m.failed(err, len(users))
	}
}

// clear removes the keys this instance still owns on shutdown.
func (m *RedisMirror) clear() {
	users := m.snapshot()
	if len(users) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pipe := m.client.Pipeline()
	cmds := make([]*redis.Cmd, len(users))
	for i, uid := range users {
		cmds[i] = delIfOwner.Eval(ctx, pipe, []string{m.Key(uid)}, m.cfg.InstanceID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		m.failed(err, len(users))
		return
	}
	var cleared int64
	for _, cmd := range cmds {
		n, _ := cmd.Int64()
		cleared += n
	}
	logging.Info().
		Str("component", "presence_mirror").
		Int64("keys", cleared).
		Int("skipped", len(users)-int(cleared)).
		Msg("presence keys cleared")
}

func (m *RedisMirror) snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]string, 0, len(m.online))
	for uid := range m.online {
		users = append(users, uid)
	}
	return users
}

func (m *RedisMirror) failed(err error, n int) {
	metrics.PresenceMirrorErrors.Inc()
	logging.Warn().Err(err).Str("component", "presence_mirror").Int("keys", n).Msg("presence mirror write failed")
}

// String implements fmt.Stringer for suture service naming.
func (m *RedisMirror) String() string {
	return "presence-mirror"
}
