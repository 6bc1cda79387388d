// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/murmur/internal/api"
	"github.com/tomtom215/murmur/internal/config"
	"github.com/tomtom215/murmur/internal/ingest"
	"github.com/tomtom215/murmur/internal/logging"
	"github.com/tomtom215/murmur/internal/presence"
	"github.com/tomtom215/murmur/internal/realtime"
	"github.com/tomtom215/murmur/internal/session"
	"github.com/tomtom215/murmur/internal/supervisor"
	"github.com/tomtom215/murmur/internal/supervisor/services"
)

// badgerGCInterval is how often the badger session store reclaims value log space.
const badgerGCInterval = 5 * time.Minute

// app holds every wired component. The API layer is added separately by
// addHTTPServer so tests can serve handler from httptest instead.
type app struct {
	cfg      *config.Config
	tree     *supervisor.SupervisorTree
	registry *realtime.Registry
	handler  http.Handler

	redis   redis.UniversalClient
	adapter *session.Adapter
	mirror  *presence.RedisMirror
}

// newApp wires configuration into components and registers the data and
// messaging services on a new supervisor tree.
func newApp(cfg *config.Config) (*app, error) {
	if cfg.Server.InstanceID == "" {
		cfg.Server.InstanceID = uuid.NewString()
	}

	a := &app{cfg: cfg}

	rdb, err := newRedisClient(cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.redis = rdb

	adapter, err := session.NewAdapter(cfg.Session, rdb)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create session adapter: %w", err)
	}
	a.adapter = adapter

	var opts []realtime.Option
	if cfg.Redis.Enabled && cfg.Redis.PresenceMirror {
		a.mirror = presence.NewRedisMirror(rdb, presence.MirrorConfig{
			KeyPrefix:  cfg.Redis.PresenceKeyPrefix,
			InstanceID: cfg.Server.InstanceID,
			TTL:        cfg.Redis.PresenceTTL,
		})
		opts = append(opts, realtime.WithObserver(a.mirror))
	}
	a.registry = realtime.NewRegistry(opts...)

	gateway := realtime.NewGateway(a.registry, adapter.Authenticator, realtime.GatewayConfig{
		Paths:          cfg.Realtime.Paths,
		AllowedOrigins: cfg.Security.CORSOrigins,
		Conn: realtime.ConnConfig{
			SendBuffer:     cfg.Realtime.SendBuffer,
			WriteWait:      cfg.Realtime.WriteWait,
			PongWait:       cfg.Realtime.PongWait,
			MaxMessageSize: cfg.Realtime.MaxMessageSize,
		},
		Production: cfg.IsProduction(),
	})
	dispatcher := ingest.NewDispatcher(a.registry)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create supervisor tree: %w", err)
	}
	a.tree = tree

	// Data layer
	if adapter.Badger != nil {
		store := adapter.Badger
		tree.AddDataService(services.NewWorkerService("badger-session-gc", func(ctx context.Context) error {
			return store.RunGC(ctx, badgerGCInterval)
		}))
	}
	if a.mirror != nil {
		tree.AddDataService(a.mirror)
	}

	// Messaging layer
	tree.AddMessagingService(services.NewRegistryService(a.registry))
	if cfg.Redis.Enabled && cfg.Redis.EventsChannel != "" {
		tree.AddMessagingService(ingest.NewRedisSubscriber(rdb, cfg.Redis.EventsChannel, dispatcher))
	}
	if cfg.NATS.Enabled {
		tree.AddMessagingService(ingest.NewNATSSubscriber(ingest.NATSConfig{
			URL:        cfg.NATS.URL,
			Subject:    cfg.NATS.Subject,
			QueueGroup: cfg.NATS.QueueGroup,
			ClientName: cfg.NATS.ClientName,
		}, dispatcher))
	}

	handler := api.NewHandler(a.registry, dispatcher, api.HandlerConfig{
		Production:  cfg.IsProduction(),
		IngestToken: cfg.Realtime.IngestToken,
		Checks:      a.readinessChecks(),
	})
	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security))
	a.handler = api.NewRouter(handler, gateway, mw).SetupChi()

	return a, nil
}

// addHTTPServer registers the listener on the API layer.
func (a *app) addHTTPServer() *http.Server {
	server := &http.Server{
		Addr:              net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port)),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		IdleTimeout:       a.cfg.Server.IdleTimeout,
	}
	a.tree.AddAPIService(services.NewHTTPServerService(server, a.cfg.Server.ShutdownTimeout))
	return server
}

func (a *app) readinessChecks() []api.ReadinessCheck {
	if a.redis == nil {
		return nil
	}
	rdb := a.redis
	return []api.ReadinessCheck{{
		Name:  "redis",
		Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}}
}

// close releases clients. Services stop with the tree; this runs after.
func (a *app) close() {
	if a.adapter != nil {
		if err := a.adapter.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			logging.Error().Err(err).Msg("Error closing Redis client")
		}
	}
}

// newRedisClient returns nil when Redis is disabled. The client connects
// lazily; an unreachable server is only logged so the process can start
// and report not-ready until it comes back.
func newRedisClient(cfg config.RedisConfig) (redis.UniversalClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logging.Warn().Err(err).Str("addr", opts.Addr).Msg("Redis not reachable at startup (will retry)")
	} else {
		logging.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("Connected to Redis")
	}
	return client, nil
}
