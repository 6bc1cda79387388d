// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

/*
Package supervisor provides process supervision for Murmur using suture v4.

# Overview

Services are organized into three layers for failure isolation:

	RootSupervisor ("murmur")
	├── DataSupervisor ("data-layer")
	│   ├── session-gc        (badger session store only)
	│   └── presence-mirror   (if REDIS_PRESENCE_MIRROR)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── connection-registry
	│   ├── redis-ingest      (if REDIS_ENABLED)
	│   └── nats-ingest       (if NATS_ENABLED)
	└── APISupervisor ("api-layer")
	    └── http-server

A broken Redis or NATS connection restarts its bridge with backoff while
open WebSocket connections stay up.

# Usage Example

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
	    return err
	}

	tree.AddMessagingService(services.NewRegistryService(registry))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("supervisor stopped with error")
	}

# Logging

Supervisor events (service start, failure, backoff, restart) go through
sutureslog into the slog bridge of internal/logging, so they share the
zerolog output of the rest of the process.
*/
package supervisor
