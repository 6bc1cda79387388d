// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/tomtom215/murmur/internal/config"
	"github.com/tomtom215/murmur/internal/logging"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Murmur with supervisor tree")

	a, err := newApp(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize application")
	}
	server := a.addHTTPServer()

	logging.Info().
		Str("addr", server.Addr).
		Str("environment", cfg.Server.Environment).
		Str("instance_id", cfg.Server.InstanceID).
		Strs("realtime_paths", cfg.Realtime.Paths).
		Str("session_mode", cfg.Session.Mode).
		Str("session_store", cfg.Session.Store).
		Bool("redis_enabled", cfg.Redis.Enabled).
		Bool("presence_mirror", cfg.Redis.PresenceMirror).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Msg("Configuration loaded")

	if cfg.IsProduction() && cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin in production; set CORS_ORIGINS")
	}
	if cfg.Realtime.IngestToken == "" {
		logging.Warn().Msg("REALTIME_INGEST_TOKEN is empty; POST /api/v1/realtime/events is unauthenticated")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := a.tree.ServeBackground(ctx)

	// The channel delivers exactly one value when the tree stops.
	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal, waiting for supervisor to finish...")
		treeErr = <-errCh
	case treeErr = <-errCh:
		stop()
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := a.tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	a.close()
	logging.Info().Msg("Application stopped gracefully")
}
