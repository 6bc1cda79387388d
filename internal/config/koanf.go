// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/murmur/config.yaml",
	"/etc/murmur/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns the built-in defaults without reading files or the
// environment.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Environment:     "development",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Realtime: RealtimeConfig{
			Paths:          []string{"/ws", "/api/v1/ws"},
			SendBuffer:     256,
			WriteWait:      10 * time.Second,
			PongWait:       60 * time.Second,
			MaxMessageSize: 64 * 1024,
		},
		Session: SessionConfig{
			Mode:       "session",
			Store:      "memory",
			StorePath:  "/data/sessions",
			KeyPrefix:  "murmur:session:",
			CookieName: "sid",
			HeaderName: "X-Session-ID",
			TTL:        24 * time.Hour,

			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:           false,
			URL:               "redis://localhost:6379/0",
			EventsChannel:     "murmur:events",
			PresenceMirror:    false,
			PresenceKeyPrefix: "murmur:presence:",
			PresenceTTL:       90 * time.Second,
		},
		NATS: NATSConfig{
			Enabled:    false,
			URL:        "nats://127.0.0.1:4222",
			Subject:    "murmur.events",
			ClientName: "murmur",
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration in layers:
//  1. built-in defaults
//  2. optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. mapped environment variables
//
// The result is validated before it is returned.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"realtime.paths",
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			continue
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Server
	"http_port":        "server.port",
	"http_host":        "server.host",
	"environment":      "server.environment",
	"instance_id":      "server.instance_id",
	"read_timeout":     "server.read_timeout",
	"write_timeout":    "server.write_timeout",
	"idle_timeout":     "server.idle_timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	// Realtime gateway
	"realtime_paths":            "realtime.paths",
	"realtime_send_buffer":      "realtime.send_buffer",
	"realtime_write_wait":       "realtime.write_wait",
	"realtime_pong_wait":        "realtime.pong_wait",
	"realtime_max_message_size": "realtime.max_message_size",
	"realtime_ingest_token":     "realtime.ingest_token",

	// Session identity
	"session_mode":             "session.mode",
	"session_store":            "session.store",
	"session_store_path":       "session.store_path",
	"session_key_prefix":       "session.key_prefix",
	"session_cookie_name":      "session.cookie_name",
	"session_header_name":      "session.header_name",
	"session_ttl":              "session.ttl",
	"jwt_secret":               "session.jwt_secret",
	"session_breaker_failures": "session.breaker_failures",
	"session_breaker_timeout":  "session.breaker_timeout",

	// Redis
	"redis_enabled":             "redis.enabled",
	"redis_url":                 "redis.url",
	"redis_events_channel":      "redis.events_channel",
	"redis_presence_mirror":     "redis.presence_mirror",
	"redis_presence_key_prefix": "redis.presence_key_prefix",
	"redis_presence_ttl":        "redis.presence_ttl",

	// NATS
	"nats_enabled":     "nats.enabled",
	"nats_url":         "nats.url",
	"nats_subject":     "nats.subject",
	"nats_queue_group": "nats.queue_group",
	"nats_client_name": "nats.client_name",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps environment variable names to config paths.
//
//	HTTP_PORT      -> server.port
//	REALTIME_PATHS -> realtime.paths
//	REDIS_URL      -> redis.url
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
