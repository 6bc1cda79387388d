// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package config

import (
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Realtime   RealtimeConfig   `koanf:"realtime"`
	Session    SessionConfig    `koanf:"session"`
	Redis      RedisConfig      `koanf:"redis"`
	NATS       NATSConfig       `koanf:"nats"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`

	// Environment is development, staging, test or production.
	// Diagnostics endpoints are disabled in production.
	Environment string `koanf:"environment"`

	// InstanceID identifies this process in the Redis presence mirror.
	// Generated at startup when empty.
	InstanceID string `koanf:"instance_id"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// RealtimeConfig holds WebSocket gateway settings.
type RealtimeConfig struct {
	// Paths are the URL prefixes accepted for upgrades. Upgrade requests
	// to any other path have their connection closed without a response.
	Paths []string `koanf:"paths"`

	// SendBuffer is the per-socket outbound queue length. Frames are
	// dropped for a socket whose queue is full.
	SendBuffer int `koanf:"send_buffer"`

	WriteWait      time.Duration `koanf:"write_wait"`
	PongWait       time.Duration `koanf:"pong_wait"`
	MaxMessageSize int64         `koanf:"max_message_size"`

	// IngestToken guards POST /api/v1/realtime/events. Empty disables the check.
	IngestToken string `koanf:"ingest_token"`
}

// SessionConfig selects how upgrade requests are mapped to a user.
type SessionConfig struct {
	// Mode is "session" (cookie/header session id looked up in Store) or "jwt".
	Mode string `koanf:"mode"`

	// Store is memory, badger or redis.
	Store      string `koanf:"store"`
	StorePath  string `koanf:"store_path"`
	KeyPrefix  string `koanf:"key_prefix"`
	CookieName string `koanf:"cookie_name"`
	HeaderName string `koanf:"header_name"`

	TTL       time.Duration `koanf:"ttl"`
	JWTSecret string        `koanf:"jwt_secret"`

	// BreakerFailures consecutive badger or redis lookup failures open the
	// store's circuit for BreakerTimeout.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// RedisConfig configures the Redis client shared by the session store,
// the event bridge and the presence mirror.
type RedisConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`

	EventsChannel string `koanf:"events_channel"`

	PresenceMirror    bool          `koanf:"presence_mirror"`
	PresenceKeyPrefix string        `koanf:"presence_key_prefix"`
	PresenceTTL       time.Duration `koanf:"presence_ttl"`
}

// NATSConfig configures the optional NATS event bridge.
type NATSConfig struct {
	Enabled    bool   `koanf:"enabled"`
	URL        string `koanf:"url"`
	Subject    string `koanf:"subject"`
	QueueGroup string `koanf:"queue_group"`
	ClientName string `koanf:"client_name"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes suture restart behavior.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

// ShouldWarnAboutCORS reports a wildcard origin outside production.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.hasWildcardCORS()
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}
