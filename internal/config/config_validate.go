// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateRealtime,
		c.validateSession,
		c.validateRedis,
		c.validateNATS,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

var validEnvironments = map[string]bool{
	"development": true,
	"dev":         true,
	"test":        true,
	"staging":     true,
	"production":  true,
	"prod":        true,
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if !validEnvironments[strings.ToLower(c.Server.Environment)] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, test, staging, production")
	}
	return nil
}

func (c *Config) validateRealtime() error {
	if len(c.Realtime.Paths) == 0 {
		return fmt.Errorf("REALTIME_PATHS must list at least one path")
	}
	for _, p := range c.Realtime.Paths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("REALTIME_PATHS entry %q must start with /", p)
		}
	}
	if c.Realtime.SendBuffer < 1 {
		return fmt.Errorf("REALTIME_SEND_BUFFER must be at least 1")
	}
	if c.Realtime.PongWait <= 0 || c.Realtime.WriteWait <= 0 {
		return fmt.Errorf("REALTIME_PONG_WAIT and REALTIME_WRITE_WAIT must be positive")
	}
	if c.Realtime.MaxMessageSize < 1 {
		return fmt.Errorf("REALTIME_MAX_MESSAGE_SIZE must be positive")
	}
	return nil
}

var validSessionStores = map[string]bool{
	"memory": true,
	"badger": true,
	"redis":  true,
}

func (c *Config) validateSession() error {
	switch c.Session.Mode {
	case "session":
		if !validSessionStores[c.Session.Store] {
			return fmt.Errorf("SESSION_STORE must be one of: memory, badger, redis")
		}
		if c.Session.Store == "badger" && c.Session.StorePath == "" {
			return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE=badger")
		}
		if c.Session.Store == "redis" && !c.Redis.Enabled {
			return fmt.Errorf("REDIS_ENABLED=true is required when SESSION_STORE=redis")
		}
		if c.Session.CookieName == "" && c.Session.HeaderName == "" {
			return fmt.Errorf("SESSION_COOKIE_NAME or SESSION_HEADER_NAME must be set")
		}
		if c.Session.BreakerFailures < 1 {
			return fmt.Errorf("SESSION_BREAKER_FAILURES must be at least 1")
		}
		if c.Session.BreakerTimeout < time.Second {
			return fmt.Errorf("SESSION_BREAKER_TIMEOUT must be at least 1s")
		}
	case "jwt":
		if len(c.Session.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters when SESSION_MODE=jwt")
		}
	default:
		return fmt.Errorf("SESSION_MODE must be one of: session, jwt")
	}
	return nil
}

func (c *Config) validateRedis() error {
	if !c.Redis.Enabled {
		if c.Redis.PresenceMirror {
			return fmt.Errorf("REDIS_ENABLED=true is required when REDIS_PRESENCE_MIRROR=true")
		}
		return nil
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required when REDIS_ENABLED=true")
	}
	if c.Redis.PresenceMirror && c.Redis.PresenceTTL < 2*time.Second {
		return fmt.Errorf("REDIS_PRESENCE_TTL must be at least 2s")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required when NATS_ENABLED=true")
	}
	if c.NATS.Subject == "" {
		return fmt.Errorf("NATS_SUBJECT is required when NATS_ENABLED=true")
	}
	return nil
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateSecurity() error {
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed when ENVIRONMENT=production; " +
			"set specific origins, e.g. CORS_ORIGINS=https://app.example.com")
	}
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "disabled": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, disabled")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}
