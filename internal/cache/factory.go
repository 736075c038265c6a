// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// Backend types accepted by Config.Type.
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// redisTimeout bounds the initial connection and each command.
const redisTimeout = 3 * time.Second

// Config holds configuration for cache creation.
type Config struct {
	// Type is the cache backend type: "memory" or "redis".
	Type string

	// RedisURL is the Redis connection URL, e.g. redis://localhost:6379/0.
	RedisURL string

	// Prefix is the key prefix for Redis.
	Prefix string

	DefaultTTL time.Duration

	// MaxSize is the maximum number of entries for memory cache (0 = unlimited).
	MaxSize int

	CleanupInterval time.Duration
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		Type:            TypeMemory,
		DefaultTTL:      time.Hour,
		MaxSize:         10000,
		CleanupInterval: time.Minute,
	}
}

// New creates a cache for cfg. A redis configuration that cannot connect
// falls back to memory with a warning so the site keeps serving.
func New(cfg Config, logger *slog.Logger) (Cacher, error) {
	switch cfg.Type {
	case "", TypeMemory:
		return newMemory(cfg), nil
	case TypeRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("cache: redis type requires a URL")
		}
		ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
		defer cancel()
		rc, err := NewRedisCache(ctx, RedisCacheOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.Prefix,
			DefaultTTL: cfg.DefaultTTL,
			Timeout:    redisTimeout,
		})
		if err != nil {
			if logger != nil {
				logger.Warn("redis unavailable, using memory cache",
					"url", SanitizeRedisURL(cfg.RedisURL), "error", err)
			}
			return newMemory(cfg), nil
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("cache: unknown type %q", cfg.Type)
	}
}

func newMemory(cfg Config) *MemoryCache {
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	})
}

// SanitizeRedisURL masks the password of a Redis URL for logging.
func SanitizeRedisURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid URL]"
	}
	if u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
