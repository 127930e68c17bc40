// Package cache stores upstream listings and posts behind a
// backend that is either process-local or shared through Redis.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Backend is implemented by the memory and Redis caches.
type Backend interface {
	// Get returns (value, found, error).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl. A non-positive ttl uses the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	Close() error
}

// Open picks Redis when redisURL is set and reachable, memory otherwise.
// The returned name is "redis" or "memory" for health reporting.
func Open(ctx context.Context, kind, redisURL, prefix string, ttl TTLConfig) (Backend, string) {
	if kind != "memory" && redisURL != "" {
		slog.Info("initializing Redis cache")
		rc, err := NewRedisCache(ctx, redisURL, prefix)
		if err == nil {
			slog.Info("Redis cache initialized")
			return rc, "redis"
		}
		slog.Warn("Redis connection failed, using memory cache", "error", err)
	}
	slog.Info("initializing in-memory cache")
	return NewMemoryCache(ttl.ListingTTL, ttl.CleanupInterval), "memory"
}

// Typed wraps a Backend with JSON encoding for one value type.
type Typed[T any] struct {
	backend Backend
	prefix  string
}

func NewTyped[T any](b Backend, prefix string) *Typed[T] {
	return &Typed[T]{backend: b, prefix: prefix}
}

// Get treats decode failures as misses and evicts the bad entry.
func (c *Typed[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	data, found, err := c.backend.Get(ctx, c.prefix+key)
	if err != nil {
		slog.Debug("cache get failed", "key", c.prefix+key, "error", err)
		return zero, false
	}
	if !found {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		slog.Debug("cache decode failed, dropping entry", "key", c.prefix+key, "error", err)
		c.backend.Delete(ctx, c.prefix+key)
		return zero, false
	}
	return v, true
}

func (c *Typed[T]) Set(ctx context.Context, key string, v T, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.backend.Set(ctx, c.prefix+key, data, ttl); err != nil {
		slog.Debug("cache set failed", "key", c.prefix+key, "error", err)
	}
}
