// Package cache is the read-through cache layer for catalog responses.
// Consumers treat every error as a miss or a no-op: a cache outage must never
// fail a request, only push it through to the source of truth.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss signals the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a TTL-based key/value store for serialized responses. Pattern
// deletes use "*" as the single wildcard token, matching Redis glob semantics.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}
