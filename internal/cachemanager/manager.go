// Package cachemanager provides typed key/value caches over go-cache.
// The asset registry stores loaded handles in them without expiration, and
// the fetch layer uses a read-through cache for raw asset bytes.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is a typed key/value store with per-item expiry.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Keys(ctx context.Context) []K
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
