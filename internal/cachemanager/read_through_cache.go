package cachemanager

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zjrosen/lootbox/internal/log"
)

// ReadThroughCache serves values from a cache and calls fill on a miss.
// Concurrent misses for one key share a single fill call. Errors are never
// cached.
type ReadThroughCache[K ~string, V any] struct {
	cache CacheManager[K, V]
	fill  func(ctx context.Context, key K) (V, error)
	ttl   time.Duration
	group singleflight.Group

	hits   atomic.Int64
	fills  atomic.Int64
	shared atomic.Int64
}

// Stats counts how Get calls were served.
type Stats struct {
	Hits   int64 // served from the cache
	Fills  int64 // fill calls made
	Shared int64 // Get calls whose fill result went to more than one caller
}

// NewReadThroughCache stores fill results in cache for ttl.
func NewReadThroughCache[K ~string, V any](
	cache CacheManager[K, V],
	fill func(ctx context.Context, key K) (V, error),
	ttl time.Duration,
) *ReadThroughCache[K, V] {
	return &ReadThroughCache[K, V]{cache: cache, fill: fill, ttl: ttl}
}

// Get returns the cached value for key or fills it. A caller whose ctx ends
// while waiting on a shared fill returns ctx.Err(); the fill itself runs
// under the ctx of the caller that started it.
func (r *ReadThroughCache[K, V]) Get(ctx context.Context, key K) (V, error) {
	if value, ok := r.cache.Get(ctx, key); ok {
		r.hits.Add(1)
		log.Debug(log.CatCache, "cache hit", "key", key)
		return value, nil
	}

	ch := r.group.DoChan(string(key), func() (any, error) {
		r.fills.Add(1)
		value, err := r.fill(ctx, key)
		if err != nil {
			return value, err
		}
		r.cache.Set(ctx, key, value, r.ttl)
		log.Debug(log.CatCache, "cache fill", "key", key)
		return value, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			r.shared.Add(1)
		}
		value, _ := res.Val.(V)
		return value, res.Err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Stats returns counters since creation.
func (r *ReadThroughCache[K, V]) Stats() Stats {
	return Stats{Hits: r.hits.Load(), Fills: r.fills.Load(), Shared: r.shared.Load()}
}
