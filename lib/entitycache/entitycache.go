// Package entitycache memoizes expensive per-entity fetches. An entry,
// once populated, is kept for the lifetime of the cache: staleness is
// an accepted tradeoff for never hitting the upstream twice for the
// same entity.
package entitycache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache is a single-flight, no-TTL memoization map. Concurrent Get
// calls for the same key while it is unpopulated collapse into exactly
// one fetch; every caller receives that fetch's value or error. A
// failed fetch leaves no entry behind, so a later Get retries from
// scratch.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
	flight  singleflight.Group
}

func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]V)}
}

type result[V any] struct {
	value V
	ok    bool
}

// Get returns the cached value for key, fetching it with fetch on the
// first call. Waiting on an in-flight fetch is cancellable through
// ctx; cancellation abandons the wait but does not interrupt the fetch
// itself, whose result still lands in the cache for other callers.
func (c *Cache[K, V]) Get(ctx context.Context, key K, fetch func(ctx context.Context) (V, error)) (V, error) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	ch := c.flight.DoChan(fmt.Sprint(key), func() (any, error) {
		// a racing fetch may have populated the entry already
		c.mu.RLock()
		v, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return result[V]{value: v, ok: true}, nil
		}

		// the fetch outlives any one waiter's ctx on purpose
		v, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			var zero V
			return result[V]{value: zero}, err
		}

		c.mu.Lock()
		c.entries[key] = v
		c.mu.Unlock()
		return result[V]{value: v, ok: true}, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		return res.Val.(result[V]).value, nil
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Peek reports the cached value for key without fetching.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Len reports the number of populated entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
