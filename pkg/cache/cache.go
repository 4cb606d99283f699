// Package cache provides a TTL-bounded read-through cache for foreign-service
// entities. Entries are populated on demand by a synchronous remote fetch,
// invalidated by event listeners, and never hold fallback placeholders.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FetchFunc queries the owning service for the entity. A nil result with a nil
// error means the remote confirmed absence ("genuinely absent"); an error means
// the remote was unreachable ("temporarily unreachable"). Callers are expected
// to bound the call with a context timeout.
type FetchFunc[T any] func(ctx context.Context, id string) (*T, error)

// FallbackFunc synthesizes a placeholder representation for an unreachable
// entity. Fallback results are returned to the caller but never cached, so the
// next access retries the remote fetch.
type FallbackFunc[T any] func(id string) *T

type entry[T any] struct {
	value     *T
	fetchedAt time.Time
}

// Cache is a concurrency-safe map from foreign entity id to its last-known
// representation. A single map holds both the value and its fetch timestamp,
// so the two can never disagree.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
	log     *zap.Logger
	now     func() time.Time
}

// New creates a cache whose entries are valid for ttl after a successful fetch.
func New[T any](ttl time.Duration, log *zap.Logger) *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		log:     log,
		now:     time.Now,
	}
}

// Get returns the cached representation for id if it is still valid, otherwise
// fetches it synchronously. A successful non-empty fetch overwrites the entry.
// A confirmed absence is returned as nil without consulting the fallback. A
// fetch failure yields the fallback placeholder, which is NOT cached, so every
// failure is retried on the next access.
//
// Concurrent cold gets for the same id may fetch more than once; the last
// successful fetch wins. That is acceptable: there is no single-flight
// requirement and the store stays consistent per key.
func (c *Cache[T]) Get(ctx context.Context, id string, fetch FetchFunc[T], fallback FallbackFunc[T]) (*T, error) {
	if v, ok := c.lookup(id); ok {
		return v, nil
	}

	v, err := fetch(ctx, id)
	if err != nil {
		if fallback == nil {
			return nil, err
		}
		c.log.Warn("remote fetch failed, returning fallback",
			zap.String("id", id),
			zap.Error(err))
		return fallback(id), nil
	}
	if v == nil {
		c.log.Debug("remote confirmed absence", zap.String("id", id))
		return nil, nil
	}

	c.mu.Lock()
	c.entries[id] = entry[T]{value: v, fetchedAt: c.now()}
	c.mu.Unlock()
	return v, nil
}

// lookup returns a valid entry, lazily deleting it when expired.
func (c *Cache[T]) lookup(id string) (*T, bool) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) < c.ttl {
		return e.value, true
	}

	c.mu.Lock()
	// Re-check under the write lock; a concurrent refetch may have renewed it.
	if cur, ok := c.entries[id]; ok && c.now().Sub(cur.fetchedAt) >= c.ttl {
		delete(c.entries, id)
	}
	c.mu.Unlock()
	return nil, false
}

// Put primes the cache with a representation, stamping it as freshly fetched.
func (c *Cache[T]) Put(id string, v *T) {
	c.mu.Lock()
	c.entries[id] = entry[T]{value: v, fetchedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate removes any cached entry for id. Invalidating an absent entry is
// a no-op, which keeps consumer-side invalidation idempotent under redelivery.
func (c *Cache[T]) Invalidate(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// Len reports the number of entries currently held, expired or not.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
