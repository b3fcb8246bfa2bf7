// Package cache provides an injectable, size and age bounded point cache with
// single-flight memoization of lookups.
//
// A Cache is constructed explicitly and handed to the stores that need it; there
// is no process-wide instance. Entries older than MaxAge are treated as absent.
// Memoize collapses concurrent misses on the same key into one fetch whose
// outcome (value or error) is observed by every waiting caller. Failed fetches
// are never cached, and a Delete issued while a fetch is in flight prevents that
// fetch from repopulating the entry, so writers can invalidate safely. Deleting
// one key never affects fetches of another.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Config holds the bounds of a cache.
type Config struct {
	// MaxSize is the maximum number of entries kept; least recently used entries are evicted first.
	MaxSize int
	// MaxAge is how long an entry stays valid. Zero disables expiry.
	MaxAge time.Duration
	// OnLookup, if set, is called once per Memoize with whether the entry was cached.
	OnLookup func(hit bool)
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a generic string-keyed LRU cache with max-age expiry and single-flight memoization.
type Cache[V any] struct {
	cfg   Config
	lru   *lru.Cache[string, entry[V]]
	group singleflight.Group
	now   func() time.Time

	// mu orders Set-after-fetch against Delete and Purge so an invalidated fetch
	// cannot repopulate. gens holds an entry only while a fetch for the key runs.
	mu    sync.Mutex
	epoch uint64
	gens  map[string]*keyGeneration
}

type keyGeneration struct {
	gen     uint64
	flights int
}

// New creates a cache with the given bounds.
// Returns an error if MaxSize is not positive or MaxAge is negative.
func New[V any](cfg Config) (*Cache[V], error) {
	if cfg.MaxSize <= 0 {
		return nil, fmt.Errorf("cache max size must be positive, got %d", cfg.MaxSize)
	}
	if cfg.MaxAge < 0 {
		return nil, fmt.Errorf("cache max age must not be negative, got %s", cfg.MaxAge)
	}

	l, err := lru.New[string, entry[V]](cfg.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}

	return &Cache[V]{
		cfg:  cfg,
		lru:  l,
		now:  time.Now,
		gens: make(map[string]*keyGeneration),
	}, nil
}

// Get returns the cached value for key. Expired entries are removed and reported as absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if c.expired(e) {
		c.lru.Remove(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value)
}

// Delete removes key from the cache and invalidates any in-flight fetch for it.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.gens[key]; ok {
		g.gen++
	}
	c.lru.Remove(key)
	c.group.Forget(key)
}

// Len returns the number of entries currently held, including expired ones not yet evicted.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.lru.Purge()
}

// Memoize returns the cached value for key, or runs fetch exactly once across all
// concurrent callers for that key and caches a successful result.
//
// The fetch keeps the values of the context of the caller that started it but not
// its cancellation, so one caller giving up does not fail the others sharing the
// flight. Each caller stops waiting when its own ctx is done.
func (c *Cache[V]) Memoize(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error) {
	v, ok := c.Get(key)
	if c.cfg.OnLookup != nil {
		c.cfg.OnLookup(ok)
	}
	if ok {
		return v, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// a flight that finished between the miss above and DoChan may already have filled the entry
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		g, epoch := c.beginFetch(key)
		v, err := fetch(fetchCtx)
		c.endFetch(key, g, epoch, v, err == nil)
		if err != nil {
			return nil, err
		}
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// beginFetch registers an in-flight fetch of key and snapshots its generation.
func (c *Cache[V]) beginFetch(key string) (gen uint64, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.gens[key]
	if !ok {
		g = &keyGeneration{}
		c.gens[key] = g
	}
	g.flights++
	return g.gen, c.epoch
}

// endFetch stores value unless key was deleted or the cache purged since beginFetch.
func (c *Cache[V]) endFetch(key string, gen, epoch uint64, value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.gens[key]
	if ok && g.gen == gen && c.epoch == epoch {
		c.set(key, value)
	}
	g.flights--
	if g.flights == 0 {
		delete(c.gens, key)
	}
}

func (c *Cache[V]) set(key string, value V) {
	e := entry[V]{value: value}
	if c.cfg.MaxAge > 0 {
		e.expiresAt = c.now().Add(c.cfg.MaxAge)
	}
	c.lru.Add(key, e)
}

func (c *Cache[V]) expired(e entry[V]) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}
