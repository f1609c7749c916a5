package middleware

import (
	"context"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/singleflight"
)

// CacheConfig configures Cache.
type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
	// Key derives the cache key of a call. Returning false bypasses the
	// cache. The default caches queries by path and arguments.
	Key func(opts *Options) (string, bool)
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

type resultCache struct {
	mu    sync.Mutex
	items map[string]*cacheEntry
	order []string
	cfg   CacheConfig
	sf    singleflight.Group
}

// Cache memoizes successful results for TTL. A hit returns without calling
// next; concurrent misses for one key share a single call.
func Cache(cfg CacheConfig) *Middleware {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Minute
	}
	if cfg.Key == nil {
		cfg.Key = defaultCacheKey
	}
	c := &resultCache{items: map[string]*cacheEntry{}, cfg: cfg}
	return New("cache", c.intercept)
}

func defaultCacheKey(opts *Options) (string, bool) {
	if opts.Kind != "query" || opts.Parent != nil {
		return "", false
	}
	args, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(opts.Args)
	if err != nil {
		return "", false
	}
	return opts.Path() + ":" + args, true
}

func (c *resultCache) intercept(ctx context.Context, next Next, opts *Options) (any, error) {
	key, ok := c.cfg.Key(opts)
	if !ok {
		return next(ctx)
	}
	if v, hit := c.lookup(key); hit {
		return v, nil
	}
	if ctx.Err() != nil {
		return next(ctx)
	}
	// The shared call outlives any one caller's cancellation.
	shared := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(key, func() (any, error) {
		v, err := next(shared)
		if err == nil {
			c.store(key, v)
		}
		return v, err
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *resultCache) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.items, key)
		c.removeFromOrder(key)
		return nil, false
	}
	return e.value, true
}

func (c *resultCache) store(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; !exists {
		c.order = append(c.order, key)
	}
	c.items[key] = &cacheEntry{value: v, expiresAt: time.Now().Add(c.cfg.TTL)}
	if c.cfg.MaxEntries <= 0 {
		return
	}
	// FIFO eviction
	for len(c.items) > c.cfg.MaxEntries && len(c.order) > 0 {
		victim := c.order[0]
		c.order = c.order[1:]
		delete(c.items, victim)
	}
}

func (c *resultCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
