package rates

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/charlesng35/autodetail/pkg/metrics"
)

// DefaultTTL is how long a fetched rate table is served before refetching.
const DefaultTTL = time.Hour

// loadTimeout bounds a shared load once it no longer follows any caller's context.
const loadTimeout = 30 * time.Second

// Cache holds rate tables per base currency for a fixed TTL. Concurrent
// misses for the same base share a single load.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

type cacheEntry struct {
	table     Table
	fetchedAt time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheClock overrides the clock used for expiry.
func WithCacheClock(clock func() time.Time) CacheOption {
	return func(c *Cache) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewCache constructs a Cache. A non-positive ttl falls back to DefaultTTL.
func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached table for base when it is still fresh.
func (c *Cache) Get(base string) (Table, bool) {
	key := cacheKey(base)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.fetchedAt) >= c.ttl {
		return Table{}, false
	}
	return entry.table, true
}

// Put stores table for base, stamped with the current time.
func (c *Cache) Put(base string, table Table) {
	c.mu.Lock()
	c.entries[cacheKey(base)] = cacheEntry{table: table, fetchedAt: c.now()}
	c.mu.Unlock()
}

// GetOrLoad returns the fresh cached table for base or loads and stores it.
// Failed loads are not cached. A shared load is detached from the caller that
// started it, so one cancelled request does not fail the others waiting on it.
func (c *Cache) GetOrLoad(ctx context.Context, base string, load func(context.Context, string) (Table, error)) (Table, error) {
	if table, ok := c.Get(base); ok {
		metrics.RateCacheLookups.WithLabelValues("hit").Inc()
		return table, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(cacheKey(base), func() (any, error) {
		if table, ok := c.Get(base); ok {
			return table, nil
		}
		timeoutCtx, cancel := context.WithTimeout(loadCtx, loadTimeout)
		defer cancel()
		table, err := load(timeoutCtx, base)
		if err != nil {
			return Table{}, err
		}
		c.Put(base, table)
		return table, nil
	})

	select {
	case <-ctx.Done():
		metrics.RateCacheLookups.WithLabelValues("error").Inc()
		return Table{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			metrics.RateCacheLookups.WithLabelValues("error").Inc()
			return Table{}, res.Err
		}
		metrics.RateCacheLookups.WithLabelValues("miss").Inc()
		return res.Val.(Table), nil
	}
}

func cacheKey(base string) string {
	return strings.ToLower(strings.TrimSpace(base))
}
