package feed

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

// DefaultCacheTTL is how long a cached feed is considered fresh.
const DefaultCacheTTL = 10 * time.Minute

const cacheSize = 256

type cacheEntry struct {
	feed      newsdesk.Feed
	fetchedAt time.Time
}

// Cache holds feeds keyed by a logical name (usually a category).
//
// Expiry is checked on read against the injected clock; nothing is evicted
// in the background. Entries past their TTL stay around as stale data.
type Cache struct {
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	now     func() time.Time
}

type CacheOption func(*Cache)

// WithClock swaps the clock used for TTL checks.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	// Only errors on a non-positive size
	entries, _ := lru.New[string, cacheEntry](cacheSize)
	c := &Cache{
		entries: entries,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the feed under key if it is still fresh.
func (c *Cache) Get(key string) (newsdesk.Feed, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return newsdesk.Feed{}, false
	}
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		return newsdesk.Feed{}, false
	}

	return entry.feed, true
}

// Stale returns the feed under key regardless of its age.
func (c *Cache) Stale(key string) (newsdesk.Feed, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return newsdesk.Feed{}, false
	}

	return entry.feed, true
}

func (c *Cache) Put(key string, feed newsdesk.Feed) {
	c.entries.Add(key, cacheEntry{
		feed:      feed,
		fetchedAt: c.now(),
	})
}

func (c *Cache) Invalidate(key string) {
	c.entries.Remove(key)
}
