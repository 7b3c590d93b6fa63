package feed

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

// How many feeds are fetched at once during a fan-out.
const fanOutLimit = 4

// CachedFetcher fronts a Fetcher with a category keyed cache.
//
// When a fetch fails, whatever was cached last is served even if expired.
type CachedFetcher struct {
	fetcher *Fetcher
	cache   *Cache
}

func NewCachedFetcher(fetcher *Fetcher, cache *Cache) *CachedFetcher {
	return &CachedFetcher{
		fetcher: fetcher,
		cache:   cache,
	}
}

// Fetch returns the feed for category, going to url only when the cache is cold or expired.
func (c *CachedFetcher) Fetch(ctx context.Context, category, url string) newsdesk.Feed {
	if feed, ok := c.cache.Get(category); ok {
		return feed
	}

	feed, err := c.fetcher.fetch(ctx, url)
	if err != nil {
		if stale, ok := c.cache.Stale(category); ok {
			slog.WarnContext(ctx, "serving stale feed", "category", category, "url", url, "error", err)
			return stale
		}

		slog.ErrorContext(ctx, "error fetching feed", "category", category, "url", url, "error", err)
		return newsdesk.Feed{}
	}

	c.cache.Put(category, feed)
	return feed
}

// FetchAll fetches every category's feed concurrently and joins the results.
//
// urls maps a category to its feed url.
func (c *CachedFetcher) FetchAll(ctx context.Context, urls map[string]string) map[string]newsdesk.Feed {
	var (
		mu    sync.Mutex
		feeds = make(map[string]newsdesk.Feed, len(urls))
		g, _  = errgroup.WithContext(ctx)
	)
	g.SetLimit(fanOutLimit)

	for category, url := range urls {
		g.Go(func() error {
			feed := c.Fetch(ctx, category, url)

			mu.Lock()
			defer mu.Unlock()
			feeds[category] = feed

			return nil
		})
	}

	// Nothing returns an error
	_ = g.Wait()

	return feeds
}
