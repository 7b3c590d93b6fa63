// Package feed retrieves syndication documents and normalizes them into
// [newsdesk.Feed] values.
//
// Fetching never fails from the caller's perspective: a feed that cannot be
// retrieved or parsed comes back empty and the failure is logged.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

const userAgent = "newsdesk/1.0 (+https://github.com/jdholdren/newsdesk)"

// Fetcher retrieves and normalizes one feed at a time.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher using the given client.
//
// A nil client gets a default one with a short timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{
			Timeout: 10 * time.Second,
		}
	}

	return &Fetcher{client: client}
}

// Fetch grabs the feed at url. On any failure the returned feed is empty.
func (f *Fetcher) Fetch(ctx context.Context, url string) newsdesk.Feed {
	feed, err := f.fetch(ctx, url)
	if err != nil {
		slog.ErrorContext(ctx, "error fetching feed", "url", url, "error", err)
		return newsdesk.Feed{}
	}

	return feed
}

func (f *Fetcher) fetch(ctx context.Context, url string) (newsdesk.Feed, error) {
	// Parsers keep state between calls, so each fetch gets its own
	parser := gofeed.NewParser()
	parser.Client = f.client
	parser.UserAgent = userAgent

	parsed, err := parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return newsdesk.Feed{}, fmt.Errorf("error parsing feed: %w", err)
	}

	return normalize(parsed), nil
}

func normalize(parsed *gofeed.Feed) newsdesk.Feed {
	feed := newsdesk.Feed{
		Title:       strings.TrimSpace(parsed.Title),
		Description: strings.TrimSpace(parsed.Description),
		Link:        parsed.Link,
		Items:       make([]newsdesk.FeedItem, 0, len(parsed.Items)),
	}
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		feed.Items = append(feed.Items, toItem(parsed.FeedType, item))
	}

	return feed
}

func toItem(feedType string, item *gofeed.Item) newsdesk.FeedItem {
	fi := newsdesk.FeedItem{
		Title:          strings.TrimSpace(item.Title),
		Link:           strings.TrimSpace(item.Link),
		Published:      item.Published,
		GUID:           strings.TrimSpace(item.GUID),
		Description:    item.Description,
		Categories:     item.Categories,
		MediaContent:   mediaContent(item.Extensions),
		MediaThumbnail: mediaThumbnail(item.Extensions),
	}
	if fi.Published == "" {
		fi.Published = item.Updated
	}
	if fi.GUID == "" {
		fi.GUID = fi.Link
	}

	// RSS puts content:encoded in Content, Atom puts its <content> there
	if feedType == "rss" {
		fi.EncodedContent = item.Content
	} else {
		fi.Content = item.Content
	}

	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		fi.Enclosures = append(fi.Enclosures, newsdesk.Media{URL: enc.URL, Type: enc.Type})
	}
	if item.Image != nil {
		fi.Image = item.Image.URL
	}

	return fi
}

// Collects media:content entries in document order, including those nested in a media:group.
func mediaContent(exts ext.Extensions) []newsdesk.Media {
	media, ok := exts["media"]
	if !ok {
		return nil
	}

	var out []newsdesk.Media
	for _, e := range media["content"] {
		out = append(out, toMedia(e))
	}
	for _, group := range media["group"] {
		for _, e := range group.Children["content"] {
			out = append(out, toMedia(e))
		}
	}

	return out
}

func mediaThumbnail(exts ext.Extensions) string {
	media, ok := exts["media"]
	if !ok {
		return ""
	}

	for _, e := range media["thumbnail"] {
		if u := e.Attrs["url"]; u != "" {
			return u
		}
	}
	for _, group := range media["group"] {
		for _, e := range group.Children["thumbnail"] {
			if u := e.Attrs["url"]; u != "" {
				return u
			}
		}
	}

	return ""
}

func toMedia(e ext.Extension) newsdesk.Media {
	return newsdesk.Media{
		URL:    e.Attrs["url"],
		Type:   e.Attrs["type"],
		Medium: e.Attrs["medium"],
	}
}
