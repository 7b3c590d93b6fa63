// Package extract derives plain text, an image and identifiers from raw feed items.
//
// Everything here is total: malformed input degrades to empty or partial
// output instead of an error.
package extract

import (
	"math"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/microcosm-cc/bluemonday"

	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

const wordsPerMinute = 200

var (
	stripPolicy = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

	// Single pass, so "&amp;lt;" becomes "&lt;" and not "<"
	entities = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#34;", `"`,
		"&#39;", "'",
	)
)

// PlainText strips all tags, decodes the common entities and collapses whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}

	s = stripPolicy.Sanitize(s)
	s = entities.Replace(s)

	return strings.Join(strings.Fields(s), " ")
}

// Text picks the richest body the item carries and returns it as plain text.
func Text(item newsdesk.FeedItem) string {
	for _, body := range []string{item.EncodedContent, item.Content, item.Description} {
		if text := PlainText(body); text != "" {
			return text
		}
	}

	return ""
}

// ImageURL resolves the item's image, trying each known location in turn.
//
// Returns an empty string when nothing is found.
func ImageURL(item newsdesk.FeedItem) string {
	for _, m := range item.MediaContent {
		if m.URL != "" && isImage(m) {
			return m.URL
		}
	}
	for _, m := range item.Enclosures {
		if m.URL != "" && isImage(m) {
			return m.URL
		}
	}
	if item.MediaThumbnail != "" {
		return item.MediaThumbnail
	}
	for _, body := range []string{item.EncodedContent, item.Description, item.Content} {
		if src := imgSrc(body); src != "" {
			return src
		}
	}

	return item.Image
}

// Media without a medium or type is assumed to be an image.
func isImage(m newsdesk.Media) bool {
	if m.Medium != "" {
		return m.Medium == "image"
	}
	if m.Type != "" {
		return strings.HasPrefix(m.Type, "image/")
	}

	return true
}

// First <img src=""> in an html fragment.
func imgSrc(body string) string {
	if !strings.Contains(body, "<img") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")

	return strings.TrimSpace(src)
}

// Identifier is the item's canonical id: the guid when present, otherwise the link.
func Identifier(item newsdesk.FeedItem) string {
	if guid := strings.TrimSpace(item.GUID); guid != "" {
		return guid
	}

	return strings.TrimSpace(item.Link)
}

// ReadTime estimates minutes to read text, never less than one.
func ReadTime(text string) int {
	words := len(strings.Fields(text))

	return max(1, int(math.Ceil(float64(words)/wordsPerMinute)))
}

// PublishedAt parses the item's timestamp in whatever format the source used.
// Timestamps without a zone are read as UTC.
func PublishedAt(item newsdesk.FeedItem) *time.Time {
	if strings.TrimSpace(item.Published) == "" {
		return nil
	}

	t, err := dateparse.ParseIn(strings.TrimSpace(item.Published), time.UTC)
	if err != nil {
		return nil
	}
	t = t.UTC()

	return &t
}

// Normalize derives the article view of an item coming from src.
func Normalize(item newsdesk.FeedItem, src newsdesk.Source) newsdesk.NormalizedArticle {
	text := Text(item)

	return newsdesk.NormalizedArticle{
		Text:       text,
		Image:      ImageURL(item),
		Category:   src.Category,
		ReadTime:   ReadTime(text),
		SourceName: src.Name,
	}
}
