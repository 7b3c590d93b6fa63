// Package ingest drives the pipeline over one or many sources: fetch, extract,
// dedup, classify, rewrite, then store.
//
// Callers must not run two ingestions against the same store at once. The
// trigger layer holds a run lease (or a fixed workflow id) for that. Should
// two runs race anyway, the store's unique constraints reject the loser and
// the item is reported as an error.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sym01/htmlsanitizer"

	"github.com/jdholdren/newsdesk/internal/extract"
	"github.com/jdholdren/newsdesk/internal/logger"
	"github.com/jdholdren/newsdesk/internal/newsdesk"
	"github.com/jdholdren/newsdesk/internal/rewrite"
)

// DefaultMinTextChars is the shortest plain text body worth rewriting.
const DefaultMinTextChars = 100

type (
	Fetcher interface {
		Fetch(ctx context.Context, url string) newsdesk.Feed
	}

	Gate interface {
		IsDuplicate(ctx context.Context, guid, title, sourceURL string) (bool, error)
	}

	Classifier interface {
		Classify(ctx context.Context, title, content string) string
	}

	Rewriter interface {
		Rewrite(ctx context.Context, a rewrite.Article) rewrite.Result
	}
)

type Config struct {
	// Items with less plain text than this are skipped.
	MinTextChars int
}

func DefaultConfig() Config {
	return Config{MinTextChars: DefaultMinTextChars}
}

type Ingester struct {
	repo       newsdesk.ArticleRepo
	fetcher    Fetcher
	gate       Gate
	classifier Classifier
	rewriter   Rewriter
	config     Config
	client     *http.Client
	now        func() time.Time
}

type Option func(*Ingester)

// WithHTTPClient sets the client used for full text enrichment.
func WithHTTPClient(client *http.Client) Option {
	return func(i *Ingester) {
		i.client = client
	}
}

func WithClock(now func() time.Time) Option {
	return func(i *Ingester) {
		i.now = now
	}
}

func New(
	repo newsdesk.ArticleRepo,
	fetcher Fetcher,
	gate Gate,
	classifier Classifier,
	rewriter Rewriter,
	config Config,
	opts ...Option,
) *Ingester {
	i := &Ingester{
		repo:       repo,
		fetcher:    fetcher,
		gate:       gate,
		classifier: classifier,
		rewriter:   rewriter,
		config:     config,
		client:     &http.Client{Timeout: 10 * time.Second},
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(i)
	}

	return i
}

// SourceResult is the outcome of processing one source.
type SourceResult struct {
	Stored  int      `json:"stored"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeStored
)

// ProcessSource runs every item of src through the pipeline in feed order,
// taking at most limit items when limit is positive.
//
// Nothing is returned as an error: a failing item is recorded by title and
// the next one is processed.
func (i *Ingester) ProcessSource(ctx context.Context, src newsdesk.Source, authorID string, limit int) SourceResult {
	ctx = logger.Ctx(ctx, slog.String("source", src.Name))
	res := SourceResult{Errors: []string{}}

	sourceCat, err := i.repo.CategoryBySlug(ctx, src.Category)
	if errors.Is(err, newsdesk.ErrNotFound) {
		res.Errors = append(res.Errors, fmt.Sprintf("category not found for source %s: %s", src.Name, src.Category))
		return res
	}
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("error loading category for source %s: %s", src.Name, err))
		return res
	}

	feed := i.fetcher.Fetch(ctx, src.URL)
	if len(feed.Items) == 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("no items found in feed: %s", src.URL))
		return res
	}

	items := feed.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	for _, item := range items {
		if ctx.Err() != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("stopped before finishing %s: %s", src.Name, ctx.Err()))
			break
		}

		title := itemTitle(item)
		out, err := i.processItem(logger.Ctx(ctx, slog.String("item", title)), src, sourceCat, authorID, title, item)
		if err != nil {
			slog.ErrorContext(ctx, "error processing item", "item", title, "error", err)
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", title, err))
			continue
		}

		switch out {
		case outcomeStored:
			res.Stored++
		case outcomeSkipped:
			res.Skipped++
		}
	}

	slog.InfoContext(ctx, "processed source", "stored", res.Stored, "skipped", res.Skipped, "errors", len(res.Errors))
	return res
}

func (i *Ingester) processItem(
	ctx context.Context,
	src newsdesk.Source,
	sourceCat newsdesk.Category,
	authorID string,
	title string,
	item newsdesk.FeedItem,
) (outcome, error) {
	text := i.text(ctx, src, item)
	if utf8.RuneCountInString(text) < i.config.MinTextChars {
		slog.DebugContext(ctx, "skipping short item", "chars", utf8.RuneCountInString(text))
		return outcomeSkipped, nil
	}

	guid := extract.Identifier(item)
	dup, err := i.gate.IsDuplicate(ctx, guid, title, strings.TrimSpace(item.Link))
	if err != nil {
		return outcomeSkipped, fmt.Errorf("error checking for duplicates: %w", err)
	}
	if dup {
		slog.DebugContext(ctx, "skipping duplicate item")
		return outcomeSkipped, nil
	}

	cat, err := i.category(ctx, i.classifier.Classify(ctx, title, text), sourceCat)
	if err != nil {
		return outcomeSkipped, err
	}

	result := i.rewriter.Rewrite(ctx, rewrite.Article{
		Title:       title,
		Content:     text,
		Description: extract.PlainText(item.Description),
		Category:    cat.Slug,
	})

	content := result.Content
	if strings.ContainsRune(content, '<') {
		content, err = htmlsanitizer.NewHTMLSanitizer().SanitizeString(content)
		if err != nil {
			return outcomeSkipped, fmt.Errorf("error sanitizing content: %s", err)
		}
	}

	slug, err := i.uniqueSlug(ctx, result.Title)
	if err != nil {
		return outcomeSkipped, err
	}

	norm := extract.Normalize(item, src)
	_, err = i.repo.CreateArticle(ctx, newsdesk.NewArticle{
		Title:             result.Title,
		Slug:              slug,
		Content:           content,
		Excerpt:           result.Excerpt,
		Image:             norm.Image,
		Published:         true,
		CategoryID:        cat.ID,
		AuthorID:          authorID,
		SourceName:        norm.SourceName,
		SourceURL:         strings.TrimSpace(item.Link),
		SourceID:          src.ID,
		GUID:              guid,
		AIRewritten:       result.Rewritten,
		OriginalContent:   text,
		ReadTime:          extract.ReadTime(extract.PlainText(content)),
		SourcePublishedAt: extract.PublishedAt(item),
		CreatedAt:         i.now(),
	})
	if err != nil {
		return outcomeSkipped, fmt.Errorf("error storing article: %w", err)
	}

	slog.InfoContext(ctx, "stored article", "slug", slug, "category", cat.Slug, "rewritten", result.Rewritten)
	return outcomeStored, nil
}

// text is the item's plain text body, enriched from the linked page when the
// source allows it and the feed body is too short.
func (i *Ingester) text(ctx context.Context, src newsdesk.Source, item newsdesk.FeedItem) string {
	text := extract.Text(item)
	if !src.FullText || item.Link == "" || utf8.RuneCountInString(text) >= i.config.MinTextChars {
		return text
	}

	full, err := extract.FullText(ctx, i.client, item.Link)
	if err != nil {
		slog.WarnContext(ctx, "error fetching full text", "link", item.Link, "error", err)
		return text
	}
	if len(full) > len(text) {
		return full
	}

	return text
}

// category resolves the classified slug, keeping the source's own category
// when the slug isn't stored.
func (i *Ingester) category(ctx context.Context, slug string, sourceCat newsdesk.Category) (newsdesk.Category, error) {
	if slug == sourceCat.Slug {
		return sourceCat, nil
	}

	cat, err := i.repo.CategoryBySlug(ctx, slug)
	if errors.Is(err, newsdesk.ErrNotFound) {
		slog.WarnContext(ctx, "classified category not found, using source category", "category", slug)
		return sourceCat, nil
	}
	if err != nil {
		return newsdesk.Category{}, fmt.Errorf("error loading category: %w", err)
	}

	return cat, nil
}

func itemTitle(item newsdesk.FeedItem) string {
	if title := extract.PlainText(item.Title); title != "" {
		return title
	}

	return "untitled"
}
