// Package newsdesk holds the domain types shared by the ingestion pipeline,
// the storage layer and the trigger surfaces (api, worker, cli).
package newsdesk

import (
	"context"
	"errors"
	"time"
)

var (
	ErrConflict = errors.New("resource already exists")
	ErrNotFound = errors.New("resource not found")
)

type (
	// ArticleRepo is the storage surface the pipeline consumes.
	ArticleRepo interface {
		ArticleByGUID(ctx context.Context, guid string) (Article, error)
		ArticleBySourceURL(ctx context.Context, url string) (Article, error)
		ArticleBySlug(ctx context.Context, slug string) (Article, error)
		// Titles of every article created at or after since.
		RecentTitles(ctx context.Context, since time.Time) ([]string, error)
		CategoryBySlug(ctx context.Context, slug string) (Category, error)
		// Fails with ErrConflict when the guid or slug is already taken.
		CreateArticle(ctx context.Context, article NewArticle) (Article, error)
	}

	// Repository is everything the trigger layer needs on top of the pipeline's surface.
	Repository interface {
		ArticleRepo

		Category(ctx context.Context, id string) (Category, error)
		CountArticles(ctx context.Context) (int, error)
		Articles(ctx context.Context, args ArticlesArgs) ([]Article, error)
		FallbackArticles(ctx context.Context, limit int) ([]Article, error)
		UpdateArticleRewrite(ctx context.Context, id string, args UpdateRewriteArgs) error

		AcquireRunLease(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
		ReleaseRunLease(ctx context.Context, name, holder string) error
		InsertRun(ctx context.Context, run Run) error
		LatestRun(ctx context.Context) (Run, error)
	}
)
