package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

const articleNamespace = "-art"

func (r Repo) article(ctx context.Context, column, value string) (newsdesk.Article, error) {
	query, args, err := sq.Select("*").From("articles").Where(sq.Eq{column: value}).Limit(1).ToSql()
	if err != nil {
		return newsdesk.Article{}, fmt.Errorf("error constructing sql: %s", err)
	}

	var article newsdesk.Article
	err = r.db.GetContext(ctx, &article, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return newsdesk.Article{}, newsdesk.ErrNotFound
	}
	if err != nil {
		return newsdesk.Article{}, fmt.Errorf("error fetching article: %s", err)
	}

	return article, nil
}

func (r Repo) Article(ctx context.Context, id string) (newsdesk.Article, error) {
	return r.article(ctx, "id", id)
}

func (r Repo) ArticleByGUID(ctx context.Context, guid string) (newsdesk.Article, error) {
	return r.article(ctx, "guid", guid)
}

func (r Repo) ArticleBySourceURL(ctx context.Context, url string) (newsdesk.Article, error) {
	return r.article(ctx, "source_url", url)
}

func (r Repo) ArticleBySlug(ctx context.Context, slug string) (newsdesk.Article, error) {
	return r.article(ctx, "slug", slug)
}

func (r Repo) RecentTitles(ctx context.Context, since time.Time) ([]string, error) {
	const q = `SELECT title FROM articles WHERE created_at >= ?;`

	var titles []string
	if err := r.db.SelectContext(ctx, &titles, q, since.UTC()); err != nil {
		return nil, fmt.Errorf("error selecting recent titles: %s", err)
	}

	return titles, nil
}

func (r Repo) Category(ctx context.Context, id string) (newsdesk.Category, error) {
	const q = `SELECT * FROM categories WHERE id = ?;`

	var cat newsdesk.Category
	err := r.db.GetContext(ctx, &cat, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return newsdesk.Category{}, newsdesk.ErrNotFound
	}
	if err != nil {
		return newsdesk.Category{}, fmt.Errorf("error fetching category: %s", err)
	}

	return cat, nil
}

func (r Repo) CategoryBySlug(ctx context.Context, slug string) (newsdesk.Category, error) {
	const q = `SELECT * FROM categories WHERE slug = ?;`

	var cat newsdesk.Category
	err := r.db.GetContext(ctx, &cat, q, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return newsdesk.Category{}, newsdesk.ErrNotFound
	}
	if err != nil {
		return newsdesk.Category{}, fmt.Errorf("error fetching category: %s", err)
	}

	return cat, nil
}

func (r Repo) CreateArticle(ctx context.Context, na newsdesk.NewArticle) (newsdesk.Article, error) {
	const q = `INSERT INTO articles (
		id, title, slug, content, excerpt, image, published, featured,
		category_id, author_id, source_name, source_url, source_id, guid,
		ai_rewritten, original_content, read_time, source_published_at,
		created_at, published_at
	) VALUES (
		:id, :title, :slug, :content, :excerpt, :image, :published, :featured,
		:category_id, :author_id, :source_name, :source_url, :source_id, :guid,
		:ai_rewritten, :original_content, :read_time, :source_published_at,
		:created_at, :published_at
	);`

	createdAt := na.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	createdAt = createdAt.UTC()

	a := newsdesk.Article{
		ID:                fmt.Sprintf("%s%s", uuid.NewString(), articleNamespace),
		Title:             na.Title,
		Slug:              na.Slug,
		Content:           na.Content,
		Excerpt:           na.Excerpt,
		Image:             nullable(na.Image),
		Published:         na.Published,
		Featured:          na.Featured,
		CategoryID:        na.CategoryID,
		AuthorID:          na.AuthorID,
		SourceName:        na.SourceName,
		SourceURL:         na.SourceURL,
		SourceID:          na.SourceID,
		GUID:              nullable(na.GUID),
		AIRewritten:       na.AIRewritten,
		OriginalContent:   na.OriginalContent,
		ReadTime:          na.ReadTime,
		SourcePublishedAt: na.SourcePublishedAt,
		CreatedAt:         createdAt,
	}
	if na.Published {
		a.PublishedAt = &createdAt
	}

	_, err := r.db.NamedExecContext(ctx, q, a)
	if isConflict(err) {
		return newsdesk.Article{}, fmt.Errorf("article already exists: %w", newsdesk.ErrConflict)
	}
	if err != nil {
		return newsdesk.Article{}, fmt.Errorf("error inserting article: %s", err)
	}

	return r.Article(ctx, a.ID)
}

func (r Repo) CountArticles(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM articles;`

	var count int
	if err := r.db.GetContext(ctx, &count, q); err != nil {
		return 0, fmt.Errorf("error counting articles: %s", err)
	}

	return count, nil
}

func (r Repo) Articles(ctx context.Context, args newsdesk.ArticlesArgs) ([]newsdesk.Article, error) {
	builder := sq.Select("a.*").
		From("articles a").
		Where(sq.Eq{"a.published": true}).
		OrderBy("a.created_at DESC", "a.id DESC")
	if args.CategorySlug != "" {
		builder = builder.
			InnerJoin("categories c ON c.id = a.category_id").
			Where(sq.Eq{"c.slug": args.CategorySlug})
	}
	if args.Limit > 0 {
		builder = builder.Limit(uint64(args.Limit))
	}
	if args.Offset > 0 {
		builder = builder.Offset(uint64(args.Offset))
	}

	query, qArgs, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %s", err)
	}

	articles := []newsdesk.Article{}
	if err := r.db.SelectContext(ctx, &articles, query, qArgs...); err != nil {
		return nil, fmt.Errorf("error selecting articles: %s", err)
	}

	return articles, nil
}

func (r Repo) FallbackArticles(ctx context.Context, limit int) ([]newsdesk.Article, error) {
	const q = `SELECT * FROM articles WHERE ai_rewritten = 0 ORDER BY created_at DESC LIMIT ?;`

	articles := []newsdesk.Article{}
	if err := r.db.SelectContext(ctx, &articles, q, limit); err != nil {
		return nil, fmt.Errorf("error selecting fallback articles: %s", err)
	}

	return articles, nil
}

func (r Repo) UpdateArticleRewrite(ctx context.Context, id string, args newsdesk.UpdateRewriteArgs) error {
	query, qArgs, err := sq.Update("articles").
		Set("title", args.Title).
		Set("content", args.Content).
		Set("excerpt", args.Excerpt).
		Set("ai_rewritten", true).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error constructing sql: %s", err)
	}

	res, err := r.db.ExecContext(ctx, query, qArgs...)
	if err != nil {
		return fmt.Errorf("error updating article: %s", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return newsdesk.ErrNotFound
	}

	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
