package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

func newRepo(t *testing.T) Repo {
	t.Helper()

	dbx, err := Open(filepath.Join(t.TempDir(), "newsdesk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })

	return New(dbx)
}

func newArticle(t *testing.T, repo Repo, slug, guid string) newsdesk.Article {
	t.Helper()

	cat, err := repo.CategoryBySlug(context.Background(), newsdesk.CategoryTechnology)
	require.NoError(t, err)

	a, err := repo.CreateArticle(context.Background(), newsdesk.NewArticle{
		Title:      "Title for " + slug,
		Slug:       slug,
		Content:    "content",
		Published:  true,
		CategoryID: cat.ID,
		AuthorID:   "staff-usr",
		SourceURL:  "https://example.com/" + slug,
		GUID:       guid,
		ReadTime:   1,
	})
	require.NoError(t, err)
	return a
}

func TestCategories(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	for _, slug := range newsdesk.Categories {
		cat, err := repo.CategoryBySlug(ctx, slug)
		require.NoError(t, err, slug)
		assert.Equal(t, slug, cat.Slug)
	}

	_, err := repo.CategoryBySlug(ctx, "gardening")
	assert.ErrorIs(t, err, newsdesk.ErrNotFound)

	sports, err := repo.CategoryBySlug(ctx, newsdesk.CategorySports)
	require.NoError(t, err)
	byID, err := repo.Category(ctx, sports.ID)
	require.NoError(t, err)
	assert.Equal(t, sports, byID)

	_, err = repo.Category(ctx, "gardening-cat")
	assert.ErrorIs(t, err, newsdesk.ErrNotFound)
}

func TestCreateArticle(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	a := newArticle(t, repo, "first", "guid-1")
	assert.NotEmpty(t, a.ID)
	assert.True(t, a.Published)
	assert.NotNil(t, a.PublishedAt)
	assert.Nil(t, a.Image)
	require.NotNil(t, a.GUID)
	assert.Equal(t, "guid-1", *a.GUID)

	byGUID, err := repo.ArticleByGUID(ctx, "guid-1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byGUID.ID)

	byURL, err := repo.ArticleBySourceURL(ctx, "https://example.com/first")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byURL.ID)

	bySlug, err := repo.ArticleBySlug(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, a.ID, bySlug.ID)

	_, err = repo.ArticleBySlug(ctx, "missing")
	assert.ErrorIs(t, err, newsdesk.ErrNotFound)
}

func TestCreateArticle_Conflicts(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	newArticle(t, repo, "taken", "guid-1")

	t.Run("slug", func(t *testing.T) {
		_, err := repo.CreateArticle(ctx, newsdesk.NewArticle{
			Title: "x", Slug: "taken", CategoryID: "news-cat", AuthorID: "staff-usr",
		})
		assert.ErrorIs(t, err, newsdesk.ErrConflict)
	})

	t.Run("guid", func(t *testing.T) {
		_, err := repo.CreateArticle(ctx, newsdesk.NewArticle{
			Title: "x", Slug: "other", GUID: "guid-1", CategoryID: "news-cat", AuthorID: "staff-usr",
		})
		assert.ErrorIs(t, err, newsdesk.ErrConflict)
	})

	t.Run("empty guids never collide", func(t *testing.T) {
		newArticle(t, repo, "no-guid-1", "")
		newArticle(t, repo, "no-guid-2", "")
	})
}

func TestRecentTitles(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-10 * 24 * time.Hour)
	_, err := repo.CreateArticle(ctx, newsdesk.NewArticle{
		Title: "Old story", Slug: "old", CategoryID: "news-cat", AuthorID: "staff-usr", CreatedAt: old,
	})
	require.NoError(t, err)
	newArticle(t, repo, "fresh", "")

	titles, err := repo.RecentTitles(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"Title for fresh"}, titles)
}

func TestArticles(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, slug := range []string{"a", "b", "c"} {
		_, err := repo.CreateArticle(ctx, newsdesk.NewArticle{
			Title: slug, Slug: slug, Published: true,
			CategoryID: "technology-cat", AuthorID: "staff-usr",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	_, err := repo.CreateArticle(ctx, newsdesk.NewArticle{
		Title: "d", Slug: "d", Published: true,
		CategoryID: "sports-cat", AuthorID: "staff-usr", CreatedAt: base,
	})
	require.NoError(t, err)

	count, err := repo.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	page, err := repo.Articles(ctx, newsdesk.ArticlesArgs{Limit: 2, CategorySlug: "technology"})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].Slug)
	assert.Equal(t, "b", page[1].Slug)

	page, err = repo.Articles(ctx, newsdesk.ArticlesArgs{Limit: 2, Offset: 2, CategorySlug: "technology"})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].Slug)

	all, err := repo.Articles(ctx, newsdesk.ArticlesArgs{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestFallbackArticles(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	a := newArticle(t, repo, "plain", "")
	assert.False(t, a.AIRewritten)

	fallbacks, err := repo.FallbackArticles(ctx, 10)
	require.NoError(t, err)
	require.Len(t, fallbacks, 1)

	err = repo.UpdateArticleRewrite(ctx, a.ID, newsdesk.UpdateRewriteArgs{
		Title: "Better title", Content: "Better content", Excerpt: "Better excerpt",
	})
	require.NoError(t, err)

	updated, err := repo.ArticleBySlug(ctx, "plain")
	require.NoError(t, err)
	assert.True(t, updated.AIRewritten)
	assert.Equal(t, "Better title", updated.Title)

	fallbacks, err = repo.FallbackArticles(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, fallbacks)

	err = repo.UpdateArticleRewrite(ctx, "nope", newsdesk.UpdateRewriteArgs{})
	assert.ErrorIs(t, err, newsdesk.ErrNotFound)
}

func TestRunLease(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	ok, err := repo.AcquireRunLease(ctx, "ingest", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AcquireRunLease(ctx, "ingest", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held by a")

	ok, err = repo.AcquireRunLease(ctx, "ingest", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "holder may renew")

	require.NoError(t, repo.ReleaseRunLease(ctx, "ingest", "a"))
	ok, err = repo.AcquireRunLease(ctx, "ingest", "b", -time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AcquireRunLease(ctx, "ingest", "c", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired lease is up for grabs")
}

func TestRuns(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.LatestRun(ctx)
	assert.ErrorIs(t, err, newsdesk.ErrNotFound)

	start := time.Now().UTC().Add(-time.Hour)
	for i, trigger := range []string{"schedule", "manual"} {
		err := repo.InsertRun(ctx, newsdesk.Run{
			Trigger:    trigger,
			Status:     "completed",
			Stored:     i,
			StartedAt:  start.Add(time.Duration(i) * time.Minute),
			FinishedAt: start.Add(time.Duration(i)*time.Minute + time.Second),
		})
		require.NoError(t, err)
	}

	run, err := repo.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "manual", run.Trigger)
	assert.Equal(t, 1, run.Stored)
	assert.Equal(t, "{}", run.Report)
}
