package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	deskerrs "github.com/jdholdren/newsdesk/internal/errors"
	"github.com/jdholdren/newsdesk/internal/extract"
	"github.com/jdholdren/newsdesk/internal/newsdesk"
	"github.com/jdholdren/newsdesk/internal/serverutil"
)

type ArticleResp struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content,omitempty"`
	Image       string     `json:"image,omitempty"`
	Featured    bool       `json:"featured"`
	CategoryID  string     `json:"category_id"`
	SourceName  string     `json:"source_name"`
	SourceURL   string     `json:"source_url"`
	AIRewritten bool       `json:"ai_rewritten"`
	ReadTime    int        `json:"read_time"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func apiArticle(a newsdesk.Article, withContent bool) ArticleResp {
	resp := ArticleResp{
		ID:          a.ID,
		Title:       a.Title,
		Slug:        a.Slug,
		Excerpt:     a.Excerpt,
		Image:       lo.FromPtr(a.Image),
		Featured:    a.Featured,
		CategoryID:  a.CategoryID,
		SourceName:  a.SourceName,
		SourceURL:   a.SourceURL,
		AIRewritten: a.AIRewritten,
		ReadTime:    a.ReadTime,
		PublishedAt: a.PublishedAt,
		CreatedAt:   a.CreatedAt,
	}
	if withContent {
		resp.Content = a.Content
	}

	return resp
}

type ArticlesResp struct {
	Articles   []ArticleResp  `json:"articles"`
	Pagination paginationMeta `json:"pagination"`
}

func (s Server) getArticles(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx      = r.Context()
		category = r.URL.Query().Get("category")
	)

	limit, offset, err := parsePaginationParams(r, 20, 100)
	if err != nil {
		return err
	}

	articles, err := s.repo.Articles(ctx, newsdesk.ArticlesArgs{
		Limit:        limit,
		Offset:       offset,
		CategorySlug: category,
	})
	if err != nil {
		return fmt.Errorf("error fetching articles: %w", err)
	}

	meta := paginationMeta{Limit: limit, Offset: offset}
	if category == "" {
		if meta.Total, err = s.repo.CountArticles(ctx); err != nil {
			return fmt.Errorf("error counting articles: %w", err)
		}
	}

	return serverutil.WriteJSON(w, http.StatusOK, ArticlesResp{
		Articles: lo.Map(articles, func(a newsdesk.Article, _ int) ArticleResp {
			return apiArticle(a, false)
		}),
		Pagination: meta,
	})
}

func (s Server) getArticle(w http.ResponseWriter, r *http.Request) error {
	slug := mux.Vars(r)["slug"]

	article, err := s.repo.ArticleBySlug(r.Context(), slug)
	if errors.Is(err, newsdesk.ErrNotFound) {
		return deskerrs.E(http.StatusNotFound, fmt.Sprintf("article not found: %s", slug))
	}
	if err != nil {
		return fmt.Errorf("error fetching article: %w", err)
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiArticle(article, true))
}

type HeadlineResp struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published,omitempty"`
	Image     string `json:"image,omitempty"`
	Summary   string `json:"summary,omitempty"`
}

const headlineSummaryChars = 280

func (s Server) getHeadlines(w http.ResponseWriter, r *http.Request) error {
	urls := s.headlineFeeds
	if category := r.URL.Query().Get("category"); category != "" {
		url, ok := s.headlineFeeds[category]
		if !ok {
			return deskerrs.E(
				http.StatusBadRequest,
				"unknown category",
				deskerrs.Detail{Field: "category", Error: fmt.Sprintf("no feed for %q", category)},
			)
		}
		urls = map[string]string{category: url}
	}

	feeds := s.headlines.FetchAll(r.Context(), urls)

	resp := make(map[string][]HeadlineResp, len(feeds))
	for category, feed := range feeds {
		resp[category] = lo.Map(feed.Items, func(item newsdesk.FeedItem, _ int) HeadlineResp {
			summary := []rune(extract.Text(item))
			if len(summary) > headlineSummaryChars {
				summary = summary[:headlineSummaryChars]
			}

			return HeadlineResp{
				Title:     extract.PlainText(item.Title),
				Link:      item.Link,
				Published: item.Published,
				Image:     extract.ImageURL(item),
				Summary:   string(summary),
			}
		})
	}

	return serverutil.WriteJSON(w, http.StatusOK, resp)
}
