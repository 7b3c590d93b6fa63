package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	deskerrs "github.com/jdholdren/newsdesk/internal/errors"
	"github.com/jdholdren/newsdesk/internal/ingest"
	"github.com/jdholdren/newsdesk/internal/newsdesk"
	"github.com/jdholdren/newsdesk/internal/rewrite"
)

type activities struct {
	repo     newsdesk.Repository
	catalog  Catalog
	ingester SourceIngester
	rewriter BatchRewriter
	cfg      Config
}

// Instance to make the workflow a bit more readable
var acts = activities{}

// ActiveSources lists the sources to ingest with their weighted limits,
// narrowed to ids when any are given.
func (a activities) ActiveSources(ctx context.Context, ids []string) ([]newsdesk.Source, error) {
	srcs := a.catalog.Weighted(a.cfg.PerSourceLimit)
	if len(ids) == 0 {
		return srcs, nil
	}

	byID := make(map[string]newsdesk.Source, len(srcs))
	for _, src := range srcs {
		byID[src.ID] = src
	}

	picked := make([]newsdesk.Source, 0, len(ids))
	for _, id := range ids {
		src, ok := byID[id]
		if !ok {
			return nil, temporal.NewNonRetryableApplicationError(
				"unknown source",
				errTypeDeskerr,
				nil,
				deskerrs.E(http.StatusBadRequest, fmt.Sprintf("unknown or inactive source: %s", id)),
			)
		}
		picked = append(picked, src)
	}

	return picked, nil
}

// ProcessSource runs the pipeline over a single source.
func (a activities) ProcessSource(ctx context.Context, src newsdesk.Source) (ingest.SourceResult, error) {
	res := a.ingester.ProcessSource(ctx, src, a.cfg.AuthorID, src.Limit)
	activity.GetLogger(ctx).Info("processed source",
		"source", src.Name,
		"stored", res.Stored,
		"skipped", res.Skipped,
		"errors", len(res.Errors),
	)

	return res, nil
}

type RecordRunParams struct {
	Trigger    string
	Report     ingest.Report
	StartedAt  time.Time
	FinishedAt time.Time
}

// RecordRun stores the report of a finished run.
func (a activities) RecordRun(ctx context.Context, params RecordRunParams) error {
	byts, err := json.Marshal(params.Report)
	if err != nil {
		return fmt.Errorf("error encoding report: %s", err)
	}

	if err := a.repo.InsertRun(ctx, newsdesk.Run{
		Trigger:    params.Trigger,
		Status:     params.Report.Status,
		Stored:     params.Report.Stored,
		Skipped:    params.Report.Skipped,
		Report:     string(byts),
		StartedAt:  params.StartedAt,
		FinishedAt: params.FinishedAt,
	}); err != nil {
		return fmt.Errorf("error recording run: %w", err)
	}

	return nil
}

// RetouchFallbacks rewrites up to limit stored articles that kept their
// original text. Returns how many were updated.
func (a activities) RetouchFallbacks(ctx context.Context, limit int) (int, error) {
	l := activity.GetLogger(ctx)

	articles, err := a.repo.FallbackArticles(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("error finding fallback articles: %w", err)
	}
	if len(articles) == 0 {
		return 0, nil
	}

	slugs := map[string]string{}
	sources := make([]rewrite.Article, len(articles))
	for i, art := range articles {
		slug, ok := slugs[art.CategoryID]
		if !ok {
			cat, err := a.repo.Category(ctx, art.CategoryID)
			switch {
			case errors.Is(err, newsdesk.ErrNotFound):
				slug = newsdesk.CategoryNews
			case err != nil:
				return 0, fmt.Errorf("error resolving category: %w", err)
			default:
				slug = cat.Slug
			}
			slugs[art.CategoryID] = slug
		}

		sources[i] = rewrite.Article{
			Title:       art.Title,
			Content:     art.OriginalContent,
			Description: art.Excerpt,
			Category:    slug,
		}
	}

	updated := 0
	for i, res := range a.rewriter.RewriteBatch(ctx, sources) {
		if !res.Rewritten {
			continue
		}

		if err := a.repo.UpdateArticleRewrite(ctx, articles[i].ID, newsdesk.UpdateRewriteArgs{
			Title:   res.Title,
			Content: res.Content,
			Excerpt: res.Excerpt,
		}); err != nil {
			return updated, fmt.Errorf("error updating article: %w", err)
		}
		updated++
	}

	l.Info("retouched fallback articles", "found", len(articles), "updated", updated)
	return updated, nil
}
