// Package api is the HTTP surface: it triggers ingestion runs and serves
// what they stored.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.temporal.io/sdk/client"

	"github.com/jdholdren/newsdesk/internal/ingest"
	"github.com/jdholdren/newsdesk/internal/newsdesk"
	"github.com/jdholdren/newsdesk/internal/serverutil"
	"github.com/jdholdren/newsdesk/internal/worker"
)

type (
	// Trigger starts ingestion runs and waits on them.
	Trigger interface {
		Start(ctx context.Context, params worker.IngestParams) (string, error)
		Await(ctx context.Context, runID string) (ingest.Report, error)
	}

	// Headlines fetches several feeds at once, keyed by category.
	Headlines interface {
		FetchAll(ctx context.Context, urls map[string]string) map[string]newsdesk.Feed
	}
)

type (
	Server struct {
		*http.Server

		repo          newsdesk.Repository
		trigger       Trigger
		headlines     Headlines
		headlineFeeds map[string]string
	}

	ServerConfig struct {
		Port       int
		CorsOrigin string
		// Request handling budget. Waiting on a run needs a generous one.
		WriteTimeout time.Duration
		// Feed url per category for the live headlines endpoint.
		HeadlineFeeds map[string]string
	}
)

func NewServer(config ServerConfig, repo newsdesk.Repository, trigger Trigger, headlines Headlines) *Server {
	r := serverutil.ErrRouter{Router: mux.NewRouter()}

	writeTimeout := config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	srvr := Server{
		repo:          repo,
		trigger:       trigger,
		headlines:     headlines,
		headlineFeeds: config.HeadlineFeeds,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: writeTimeout,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{config.CorsOrigin}),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type"}),
			)(r),
		},
	}

	r.Use(serverutil.AccessLogMiddleware) // Log everything

	// Runs
	r.HandleFuncE("/api/ingest", srvr.postIngest).Methods(http.MethodPost)
	r.HandleFuncE("/api/runs/latest", srvr.getLatestRun).Methods(http.MethodGet)

	// Stored articles
	r.HandleFuncE("/api/articles", srvr.getArticles).Methods(http.MethodGet)
	r.HandleFuncE("/api/articles/{slug}", srvr.getArticle).Methods(http.MethodGet)

	// Live feeds, straight from the sources
	r.HandleFuncE("/api/headlines", srvr.getHeadlines).Methods(http.MethodGet)

	slog.Debug("configured api server", "port", config.Port)

	return &srvr
}

// TemporalTrigger runs ingestion through the worker's workflow.
type TemporalTrigger struct {
	Client client.Client
}

func (t TemporalTrigger) Start(ctx context.Context, params worker.IngestParams) (string, error) {
	return worker.StartIngest(ctx, t.Client, params)
}

func (t TemporalTrigger) Await(ctx context.Context, runID string) (ingest.Report, error) {
	return worker.AwaitIngest(ctx, t.Client, runID)
}
