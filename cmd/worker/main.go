// Worker runs the ingestion workflows and keeps their schedules in place.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/sethvargo/go-retry"
	"go.temporal.io/sdk/client"
	temporalworker "go.temporal.io/sdk/worker"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/jdholdren/newsdesk/internal/classify"
	"github.com/jdholdren/newsdesk/internal/dedup"
	"github.com/jdholdren/newsdesk/internal/feed"
	"github.com/jdholdren/newsdesk/internal/genai"
	"github.com/jdholdren/newsdesk/internal/ingest"
	"github.com/jdholdren/newsdesk/internal/logger"
	"github.com/jdholdren/newsdesk/internal/rewrite"
	"github.com/jdholdren/newsdesk/internal/sources"
	"github.com/jdholdren/newsdesk/internal/sqlite"
	"github.com/jdholdren/newsdesk/internal/worker"
)

type config struct {
	Database          string `env:"DATABASE, required"`
	TemporalHostPort  string `env:"TEMPORAL_HOST_PORT, required"`
	TemporalNamespace string `env:"TEMPORAL_NAMESPACE, default=default"`

	AnthropicAPIKey        string `env:"ANTHROPIC_API_KEY, required"`
	AnthropicModel         string `env:"ANTHROPIC_MODEL"`
	GenAIRequestsPerMinute int    `env:"GENAI_REQUESTS_PER_MINUTE, default=50"`

	SourcesFile    string        `env:"SOURCES_FILE, default=sources.yaml"`
	AuthorID       string        `env:"AUTHOR_ID, default=staff-usr"`
	PerSourceLimit int           `env:"PER_SOURCE_LIMIT, default=10"`
	IngestEvery    time.Duration `env:"INGEST_EVERY, default=1h"`
	RetouchEvery   time.Duration `env:"RETOUCH_EVERY, default=6h"`
	RetouchLimit   int           `env:"RETOUCH_LIMIT, default=20"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	slog.SetDefault(logger.New(os.Stderr, cfg.LoggerFormat, slog.LevelInfo))

	dbx, err := sqlite.Open(cfg.Database)
	if err != nil {
		log.Fatalf("error opening database: %s", err)
	}
	defer dbx.Close()

	catalog, err := sources.Load(cfg.SourcesFile)
	if err != nil {
		log.Fatalf("error loading sources: %s", err)
	}

	// Retry until temporal is ready
	var temporalCli client.Client
	if err := retry.Fibonacci(ctx, 1*time.Second, func(ctx context.Context) error {
		c, err := client.Dial(client.Options{
			HostPort:  cfg.TemporalHostPort,
			Namespace: cfg.TemporalNamespace,
			Logger:    slog.Default(),
		})
		if err != nil {
			slog.Warn("temporal not ready", "error", err)
			return retry.RetryableError(err)
		}
		temporalCli = c

		return nil
	}); err != nil {
		log.Fatalln("Unable to create Temporal client:", err)
	}
	defer temporalCli.Close()

	if err := worker.EnsureNamespace(ctx, temporalCli.WorkflowService(), cfg.TemporalNamespace, 72*time.Hour); err != nil {
		log.Fatalf("error ensuring namespace: %s", err)
	}

	var (
		repo = sqlite.New(dbx)
		gen  = genai.NewClient(genai.Config{
			APIKey:            cfg.AnthropicAPIKey,
			Model:             cfg.AnthropicModel,
			RequestsPerMinute: cfg.GenAIRequestsPerMinute,
		})
		rewriter = rewrite.New(gen, rewrite.DefaultConfig())
		ingester = ingest.New(
			repo,
			feed.NewFetcher(nil),
			dedup.NewGate(repo, dedup.DefaultConfig()),
			classify.New(gen),
			rewriter,
			ingest.DefaultConfig(),
		)
	)

	w, err := worker.NewWorker(ctx, temporalCli, worker.Deps{
		Repo:     repo,
		Catalog:  catalog,
		Ingester: ingester,
		Rewriter: rewriter,
	}, worker.Config{
		AuthorID:       cfg.AuthorID,
		PerSourceLimit: cfg.PerSourceLimit,
		IngestEvery:    cfg.IngestEvery,
		RetouchEvery:   cfg.RetouchEvery,
		RetouchLimit:   cfg.RetouchLimit,
	})
	if err != nil {
		log.Fatalf("error creating worker: %s", err)
	}

	if err := w.Run(temporalworker.InterruptCh()); err != nil {
		log.Fatalf("error running worker: %s", err)
	}
}
