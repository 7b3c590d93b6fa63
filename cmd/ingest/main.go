// Ingest runs one ingestion pass in process, without the worker, and prints
// the report as JSON.
//
// Source ids given as arguments narrow the run to those sources.
//
//	DATABASE=newsdesk.db ANTHROPIC_API_KEY=... ingest [source-id...]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sethvargo/go-envconfig"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/jdholdren/newsdesk/internal/classify"
	"github.com/jdholdren/newsdesk/internal/dedup"
	"github.com/jdholdren/newsdesk/internal/feed"
	"github.com/jdholdren/newsdesk/internal/genai"
	"github.com/jdholdren/newsdesk/internal/ingest"
	"github.com/jdholdren/newsdesk/internal/logger"
	"github.com/jdholdren/newsdesk/internal/newsdesk"
	"github.com/jdholdren/newsdesk/internal/rewrite"
	"github.com/jdholdren/newsdesk/internal/sources"
	"github.com/jdholdren/newsdesk/internal/sqlite"
)

const leaseName = "ingest"

type config struct {
	Database string `env:"DATABASE, required"`

	AnthropicAPIKey        string `env:"ANTHROPIC_API_KEY, required"`
	AnthropicModel         string `env:"ANTHROPIC_MODEL"`
	GenAIRequestsPerMinute int    `env:"GENAI_REQUESTS_PER_MINUTE, default=50"`

	SourcesFile    string `env:"SOURCES_FILE, default=sources.yaml"`
	AuthorID       string `env:"AUTHOR_ID, default=staff-usr"`
	PerSourceLimit int    `env:"PER_SOURCE_LIMIT, default=10"`

	// How long the run lease is held before another run may take it over.
	LeaseTTL time.Duration `env:"RUN_LEASE_TTL, default=2h"`
	// Wall clock budget for the whole run, zero for none.
	Budget time.Duration `env:"RUN_BUDGET, default=0"`

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

	report, err := ingestOnce(ctx, cfg, os.Args[1:])
	if err != nil {
		slog.Error("error running ingestion", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatalf("error writing report: %s", err)
	}
}

func ingestOnce(ctx context.Context, cfg config, ids []string) (ingest.Report, error) {
	dbx, err := sqlite.Open(cfg.Database)
	if err != nil {
		return ingest.Report{}, err
	}
	defer dbx.Close()

	catalog, err := sources.Load(cfg.SourcesFile)
	if err != nil {
		return ingest.Report{}, err
	}

	srcs := catalog.Weighted(cfg.PerSourceLimit)
	if len(ids) > 0 {
		for _, id := range ids {
			if _, ok := catalog.ByID(id); !ok {
				return ingest.Report{}, fmt.Errorf("unknown source: %s", id)
			}
		}
		srcs = lo.Filter(srcs, func(src newsdesk.Source, _ int) bool { return lo.Contains(ids, src.ID) })
		if len(srcs) == 0 {
			return ingest.Report{}, fmt.Errorf("no active sources among %v", ids)
		}
	}

	repo := sqlite.New(dbx)

	holder := uuid.NewString()
	ok, err := repo.AcquireRunLease(ctx, leaseName, holder, cfg.LeaseTTL)
	if err != nil {
		return ingest.Report{}, err
	}
	if !ok {
		return ingest.Report{}, fmt.Errorf("another ingestion holds the %q lease", leaseName)
	}
	defer func() {
		if err := repo.ReleaseRunLease(context.WithoutCancel(ctx), leaseName, holder); err != nil {
			slog.Error("error releasing lease", "error", err)
		}
	}()

	if cfg.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Budget)
		defer cancel()
	}

	gen := genai.NewClient(genai.Config{
		APIKey:            cfg.AnthropicAPIKey,
		Model:             cfg.AnthropicModel,
		RequestsPerMinute: cfg.GenAIRequestsPerMinute,
	})
	ingester := ingest.New(
		repo,
		feed.NewFetcher(nil),
		dedup.NewGate(repo, dedup.DefaultConfig()),
		classify.New(gen),
		rewrite.New(gen, rewrite.DefaultConfig()),
		ingest.DefaultConfig(),
	)

	startedAt := time.Now()
	report := ingester.ProcessSources(ctx, srcs, cfg.AuthorID, cfg.PerSourceLimit)

	byts, err := json.Marshal(report)
	if err != nil {
		return report, fmt.Errorf("error encoding report: %s", err)
	}
	if err := repo.InsertRun(context.WithoutCancel(ctx), newsdesk.Run{
		Trigger:    "cli",
		Status:     report.Status,
		Stored:     report.Stored,
		Skipped:    report.Skipped,
		Report:     string(byts),
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}); err != nil {
		slog.Error("error recording run", "error", err)
	}

	return report, nil
}
