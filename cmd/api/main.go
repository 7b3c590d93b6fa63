// Api serves stored articles and triggers ingestion runs on the worker.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/sethvargo/go-envconfig"
	"github.com/sethvargo/go-retry"
	"go.temporal.io/sdk/client"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/jdholdren/newsdesk/internal/api"
	"github.com/jdholdren/newsdesk/internal/feed"
	"github.com/jdholdren/newsdesk/internal/logger"
	"github.com/jdholdren/newsdesk/internal/sources"
	"github.com/jdholdren/newsdesk/internal/sqlite"
)

type config struct {
	Database         string `env:"DATABASE, required"`
	TemporalHostPort string `env:"TEMPORAL_HOST_PORT, required"`

	Port         int           `env:"PORT, default=4444"`
	CorsOrigin   string        `env:"CORS_ORIGIN, default=*"`
	SourcesFile  string        `env:"SOURCES_FILE, default=sources.yaml"`
	FeedCacheTTL time.Duration `env:"FEED_CACHE_TTL, default=10m"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=15m"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
}

func main() {
	ctx := context.Background()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	slog.SetDefault(logger.New(os.Stderr, cfg.LoggerFormat, slog.LevelInfo))

	if err := serve(ctx, cfg); err != nil {
		var sigErr run.SignalError
		if errors.As(err, &sigErr) {
			slog.Info("shutting down", "signal", sigErr.Signal)
			return
		}
		slog.Error("error running", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config) error {
	dbx, err := sqlite.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer dbx.Close()

	catalog, err := sources.Load(cfg.SourcesFile)
	if err != nil {
		return err
	}

	// Retry until temporal is ready
	var temporalCli client.Client
	if err := retry.Fibonacci(ctx, 1*time.Second, func(ctx context.Context) error {
		c, err := client.Dial(client.Options{
			HostPort: cfg.TemporalHostPort,
			Logger:   slog.Default(),
		})
		if err != nil {
			slog.Warn("temporal not ready", "error", err)
			return retry.RetryableError(err)
		}
		temporalCli = c

		return nil
	}); err != nil {
		return fmt.Errorf("unable to create temporal client: %s", err)
	}
	defer temporalCli.Close()

	headlines := feed.NewCachedFetcher(feed.NewFetcher(nil), feed.NewCache(cfg.FeedCacheTTL))
	s := api.NewServer(api.ServerConfig{
		Port:          cfg.Port,
		CorsOrigin:    cfg.CorsOrigin,
		WriteTimeout:  cfg.WriteTimeout,
		HeadlineFeeds: catalog.HeadlineFeeds(),
	}, sqlite.New(dbx), api.TemporalTrigger{Client: temporalCli}, headlines)

	var g run.Group
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
	g.Add(func() error {
		slog.Info("listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error listening: %s", err)
		}
		return nil
	}, func(error) {
		downCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(downCtx); err != nil {
			slog.Error("error shutting down server", "error", err)
		}
	})

	return g.Run()
}
