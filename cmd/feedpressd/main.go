// Command feedpressd is the feed update daemon. It reconciles feeds.yaml
// into the SQLite database, schedules per-feed refresh jobs, and serves
// Prometheus metrics plus health endpoints.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	feedsconfig "feedpress/internal/config"
	"feedpress/internal/repository"
	"feedpress/internal/infra/db"
	"feedpress/internal/infra/fetcher"
	"feedpress/internal/infra/scraper"
	"feedpress/internal/infra/summarizer"
	"feedpress/internal/infra/worker"
	"feedpress/internal/observability/logging"
	"feedpress/internal/observability/metrics"
	"feedpress/internal/observability/tracing"
	pkgconfig "feedpress/internal/pkg/config"
	"feedpress/internal/resilience/circuitbreaker"
	"feedpress/internal/scheduler"
	"feedpress/internal/usecase/summary"
	"feedpress/internal/usecase/update"

	sqliteRepo "feedpress/internal/infra/adapter/persistence/sqlite"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg := loadConfig(logger)
	logger.Info("daemon configuration loaded",
		slog.String("default_schedule", cfg.DefaultSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Int("max_concurrent_fetches", cfg.MaxConcurrentFetches),
		slog.Duration("job_timeout", cfg.JobTimeout),
		slog.Duration("grace_period", cfg.GracePeriod),
		slog.String("database", cfg.DatabasePath))

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx)
	if err != nil {
		logger.Warn("tracing setup failed, continuing without export", slog.Any("error", err))
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Warn("tracing shutdown failed", slog.Any("error", err))
			}
		}()
	}

	// All repository access goes through the database circuit breaker.
	store := circuitbreaker.NewStore(database)
	feedRepo := sqliteRepo.NewFeedRepo(store)
	entryRepo := sqliteRepo.NewEntryRepo(store)
	summaryRepo := sqliteRepo.NewSummaryRepo(store)

	feedsFile, err := feedsconfig.LoadFeedsFile(cfg.FeedsFile)
	if err != nil {
		logger.Error("failed to load feeds file", slog.Any("error", err))
		os.Exit(1)
	}
	feeds, err := feedsconfig.Reconcile(ctx, feedRepo, feedsFile, logger)
	if err != nil {
		logger.Error("failed to reconcile feeds", slog.Any("error", err))
		os.Exit(1)
	}
	metrics.UpdateFeedsTotal(len(feeds))

	pipeline := buildPipeline(logger, feedRepo, entryRepo, summaryRepo)

	gate, err := scheduler.NewGate(int64(cfg.MaxConcurrentFetches))
	if err != nil {
		logger.Error("failed to create concurrency gate", slog.Any("error", err))
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone))
		loc = time.UTC
	}

	sched := scheduler.New(pipeline, gate, logger, scheduler.Options{
		DefaultSchedule: cfg.DefaultSchedule,
		JobTimeout:      cfg.JobTimeout,
		Location:        loc,
	})
	registered := 0
	for _, feed := range feeds {
		if !feed.Active {
			continue
		}
		if err := sched.Register(feed); err != nil {
			logger.Error("skipping feed with unusable schedule",
				slog.String("feed_name", feed.Name),
				slog.Any("error", err))
			continue
		}
		registered++
	}
	sched.Start()
	logger.Info("feeds registered", slog.Int("count", registered))

	startMetricsServer(ctx, logger, cfg.MetricsPort)

	healthServer := worker.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), sched, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	healthServer.SetReady(true)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	healthServer.SetReady(false)
	sched.Shutdown(cfg.GracePeriod)
	cancel()
	logger.Info("daemon stopped")
}

func loadConfig(logger *slog.Logger) *worker.DaemonConfig {
	configMetrics := pkgconfig.NewConfigMetrics("daemon")
	if err := configMetrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Warn("failed to register config metrics", slog.Any("error", err))
	}
	return worker.LoadConfigFromEnv(logger, configMetrics)
}

// buildPipeline wires the update service: RSS fetcher, optional content
// extractor, optional cached summarizer.
func buildPipeline(
	logger *slog.Logger,
	feedRepo repository.FeedRepository,
	entryRepo repository.EntryRepository,
	summaryRepo repository.SummaryRepository,
) *update.Service {
	feedFetcher := scraper.NewRSSFetcher(newFeedHTTPClient())

	contentConfig, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Warn("invalid content fetch configuration, extraction disabled", slog.Any("error", err))
		contentConfig = fetcher.DefaultConfig()
		contentConfig.Enabled = false
	}
	var extractor update.ContentFetcher
	if contentConfig.Enabled {
		extractor = fetcher.NewReadabilityFetcher(contentConfig)
		logger.Info("content extraction enabled",
			slog.Int("threshold", contentConfig.Threshold),
			slog.Int("parallelism", contentConfig.Parallelism))
	} else {
		logger.Info("content extraction disabled")
	}

	var summarizerSvc update.Summarizer
	if provider := createProvider(logger); provider != nil {
		summarizerSvc = summary.NewCache(summaryRepo, provider)
		logger.Info("summarization enabled", slog.String("model", provider.Model()))
	} else {
		logger.Info("summarization disabled")
	}

	return update.NewService(feedRepo, entryRepo, feedFetcher, extractor, summarizerSvc, update.Config{
		ExtractionParallelism: contentConfig.Parallelism,
		ExtractionThreshold:   contentConfig.Threshold,
	})
}

// createProvider picks the AI provider from SUMMARIZER_TYPE, or from
// whichever API key is present when unset. Returns nil when
// summarization is not configured.
func createProvider(logger *slog.Logger) summary.Provider {
	switch os.Getenv("SUMMARIZER_TYPE") {
	case "none":
		return nil
	case "claude":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			logger.Error("ANTHROPIC_API_KEY is required when SUMMARIZER_TYPE=claude")
			os.Exit(1)
		}
		return summarizer.NewClaude(apiKey)
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			logger.Error("OPENAI_API_KEY is required when SUMMARIZER_TYPE=openai")
			os.Exit(1)
		}
		cfg, err := summarizer.LoadOpenAIConfig()
		if err != nil {
			logger.Error("invalid OpenAI configuration", slog.Any("error", err))
			os.Exit(1)
		}
		return summarizer.NewOpenAI(apiKey, cfg)
	case "":
		if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
			return summarizer.NewClaude(apiKey)
		}
		if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
			cfg, err := summarizer.LoadOpenAIConfig()
			if err != nil {
				logger.Error("invalid OpenAI configuration", slog.Any("error", err))
				os.Exit(1)
			}
			return summarizer.NewOpenAI(apiKey, cfg)
		}
		return nil
	default:
		logger.Error("invalid SUMMARIZER_TYPE",
			slog.String("type", os.Getenv("SUMMARIZER_TYPE")),
			slog.String("expected", "claude, openai or none"))
		os.Exit(1)
		return nil
	}
}

// newFeedHTTPClient returns the client used for feed document fetches.
// TLS 1.2+ is enforced.
func newFeedHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}
