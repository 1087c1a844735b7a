// Command updatenow refreshes every active feed once and exits. It
// shares the daemon's pipeline wiring but runs no scheduler, so it is
// safe for cron-free environments and manual catch-up runs.
//
// With -digest-days it also prints a digest of recent entries after
// the refresh.
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	feedsconfig "feedpress/internal/config"
	"feedpress/internal/infra/db"
	"feedpress/internal/infra/fetcher"
	"feedpress/internal/infra/scraper"
	"feedpress/internal/infra/summarizer"
	"feedpress/internal/observability/logging"
	"feedpress/internal/resilience/circuitbreaker"
	"feedpress/internal/usecase/digest"
	"feedpress/internal/usecase/summary"
	"feedpress/internal/usecase/update"

	sqliteRepo "feedpress/internal/infra/adapter/persistence/sqlite"
)

func main() {
	var (
		databasePath = flag.String("db", envOr("DATABASE_PATH", "feedpress.db"), "path to the SQLite database")
		feedsFile    = flag.String("feeds", envOr("FEEDS_FILE", "feeds.yaml"), "path to the feed subscription file")
		digestDays   = flag.Int("digest-days", 0, "print a digest covering the last N days (0 disables)")
		digestFormat = flag.String("format", "markdown", "digest format: markdown or text")
		timeout      = flag.Duration("timeout", 15*time.Minute, "overall run timeout")
	)
	flag.Parse()

	logger := logging.NewTextLogger()
	slog.SetDefault(logger)

	if err := run(logger, *databasePath, *feedsFile, *digestDays, *digestFormat, *timeout); err != nil {
		logger.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, databasePath, feedsPath string, digestDays int, digestFormat string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(databasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()
	if err := db.MigrateUp(database); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	store := circuitbreaker.NewStore(database)
	feedRepo := sqliteRepo.NewFeedRepo(store)
	entryRepo := sqliteRepo.NewEntryRepo(store)
	summaryRepo := sqliteRepo.NewSummaryRepo(store)

	file, err := feedsconfig.LoadFeedsFile(feedsPath)
	if err != nil {
		return fmt.Errorf("load feeds file: %w", err)
	}
	if _, err := feedsconfig.Reconcile(ctx, feedRepo, file, logger); err != nil {
		return fmt.Errorf("reconcile feeds: %w", err)
	}

	feedFetcher := scraper.NewRSSFetcher(&http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		},
	})

	contentConfig, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Warn("invalid content fetch configuration, extraction disabled", slog.Any("error", err))
		contentConfig = fetcher.DefaultConfig()
		contentConfig.Enabled = false
	}
	var extractor update.ContentFetcher
	if contentConfig.Enabled {
		extractor = fetcher.NewReadabilityFetcher(contentConfig)
	}

	var summarizerSvc update.Summarizer
	if provider := pickProvider(); provider != nil {
		summarizerSvc = summary.NewCache(summaryRepo, provider)
	}

	service := update.NewService(feedRepo, entryRepo, feedFetcher, extractor, summarizerSvc, update.Config{
		ExtractionParallelism: contentConfig.Parallelism,
		ExtractionThreshold:   contentConfig.Threshold,
	})

	outcomes, err := service.UpdateAll(ctx, "manual")
	if err != nil {
		return fmt.Errorf("update feeds: %w", err)
	}

	var failed int
	for _, outcome := range outcomes {
		logger.Info("feed updated",
			slog.Int64("feed_id", outcome.FeedID),
			slog.String("result", string(outcome.Result)),
			slog.Int64("new_entries", outcome.NewEntries))
		if outcome.Result == update.ResultFailed {
			failed++
		}
	}
	logger.Info("update finished",
		slog.Int("feeds", len(outcomes)),
		slog.Int("failed", failed))

	if digestDays > 0 {
		format, err := digest.ParseFormat(digestFormat)
		if err != nil {
			return err
		}
		text, err := digest.NewService(feedRepo, entryRepo).Generate(ctx, digestDays, format)
		if err != nil {
			return fmt.Errorf("generate digest: %w", err)
		}
		fmt.Println(text)
	}

	if len(outcomes) > 0 && failed == len(outcomes) {
		return fmt.Errorf("all %d feeds failed", failed)
	}
	return nil
}

// pickProvider mirrors the daemon's auto-detection but never exits the
// process: a misconfigured provider just disables summarization here.
func pickProvider() summary.Provider {
	switch os.Getenv("SUMMARIZER_TYPE") {
	case "none":
		return nil
	case "claude":
		if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
			return summarizer.NewClaude(apiKey)
		}
	case "openai", "":
		if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" && os.Getenv("SUMMARIZER_TYPE") == "" {
			return summarizer.NewClaude(apiKey)
		}
		if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
			cfg, err := summarizer.LoadOpenAIConfig()
			if err != nil {
				slog.Warn("invalid OpenAI configuration, summarization disabled", slog.Any("error", err))
				return nil
			}
			return summarizer.NewOpenAI(apiKey, cfg)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
