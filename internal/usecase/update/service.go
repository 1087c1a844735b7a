package update

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"feedpress/internal/domain/entity"
	"feedpress/internal/observability/logging"
	"feedpress/internal/observability/metrics"
	"feedpress/internal/observability/tracing"
	"feedpress/internal/repository"
)

const summarizerParallelism = 5 // AI summarization parallelism (rate-limited)

// FeedFetcher retrieves and parses a feed document.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]FeedItem, error)
}

// FeedItem is a single item parsed from a feed document.
type FeedItem struct {
	Title       string
	URL         string
	Author      string
	Summary     string
	Content     string
	PublishedAt *time.Time
	UpdatedAt   *time.Time
}

// Summarizer produces an AI summary for a stored entry's text.
type Summarizer interface {
	Summarize(ctx context.Context, entryID int64, text string) (string, error)
}

// Config holds pipeline tuning knobs.
type Config struct {
	// ExtractionParallelism caps concurrent full-content fetches per job.
	ExtractionParallelism int

	// ExtractionThreshold is the minimum feed-provided content length.
	// Shorter content triggers a full-article fetch.
	ExtractionThreshold int
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		ExtractionParallelism: 10,
		ExtractionThreshold:   1500,
	}
}

// Service runs the refresh pipeline for feeds.
type Service struct {
	FeedRepo   repository.FeedRepository
	EntryRepo  repository.EntryRepository
	Fetcher    FeedFetcher
	Extractor  ContentFetcher // nil disables extraction
	Summarizer Summarizer     // nil disables summarization
	config     Config
}

// NewService creates a new update Service.
// Extractor and summarizer may be nil to disable those stages globally;
// per-feed flags disable them per feed.
func NewService(
	feedRepo repository.FeedRepository,
	entryRepo repository.EntryRepository,
	fetcher FeedFetcher,
	extractor ContentFetcher,
	summarizer Summarizer,
	config Config,
) *Service {
	if config.ExtractionParallelism <= 0 {
		config.ExtractionParallelism = DefaultConfig().ExtractionParallelism
	}
	return &Service{
		FeedRepo:   feedRepo,
		EntryRepo:  entryRepo,
		Fetcher:    fetcher,
		Extractor:  extractor,
		Summarizer: summarizer,
		config:     config,
	}
}

// UpdateFeed runs the full pipeline for one feed and returns the outcome.
// The outcome is always non-nil; pipeline failures are reported through
// outcome.Result and outcome.Err rather than an error return, so one bad
// feed never disturbs its siblings.
func (s *Service) UpdateFeed(ctx context.Context, feed *entity.Feed, trigger string) *JobOutcome {
	outcome := &JobOutcome{
		JobID:     uuid.NewString(),
		FeedID:    feed.ID,
		Trigger:   trigger,
		StartedAt: time.Now(),
	}

	logger := logging.WithJobID(slog.Default(), outcome.JobID).With(
		slog.Int64("feed_id", feed.ID),
		slog.String("feed_url", feed.FeedURL),
		slog.String("trigger", trigger))

	ctx, span := tracing.GetTracer().Start(ctx, "feed.update")
	span.SetAttributes(
		attribute.Int64("feed.id", feed.ID),
		attribute.String("job.id", outcome.JobID))
	defer span.End()

	metrics.RecordJobStarted(trigger)

	items, err := s.fetchStage(ctx, feed)
	if err != nil {
		return s.fail(ctx, feed, outcome, logger, "fetch", err)
	}
	outcome.ItemCount = len(items)
	metrics.RecordEntriesFetched(feed.ID, len(items))

	newEntries, err := s.dedupeStage(ctx, feed, items)
	if err != nil {
		return s.fail(ctx, feed, outcome, logger, "dedupe", err)
	}

	if feed.ExtractContent && s.Extractor != nil {
		outcome.ExtractionErrors = s.extractStage(ctx, feed, newEntries, logger)
		if ctx.Err() != nil {
			return s.fail(ctx, feed, outcome, logger, "extract", ctx.Err())
		}
	}

	inserted, err := s.EntryRepo.InsertNew(ctx, feed.ID, newEntries)
	if err != nil {
		return s.fail(ctx, feed, outcome, logger, "persist", &StorageError{Op: "insert entries", Err: err})
	}
	outcome.NewEntries = inserted
	metrics.RecordEntriesInserted(feed.ID, inserted)

	if feed.Summarize && s.Summarizer != nil {
		outcome.SummaryErrors = s.summarizeStage(ctx, newEntries, logger)
		if ctx.Err() != nil {
			return s.fail(ctx, feed, outcome, logger, "summarize", ctx.Err())
		}
	}

	now := time.Now()
	meta := repository.FeedMetadata{
		LastFetchedAt:         now,
		LastSuccessfulFetchAt: &now,
		LastError:             nil,
		EntryCountDelta:       inserted,
	}
	// Bookkeeping survives a cancellation that arrives after the work.
	if err := s.FeedRepo.UpsertMetadata(context.WithoutCancel(ctx), feed.ID, meta); err != nil {
		return s.fail(ctx, feed, outcome, logger, "persist", &StorageError{Op: "upsert feed metadata", Err: err})
	}

	outcome.FinishedAt = time.Now()
	outcome.Result = ResultSuccess
	if outcome.ExtractionErrors > 0 || outcome.SummaryErrors > 0 {
		outcome.Result = ResultPartialSuccess
	}
	metrics.RecordJobCompleted(string(outcome.Result), outcome.Duration())

	logger.Info("feed update completed",
		slog.String("result", string(outcome.Result)),
		slog.Int("items", outcome.ItemCount),
		slog.Int64("inserted", outcome.NewEntries),
		slog.Int("extraction_errors", outcome.ExtractionErrors),
		slog.Int("summary_errors", outcome.SummaryErrors),
		slog.Duration("duration", outcome.Duration()))

	return outcome
}

// UpdateAll refreshes every active feed sequentially and returns the
// per-feed outcomes. Individual feed failures are contained in their
// outcome; the error return covers only the feed listing itself.
func (s *Service) UpdateAll(ctx context.Context, trigger string) ([]*JobOutcome, error) {
	feeds, err := s.FeedRepo.ListActive(ctx)
	if err != nil {
		return nil, &StorageError{Op: "list active feeds", Err: err}
	}

	outcomes := make([]*JobOutcome, 0, len(feeds))
	for _, feed := range feeds {
		if ctx.Err() != nil {
			break
		}
		outcomes = append(outcomes, s.UpdateFeed(ctx, feed, trigger))
	}
	return outcomes, nil
}

func (s *Service) fetchStage(ctx context.Context, feed *entity.Feed) ([]FeedItem, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "update.fetch")
	defer span.End()

	items, err := s.Fetcher.Fetch(ctx, feed.FeedURL)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			return nil, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &FetchError{URL: feed.FeedURL, Err: err}
	}
	return items, nil
}

// dedupeStage converts feed items to entries and drops those the feed
// already stores, using a single batched key lookup.
func (s *Service) dedupeStage(ctx context.Context, feed *entity.Feed, items []FeedItem) ([]*entity.Entry, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "update.dedupe")
	defer span.End()

	entries := make([]*entity.Entry, 0, len(items))
	keys := make([]string, 0, len(items))
	for _, item := range items {
		var published time.Time
		if item.PublishedAt != nil {
			published = *item.PublishedAt
		}
		entry := &entity.Entry{
			FeedID:      feed.ID,
			Key:         entity.EntryKey(item.URL, item.Title, published),
			Title:       item.Title,
			URL:         item.URL,
			Author:      item.Author,
			Summary:     item.Summary,
			Content:     item.Content,
			PublishedAt: published,
			UpdatedAt:   item.UpdatedAt,
		}
		entries = append(entries, entry)
		keys = append(keys, entry.Key)
	}

	exists, err := s.EntryRepo.ExistsByKeyBatch(ctx, feed.ID, keys)
	if err != nil {
		return nil, &StorageError{Op: "batch key check", Err: err}
	}

	fresh := make([]*entity.Entry, 0, len(entries))
	for _, entry := range entries {
		if !exists[entry.Key] {
			fresh = append(fresh, entry)
		}
	}
	return fresh, nil
}

// extractStage fetches full article content for entries whose feed-provided
// content is below the threshold. Failures are logged and counted, never
// fatal: the entry keeps the feed-provided content.
func (s *Service) extractStage(ctx context.Context, feed *entity.Feed, entries []*entity.Entry, logger *slog.Logger) int {
	ctx, span := tracing.GetTracer().Start(ctx, "update.extract")
	defer span.End()

	var failures atomic.Int64
	sem := make(chan struct{}, s.config.ExtractionParallelism)
	var wg sync.WaitGroup

	for _, entry := range entries {
		if len(entry.Content) >= s.config.ExtractionThreshold || entry.URL == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(entry *entity.Entry) {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			content, err := s.Extractor.FetchContent(ctx, entry.URL)
			metrics.RecordExtraction(time.Since(start))
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				failures.Add(1)
				metrics.RecordStageError(feed.ID, "extract")
				logger.Warn("content extraction failed, keeping feed content",
					slog.String("url", entry.URL),
					slog.Any("error", &ExtractionError{URL: entry.URL, Err: err}))
				return
			}
			// shorter extractions are usually boilerplate-only pages
			if len(content) > len(entry.Content) {
				entry.Content = content
			}
		}(entry)
	}

	wg.Wait()
	return int(failures.Load())
}

// summarizeStage generates AI summaries for the entries just inserted.
// Entries skipped by the dedupe insert have no ID and are not summarized.
func (s *Service) summarizeStage(ctx context.Context, entries []*entity.Entry, logger *slog.Logger) int {
	ctx, span := tracing.GetTracer().Start(ctx, "update.summarize")
	defer span.End()

	var failures atomic.Int64
	sem := make(chan struct{}, summarizerParallelism)
	eg, egCtx := errgroup.WithContext(ctx)

	for _, entry := range entries {
		if entry.ID == 0 {
			continue
		}
		entry := entry

		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			text := entry.Content
			if text == "" {
				text = entry.Summary
			}
			if text == "" {
				return nil
			}

			start := time.Now()
			summary, err := s.Summarizer.Summarize(egCtx, entry.ID, text)
			metrics.RecordSummarization(err == nil, time.Since(start))
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				failures.Add(1)
				logger.Warn("summarization failed, skipping entry",
					slog.Int64("entry_id", entry.ID),
					slog.String("url", entry.URL),
					slog.Any("error", err))
				return nil
			}

			if err := s.EntryRepo.SetAISummary(egCtx, entry.ID, summary); err != nil {
				failures.Add(1)
				logger.Warn("failed to store summary",
					slog.Int64("entry_id", entry.ID),
					slog.Any("error", err))
			}
			return nil
		})
	}

	_ = eg.Wait()
	return int(failures.Load())
}

// fail finalizes an outcome for a required-stage failure, records the
// feed's last error, and classifies cancellation separately.
func (s *Service) fail(ctx context.Context, feed *entity.Feed, outcome *JobOutcome, logger *slog.Logger, stage string, err error) *JobOutcome {
	outcome.FinishedAt = time.Now()
	outcome.Err = err

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		outcome.Result = ResultCancelled
	} else {
		outcome.Result = ResultFailed
		metrics.RecordStageError(feed.ID, stage)
	}
	metrics.RecordJobCompleted(string(outcome.Result), outcome.Duration())

	safeCtx := context.WithoutCancel(ctx)
	if recErr := s.FeedRepo.RecordError(safeCtx, feed.ID, err.Error(), outcome.FinishedAt); recErr != nil {
		logger.Warn("failed to record feed error",
			slog.Any("error", recErr))
	}

	logger.Warn("feed update failed",
		slog.String("stage", stage),
		slog.String("result", string(outcome.Result)),
		slog.Any("error", err),
		slog.Duration("duration", outcome.Duration()))

	return outcome
}
