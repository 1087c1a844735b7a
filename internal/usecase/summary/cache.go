// Package summary provides content-addressed caching of AI summaries.
// Identical content summarized with the same model and prompt is computed
// once and reused forever.
package summary

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"feedpress/internal/domain/entity"
	"feedpress/internal/observability/metrics"
	"feedpress/internal/repository"
	"feedpress/internal/usecase/update"
)

// ProviderResult is the output of one provider call.
type ProviderResult struct {
	Text   string
	Tokens *int64
}

// Provider is an AI backend that generates summaries. Model and
// PromptTemplate identify the generation parameters and are part of the
// cache key.
type Provider interface {
	Summarize(ctx context.Context, text string) (*ProviderResult, error)
	Model() string
	PromptTemplate() string
}

// Cache serves summaries from storage when the content hash is known,
// and computes them through the provider otherwise. Concurrent requests
// for the same hash are collapsed into a single provider call.
type Cache struct {
	repo     repository.SummaryRepository
	provider Provider
	group    singleflight.Group
}

// NewCache creates a summary cache backed by repo and provider.
func NewCache(repo repository.SummaryRepository, provider Provider) *Cache {
	return &Cache{repo: repo, provider: provider}
}

// GetOrCompute returns the summary for text, computing it at most once
// per content hash. Stored summaries are immutable: once a hash has a
// summary, every later caller gets that exact text.
func (c *Cache) GetOrCompute(ctx context.Context, entryID int64, text string) (string, error) {
	hash := ContentHash(text, c.provider.Model(), c.provider.PromptTemplate())

	result, err, _ := c.group.Do(hash, func() (interface{}, error) {
		record, err := c.repo.GetByHash(ctx, hash)
		if err != nil {
			return nil, &update.StorageError{Op: "summary lookup", Err: err}
		}
		if record != nil {
			metrics.RecordSummaryCacheLookup(true)
			return record.SummaryText, nil
		}
		metrics.RecordSummaryCacheLookup(false)

		generated, err := c.provider.Summarize(ctx, text)
		if err != nil {
			return nil, &update.AIError{Provider: c.provider.Model(), Err: err}
		}

		record = &entity.SummaryRecord{
			EntryID:     entryID,
			ContentHash: hash,
			SummaryText: generated.Text,
			Model:       c.provider.Model(),
			Tokens:      generated.Tokens,
		}
		// A failed store only costs a recompute next time.
		if err := c.repo.Create(ctx, record); err != nil {
			slog.Warn("failed to store summary, returning uncached result",
				slog.Int64("entry_id", entryID),
				slog.Any("error", err))
		}

		return generated.Text, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Summarize implements update.Summarizer.
func (c *Cache) Summarize(ctx context.Context, entryID int64, text string) (string, error) {
	return c.GetOrCompute(ctx, entryID, text)
}
