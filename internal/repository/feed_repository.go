// Package repository defines the storage contracts consumed by the use cases.
// Implementations live under internal/infra/adapter/persistence.
package repository

import (
	"context"
	"time"

	"feedpress/internal/domain/entity"
)

// FeedMetadata is the bookkeeping slice of a feed updated after a refresh.
type FeedMetadata struct {
	LastFetchedAt         time.Time
	LastSuccessfulFetchAt *time.Time
	LastError             *string
	EntryCountDelta       int64
}

type FeedRepository interface {
	Get(ctx context.Context, id int64) (*entity.Feed, error)
	GetByURL(ctx context.Context, feedURL string) (*entity.Feed, error)
	List(ctx context.Context) ([]*entity.Feed, error)
	ListActive(ctx context.Context) ([]*entity.Feed, error)
	Create(ctx context.Context, feed *entity.Feed) error
	Update(ctx context.Context, feed *entity.Feed) error
	Delete(ctx context.Context, id int64) error

	// UpsertMetadata applies refresh bookkeeping to a feed. LastError nil
	// clears any recorded error; EntryCountDelta is added to the stored count.
	UpsertMetadata(ctx context.Context, id int64, meta FeedMetadata) error

	// RecordError stores the feed's last error without touching the
	// last-successful-fetch timestamp or the stored entries.
	RecordError(ctx context.Context, id int64, message string, at time.Time) error
}
