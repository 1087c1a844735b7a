package repository

import (
	"context"
	"time"

	"feedpress/internal/domain/entity"
)

type EntryRepository interface {
	Get(ctx context.Context, id int64) (*entity.Entry, error)
	ListByFeed(ctx context.Context, feedID int64, limit int) ([]*entity.Entry, error)

	// ListSince returns entries published after the cutoff, newest first,
	// across all feeds. Used by digest generation.
	ListSince(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Entry, error)

	// ExistsByKeyBatch reports, for each entry key, whether the feed already
	// stores an entry with that key. One query, not N.
	ExistsByKeyBatch(ctx context.Context, feedID int64, keys []string) (map[string]bool, error)

	// InsertNew inserts the given entries and returns the number actually
	// inserted. Entries whose key already exists for the feed are skipped.
	InsertNew(ctx context.Context, feedID int64, entries []*entity.Entry) (int64, error)

	// SetAISummary attaches a generated summary to a stored entry.
	SetAISummary(ctx context.Context, entryID int64, summary string) error

	MarkRead(ctx context.Context, entryID int64) error
}
