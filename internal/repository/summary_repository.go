package repository

import (
	"context"

	"feedpress/internal/domain/entity"
)

// SummaryRepository stores immutable AI summaries keyed by content hash.
// GetByHash returning (nil, nil) means a cache miss.
type SummaryRepository interface {
	GetByHash(ctx context.Context, contentHash string) (*entity.SummaryRecord, error)
	Create(ctx context.Context, record *entity.SummaryRecord) error
}
