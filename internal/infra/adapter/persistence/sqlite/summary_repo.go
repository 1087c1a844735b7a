package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feedpress/internal/domain/entity"
	"feedpress/internal/repository"
)

type SummaryRepo struct{ db DBTX }

func NewSummaryRepo(db DBTX) repository.SummaryRepository {
	return &SummaryRepo{db: db}
}

func (repo *SummaryRepo) GetByHash(ctx context.Context, contentHash string) (*entity.SummaryRecord, error) {
	defer observe("summaries.get_by_hash", time.Now())
	const query = `
SELECT entry_id, content_hash, summary_text, model, tokens, created_at
FROM summaries
WHERE content_hash = ?
LIMIT 1`
	var record entity.SummaryRecord
	err := repo.db.QueryRowContext(ctx, query, contentHash).Scan(
		&record.EntryID, &record.ContentHash, &record.SummaryText,
		&record.Model, &record.Tokens, &record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByHash: QueryRowContext: %w", err)
	}
	return &record, nil
}

func (repo *SummaryRepo) Create(ctx context.Context, record *entity.SummaryRecord) error {
	defer observe("summaries.create", time.Now())
	// Summaries are immutable: a concurrent writer racing on the same hash
	// produced the same text, so losing the race is not an error.
	const query = `
INSERT OR IGNORE INTO summaries (content_hash, entry_id, summary_text, model, tokens)
VALUES (?, ?, ?, ?, ?)`
	_, err := repo.db.ExecContext(ctx, query,
		record.ContentHash, record.EntryID, record.SummaryText, record.Model, record.Tokens,
	)
	if err != nil {
		return fmt.Errorf("Create: ExecContext: %w", err)
	}
	return nil
}
