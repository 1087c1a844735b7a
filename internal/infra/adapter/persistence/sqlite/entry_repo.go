package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"feedpress/internal/domain/entity"
	"feedpress/internal/repository"
)

const entryColumns = `
    id, feed_id, key, title, url, author, summary, content, ai_summary,
    published_at, updated_at, read, created_at`

type EntryRepo struct{ db DBTX }

func NewEntryRepo(db DBTX) repository.EntryRepository {
	return &EntryRepo{db: db}
}

func scanEntry(row interface{ Scan(...interface{}) error }) (*entity.Entry, error) {
	var entry entity.Entry
	err := row.Scan(
		&entry.ID, &entry.FeedID, &entry.Key, &entry.Title, &entry.URL,
		&entry.Author, &entry.Summary, &entry.Content, &entry.AISummary,
		&entry.PublishedAt, &entry.UpdatedAt, &entry.Read, &entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (repo *EntryRepo) Get(ctx context.Context, id int64) (*entity.Entry, error) {
	defer observe("entries.get", time.Now())
	query := `SELECT` + entryColumns + `
FROM entries
WHERE id = ?
LIMIT 1`
	entry, err := scanEntry(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %d: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return entry, nil
}

func (repo *EntryRepo) ListByFeed(ctx context.Context, feedID int64, limit int) ([]*entity.Entry, error) {
	defer observe("entries.list_by_feed", time.Now())
	query := `SELECT` + entryColumns + `
FROM entries
WHERE feed_id = ?
ORDER BY published_at DESC, id DESC
LIMIT ?`
	return repo.queryEntries(ctx, query, feedID, limit)
}

func (repo *EntryRepo) ListSince(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Entry, error) {
	defer observe("entries.list_since", time.Now())
	query := `SELECT` + entryColumns + `
FROM entries
WHERE published_at >= ?
ORDER BY published_at DESC, id DESC
LIMIT ?`
	return repo.queryEntries(ctx, query, cutoff, limit)
}

func (repo *EntryRepo) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*entity.Entry, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("queryEntries: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*entity.Entry, 0, 50)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("queryEntries: Scan: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (repo *EntryRepo) ExistsByKeyBatch(ctx context.Context, feedID int64, keys []string) (map[string]bool, error) {
	defer observe("entries.exists_by_key_batch", time.Now())
	result := make(map[string]bool, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
	query := fmt.Sprintf(`SELECT key FROM entries WHERE feed_id = ? AND key IN (%s)`, placeholders)

	args := make([]interface{}, 0, len(keys)+1)
	args = append(args, feedID)
	for _, key := range keys {
		args = append(args, key)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ExistsByKeyBatch: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("ExistsByKeyBatch: Scan: %w", err)
		}
		result[key] = true
	}
	return result, rows.Err()
}

func (repo *EntryRepo) InsertNew(ctx context.Context, feedID int64, entries []*entity.Entry) (int64, error) {
	defer observe("entries.insert_new", time.Now())
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("InsertNew: BeginTx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// OR IGNORE makes a concurrent insert of the same key a no-op instead
	// of a constraint error.
	const query = `
INSERT OR IGNORE INTO entries
    (feed_id, key, title, url, author, summary, content, ai_summary,
     published_at, updated_at, read)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("InsertNew: PrepareContext: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	var inserted int64
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return 0, err
		}
		result, err := stmt.ExecContext(ctx,
			feedID, entry.Key, entry.Title, entry.URL, entry.Author,
			entry.Summary, entry.Content, entry.AISummary,
			entry.PublishedAt, entry.UpdatedAt, entry.Read,
		)
		if err != nil {
			return 0, fmt.Errorf("InsertNew: ExecContext: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("InsertNew: RowsAffected: %w", err)
		}
		if affected > 0 {
			id, err := result.LastInsertId()
			if err != nil {
				return 0, fmt.Errorf("InsertNew: LastInsertId: %w", err)
			}
			entry.ID = id
			entry.FeedID = feedID
		}
		inserted += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("InsertNew: Commit: %w", err)
	}
	return inserted, nil
}

func (repo *EntryRepo) SetAISummary(ctx context.Context, entryID int64, summary string) error {
	defer observe("entries.set_ai_summary", time.Now())
	result, err := repo.db.ExecContext(ctx,
		`UPDATE entries SET ai_summary = ? WHERE id = ?`, summary, entryID)
	if err != nil {
		return fmt.Errorf("SetAISummary: ExecContext: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetAISummary: RowsAffected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entry %d: %w", entryID, entity.ErrNotFound)
	}
	return nil
}

func (repo *EntryRepo) MarkRead(ctx context.Context, entryID int64) error {
	defer observe("entries.mark_read", time.Now())
	result, err := repo.db.ExecContext(ctx,
		`UPDATE entries SET read = 1 WHERE id = ?`, entryID)
	if err != nil {
		return fmt.Errorf("MarkRead: ExecContext: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("MarkRead: RowsAffected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entry %d: %w", entryID, entity.ErrNotFound)
	}
	return nil
}
