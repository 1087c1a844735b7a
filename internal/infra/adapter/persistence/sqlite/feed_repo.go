package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feedpress/internal/domain/entity"
	"feedpress/internal/observability/metrics"
	"feedpress/internal/repository"
)

const feedColumns = `
    id, name, feed_url, site_url, description, schedule,
    extract_content, summarize, active,
    last_fetched_at, last_successful_fetch_at, last_error,
    entry_count, created_at`

type FeedRepo struct{ db DBTX }

func NewFeedRepo(db DBTX) repository.FeedRepository {
	return &FeedRepo{db: db}
}

func scanFeed(row interface{ Scan(...interface{}) error }) (*entity.Feed, error) {
	var feed entity.Feed
	err := row.Scan(
		&feed.ID, &feed.Name, &feed.FeedURL, &feed.SiteURL, &feed.Description, &feed.Schedule,
		&feed.ExtractContent, &feed.Summarize, &feed.Active,
		&feed.LastFetchedAt, &feed.LastSuccessfulFetchAt, &feed.LastError,
		&feed.EntryCount, &feed.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

func (repo *FeedRepo) Get(ctx context.Context, id int64) (*entity.Feed, error) {
	defer observe("feeds.get", time.Now())
	query := `SELECT` + feedColumns + `
FROM feeds
WHERE id = ?
LIMIT 1`
	feed, err := scanFeed(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("feed %d: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return feed, nil
}

func (repo *FeedRepo) GetByURL(ctx context.Context, feedURL string) (*entity.Feed, error) {
	defer observe("feeds.get_by_url", time.Now())
	query := `SELECT` + feedColumns + `
FROM feeds
WHERE feed_url = ?
LIMIT 1`
	feed, err := scanFeed(repo.db.QueryRowContext(ctx, query, feedURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("feed %q: %w", feedURL, entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetByURL: %w", err)
	}
	return feed, nil
}

func (repo *FeedRepo) List(ctx context.Context) ([]*entity.Feed, error) {
	defer observe("feeds.list", time.Now())
	query := `SELECT` + feedColumns + `
FROM feeds
ORDER BY id ASC`
	return repo.queryFeeds(ctx, query)
}

func (repo *FeedRepo) ListActive(ctx context.Context) ([]*entity.Feed, error) {
	defer observe("feeds.list_active", time.Now())
	query := `SELECT` + feedColumns + `
FROM feeds
WHERE active = 1
ORDER BY id ASC`
	return repo.queryFeeds(ctx, query)
}

func (repo *FeedRepo) queryFeeds(ctx context.Context, query string, args ...interface{}) ([]*entity.Feed, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("queryFeeds: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]*entity.Feed, 0, 50)
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("queryFeeds: Scan: %w", err)
		}
		feeds = append(feeds, feed)
	}
	return feeds, rows.Err()
}

func (repo *FeedRepo) Create(ctx context.Context, feed *entity.Feed) error {
	defer observe("feeds.create", time.Now())
	if err := feed.Validate(); err != nil {
		return err
	}
	const query = `
INSERT INTO feeds (name, feed_url, site_url, description, schedule,
                   extract_content, summarize, active)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := repo.db.ExecContext(ctx, query,
		feed.Name, feed.FeedURL, feed.SiteURL, feed.Description, feed.Schedule,
		feed.ExtractContent, feed.Summarize, feed.Active,
	)
	if err != nil {
		return fmt.Errorf("Create: ExecContext: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("Create: LastInsertId: %w", err)
	}
	feed.ID = id
	return nil
}

func (repo *FeedRepo) Update(ctx context.Context, feed *entity.Feed) error {
	defer observe("feeds.update", time.Now())
	if err := feed.Validate(); err != nil {
		return err
	}
	const query = `
UPDATE feeds
SET name = ?, feed_url = ?, site_url = ?, description = ?, schedule = ?,
    extract_content = ?, summarize = ?, active = ?
WHERE id = ?`
	result, err := repo.db.ExecContext(ctx, query,
		feed.Name, feed.FeedURL, feed.SiteURL, feed.Description, feed.Schedule,
		feed.ExtractContent, feed.Summarize, feed.Active, feed.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: ExecContext: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: RowsAffected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("feed %d: %w", feed.ID, entity.ErrNotFound)
	}
	return nil
}

func (repo *FeedRepo) Delete(ctx context.Context, id int64) error {
	defer observe("feeds.delete", time.Now())
	result, err := repo.db.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("Delete: ExecContext: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: RowsAffected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("feed %d: %w", id, entity.ErrNotFound)
	}
	return nil
}

func (repo *FeedRepo) UpsertMetadata(ctx context.Context, id int64, meta repository.FeedMetadata) error {
	defer observe("feeds.upsert_metadata", time.Now())
	const query = `
UPDATE feeds
SET last_fetched_at = ?,
    last_successful_fetch_at = COALESCE(?, last_successful_fetch_at),
    last_error = ?,
    entry_count = entry_count + ?
WHERE id = ?`
	result, err := repo.db.ExecContext(ctx, query,
		meta.LastFetchedAt, meta.LastSuccessfulFetchAt, meta.LastError, meta.EntryCountDelta, id,
	)
	if err != nil {
		return fmt.Errorf("UpsertMetadata: ExecContext: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpsertMetadata: RowsAffected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("feed %d: %w", id, entity.ErrNotFound)
	}
	return nil
}

func (repo *FeedRepo) RecordError(ctx context.Context, id int64, message string, at time.Time) error {
	defer observe("feeds.record_error", time.Now())
	const query = `
UPDATE feeds
SET last_fetched_at = ?, last_error = ?
WHERE id = ?`
	result, err := repo.db.ExecContext(ctx, query, at, message, id)
	if err != nil {
		return fmt.Errorf("RecordError: ExecContext: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("RecordError: RowsAffected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("feed %d: %w", id, entity.ErrNotFound)
	}
	return nil
}

func observe(operation string, start time.Time) {
	metrics.RecordDBQuery(operation, time.Since(start))
}
