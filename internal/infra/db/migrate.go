package db

import (
	"database/sql"
)

// MigrateUp creates the schema if it does not exist.
// Statements are idempotent so the daemon can run this on every start.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS feeds (
    id                       INTEGER PRIMARY KEY AUTOINCREMENT,
    name                     TEXT NOT NULL,
    feed_url                 TEXT NOT NULL UNIQUE,
    site_url                 TEXT NOT NULL DEFAULT '',
    description              TEXT NOT NULL DEFAULT '',
    schedule                 TEXT NOT NULL DEFAULT '',
    extract_content          INTEGER NOT NULL DEFAULT 0,
    summarize                INTEGER NOT NULL DEFAULT 0,
    active                   INTEGER NOT NULL DEFAULT 1,
    last_fetched_at          TIMESTAMP,
    last_successful_fetch_at TIMESTAMP,
    last_error               TEXT,
    entry_count              INTEGER NOT NULL DEFAULT 0,
    created_at               TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS entries (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    feed_id      INTEGER NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
    key          TEXT NOT NULL,
    title        TEXT NOT NULL,
    url          TEXT NOT NULL DEFAULT '',
    author       TEXT NOT NULL DEFAULT '',
    summary      TEXT NOT NULL DEFAULT '',
    content      TEXT NOT NULL DEFAULT '',
    ai_summary   TEXT NOT NULL DEFAULT '',
    published_at TIMESTAMP,
    updated_at   TIMESTAMP,
    read         INTEGER NOT NULL DEFAULT 0,
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (feed_id, key)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS summaries (
    content_hash TEXT PRIMARY KEY,
    entry_id     INTEGER NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
    summary_text TEXT NOT NULL,
    model        TEXT NOT NULL,
    tokens       INTEGER,
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`); err != nil {
		return err
	}

	indexes := []string{
		// digest generation scans newest entries across feeds
		`CREATE INDEX IF NOT EXISTS idx_entries_published_at ON entries(published_at DESC)`,
		// per-feed listing and dedupe lookups
		`CREATE INDEX IF NOT EXISTS idx_entries_feed_id ON entries(feed_id)`,
		// active feed filtering on startup and reconcile
		`CREATE INDEX IF NOT EXISTS idx_feeds_active ON feeds(active)`,
		// summary lookups by entry when regenerating
		`CREATE INDEX IF NOT EXISTS idx_summaries_entry_id ON summaries(entry_id)`,
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}
