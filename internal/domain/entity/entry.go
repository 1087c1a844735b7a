package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Entry represents a single item fetched from a feed.
// Content holds the best text available for the entry: the extracted article
// body when extraction succeeded, otherwise the feed-provided description.
type Entry struct {
	ID        int64
	FeedID    int64
	Key       string
	Title     string
	URL       string
	Author    string
	Summary   string
	Content   string
	AISummary string

	PublishedAt time.Time
	UpdatedAt   *time.Time
	Read        bool
	CreatedAt   time.Time
}

// EntryKey derives the stable identifier used to deduplicate entries.
// It is a digest of URL, title and published timestamp, so re-fetching
// unchanged upstream content always yields the same key.
func EntryKey(url, title string, published time.Time) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte{0})
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(published.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(h.Sum(nil))
}

// Validate checks the Entry fields that must hold before persisting.
func (e *Entry) Validate() error {
	if e.FeedID == 0 {
		return &ValidationError{Field: "feed_id", Message: "feed id is required"}
	}
	if e.Key == "" {
		return &ValidationError{Field: "key", Message: "entry key is required"}
	}
	if e.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	return ValidateURL(e.URL)
}
