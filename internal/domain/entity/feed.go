// Package entity defines the core domain entities and validation logic for the
// application. It contains the fundamental business objects such as Feed and
// Entry, along with their validation rules and domain-specific errors.
package entity

import "time"

// Feed represents a content source that is refreshed periodically.
// It carries the subscription metadata together with the bookkeeping fields
// updated by the refresh pipeline (last fetch times, last error, entry count).
type Feed struct {
	ID          int64
	Name        string
	FeedURL     string
	SiteURL     string
	Description string

	// Schedule is an optional per-feed cron expression (6 fields, with
	// seconds). Empty means the daemon's default schedule applies.
	Schedule string

	// ExtractContent enables full-article extraction for this feed.
	ExtractContent bool

	// Summarize enables AI summarization for this feed.
	Summarize bool

	Active bool

	LastFetchedAt         *time.Time
	LastSuccessfulFetchAt *time.Time
	LastError             *string
	EntryCount            int64

	CreatedAt time.Time
}

// Validate checks the Feed fields that must hold before persisting.
func (f *Feed) Validate() error {
	if f.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if err := ValidateURL(f.FeedURL); err != nil {
		return err
	}
	if f.SiteURL != "" {
		if err := ValidateURL(f.SiteURL); err != nil {
			return err
		}
	}
	return nil
}
