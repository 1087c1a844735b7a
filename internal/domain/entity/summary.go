package entity

import "time"

// SummaryRecord is an immutable AI summary stored under its content hash.
// The hash covers the normalized entry text plus the model and prompt
// identity, so different prompts or models never collide. A fresh hash
// always produces a fresh record, never an update.
type SummaryRecord struct {
	EntryID     int64
	ContentHash string
	SummaryText string
	Model       string
	Tokens      *int64
	CreatedAt   time.Time
}
