// Package update implements the feed refresh pipeline: fetch, parse,
// dedupe, optional content extraction, persist, optional summarization.
package update

import "fmt"

// FetchError indicates the feed endpoint could not be retrieved.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// ParseError indicates the response was retrieved but is not a valid feed.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.URL, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// StorageError indicates a database operation failed during the pipeline.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// ExtractionError indicates full-content extraction failed for an entry.
// Extraction is best-effort, so this never fails the job on its own.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string { return fmt.Sprintf("extract %s: %v", e.URL, e.Err) }
func (e *ExtractionError) Unwrap() error { return e.Err }

// AIError indicates an AI provider call failed during summarization.
// Summarization is best-effort, so this never fails the job on its own.
type AIError struct {
	Provider string
	Err      error
}

func (e *AIError) Error() string { return fmt.Sprintf("ai %s: %v", e.Provider, e.Err) }
func (e *AIError) Unwrap() error { return e.Err }
