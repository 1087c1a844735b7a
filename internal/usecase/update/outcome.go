package update

import "time"

// Result classifies how a refresh job ended.
type Result string

const (
	// ResultSuccess means every stage completed.
	ResultSuccess Result = "success"

	// ResultPartialSuccess means entries were stored but one or more
	// best-effort stages (extraction, summarization) had failures.
	ResultPartialSuccess Result = "partial_success"

	// ResultFailed means a required stage (fetch, parse, persist) failed.
	ResultFailed Result = "failed"

	// ResultCancelled means the job was cancelled before or while running.
	ResultCancelled Result = "cancelled"

	// ResultAbandoned means shutdown expired the grace period while the
	// job was still running.
	ResultAbandoned Result = "abandoned"
)

// JobOutcome is the record of a single feed refresh.
type JobOutcome struct {
	JobID      string
	FeedID     int64
	Trigger    string
	StartedAt  time.Time
	FinishedAt time.Time
	Result     Result

	// ItemCount is the number of items the feed document contained.
	ItemCount int
	// NewEntries is the number of entries actually inserted.
	NewEntries int64
	// ExtractionErrors and SummaryErrors count best-effort stage failures.
	ExtractionErrors int
	SummaryErrors    int

	// Err holds the failure for ResultFailed and ResultCancelled outcomes.
	Err error
}

// Duration returns how long the job ran.
func (o *JobOutcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}
