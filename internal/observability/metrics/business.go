package metrics

import (
	"strconv"
	"time"
)

// RecordJobStarted counts a job spawn. Trigger is "cron" or "manual".
func RecordJobStarted(trigger string) {
	JobsStartedTotal.WithLabelValues(trigger).Inc()
}

// RecordJobCompleted counts a finished job and its duration.
// Outcome is the lowercase JobOutcome result name.
func RecordJobCompleted(outcome string, duration time.Duration) {
	JobsCompletedTotal.WithLabelValues(outcome).Inc()
	JobDuration.Observe(duration.Seconds())
}

// RecordJobSkipped counts a cron firing dropped because the feed's previous
// run was still holding the feed lock.
func RecordJobSkipped() {
	JobsSkippedTotal.Inc()
}

// RecordGateWait records how long a job waited for a concurrency permit.
func RecordGateWait(duration time.Duration) {
	GateWaitDuration.Observe(duration.Seconds())
}

// RecordEntriesFetched counts entries seen in a fetched feed document.
func RecordEntriesFetched(feedID int64, count int) {
	EntriesFetchedTotal.WithLabelValues(strconv.FormatInt(feedID, 10)).Add(float64(count))
}

// RecordEntriesInserted counts new entries persisted for a feed.
func RecordEntriesInserted(feedID int64, count int64) {
	EntriesInsertedTotal.WithLabelValues(strconv.FormatInt(feedID, 10)).Add(float64(count))
}

// RecordStageError counts a stage-local pipeline error.
// Stage is one of fetch, parse, dedupe, extract, persist, summarize.
func RecordStageError(feedID int64, stage string) {
	PipelineStageErrors.WithLabelValues(strconv.FormatInt(feedID, 10), stage).Inc()
}

// RecordExtraction records the duration of a content extraction attempt.
func RecordExtraction(duration time.Duration) {
	ExtractionDuration.Observe(duration.Seconds())
}

// RecordSummaryCacheLookup counts a cache lookup result.
func RecordSummaryCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	SummaryCacheLookups.WithLabelValues(result).Inc()
}

// RecordSummarization records one AI summarization attempt.
func RecordSummarization(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	SummarizationsTotal.WithLabelValues(status).Inc()
	SummarizationDuration.Observe(duration.Seconds())
}

// UpdateFeedsTotal refreshes the feed count gauge.
func UpdateFeedsTotal(count int) {
	FeedsTotal.Set(float64(count))
}

// RecordDBQuery records the duration of a database operation.
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
