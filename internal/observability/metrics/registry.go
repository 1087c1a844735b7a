// Package metrics provides centralized Prometheus metrics for the daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job metrics track update-job scheduling and outcomes.
var (
	// JobsStartedTotal counts update jobs started, by trigger (cron|manual)
	JobsStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedpress_jobs_started_total",
			Help: "Update jobs started, by trigger",
		},
		[]string{"trigger"},
	)

	// JobsCompletedTotal counts finished jobs by outcome
	// (success|partial|failed|cancelled|abandoned)
	JobsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedpress_jobs_completed_total",
			Help: "Update jobs completed, by outcome",
		},
		[]string{"outcome"},
	)

	// JobDuration measures wall time of one feed update job
	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedpress_job_duration_seconds",
			Help:    "Duration of one feed update job",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	// JobsSkippedTotal counts firings skipped because the feed's previous
	// run was still in flight
	JobsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedpress_jobs_skipped_total",
			Help: "Cron firings skipped because the previous run was still in flight",
		},
	)

	// GatePermitsInUse tracks the number of held concurrency permits
	GatePermitsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedpress_gate_permits_in_use",
			Help: "Concurrency gate permits currently held",
		},
	)

	// GateWaitDuration measures time spent waiting for a permit
	GateWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedpress_gate_wait_seconds",
			Help:    "Time jobs spend waiting for a concurrency permit",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)
)

// Pipeline metrics track per-stage behavior of the update pipeline.
var (
	// EntriesFetchedTotal counts entries seen in fetched feeds, per feed
	EntriesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedpress_entries_fetched_total",
			Help: "Entries seen in fetched feed documents",
		},
		[]string{"feed_id"},
	)

	// EntriesInsertedTotal counts new entries persisted, per feed
	EntriesInsertedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedpress_entries_inserted_total",
			Help: "New entries persisted after deduplication",
		},
		[]string{"feed_id"},
	)

	// PipelineStageErrors counts stage-local errors by feed and stage
	PipelineStageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedpress_pipeline_stage_errors_total",
			Help: "Stage-local pipeline errors",
		},
		[]string{"feed_id", "stage"},
	)

	// ExtractionDuration measures full-content extraction time
	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedpress_extraction_duration_seconds",
			Help:    "Duration of article content extraction",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Summary metrics track cache behavior and AI calls.
var (
	// SummaryCacheLookups counts cache lookups by result (hit|miss)
	SummaryCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedpress_summary_cache_lookups_total",
			Help: "Summary cache lookups by result",
		},
		[]string{"result"},
	)

	// SummarizationDuration measures AI summarization latency
	SummarizationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedpress_summarization_duration_seconds",
			Help:    "Duration of AI summarization calls",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// SummarizationsTotal counts AI summarizations by status (success|failure)
	SummarizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedpress_summarizations_total",
			Help: "AI summarization attempts by status",
		},
		[]string{"status"},
	)
)

// Storage metrics.
var (
	// FeedsTotal tracks the number of feeds in the database
	FeedsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedpress_feeds_total",
			Help: "Feeds currently in the database",
		},
	)

	// DBQueryDuration measures database query duration by operation
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedpress_db_query_duration_seconds",
			Help:    "Database query duration by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
