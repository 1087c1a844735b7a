package summarizer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SummaryMetricsRecorder abstracts metrics recording so providers can be
// tested with a mock recorder and share one implementation.
type SummaryMetricsRecorder interface {
	// RecordLength records the generated summary length in characters.
	RecordLength(length int)

	// RecordLimitExceeded counts summaries over the character limit.
	RecordLimitExceeded()

	// RecordCompliance records whether a summary respected the limit.
	RecordCompliance(withinLimit bool)

	// RecordDuration records the provider call duration.
	RecordDuration(duration time.Duration)
}

// PrometheusSummaryMetrics is the production SummaryMetricsRecorder.
type PrometheusSummaryMetrics struct {
	lengthHistogram   prometheus.Histogram
	exceededCounter   prometheus.Counter
	complianceGauge   prometheus.Gauge
	durationHistogram prometheus.Histogram
}

var (
	prometheusMetricsInstance *PrometheusSummaryMetrics
	prometheusMetricsOnce     sync.Once
)

func getOrCreateHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Histogram)
		}
		return promauto.NewHistogram(opts)
	}
	return h
}

func getOrCreateCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter)
		}
		return promauto.NewCounter(opts)
	}
	return c
}

func getOrCreateGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	g := prometheus.NewGauge(opts)
	if err := prometheus.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Gauge)
		}
		return promauto.NewGauge(opts)
	}
	return g
}

// NewPrometheusSummaryMetrics creates (once) the Prometheus recorder.
// The singleton avoids duplicate registration across providers and tests.
func NewPrometheusSummaryMetrics() *PrometheusSummaryMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusSummaryMetrics{
			lengthHistogram: getOrCreateHistogram(prometheus.HistogramOpts{
				Name:    "entry_summary_length_characters",
				Help:    "Distribution of summary lengths in characters (Unicode runes)",
				Buckets: []float64{100, 300, 500, 700, 900, 1100, 1500, 2000},
			}),
			exceededCounter: getOrCreateCounter(prometheus.CounterOpts{
				Name: "entry_summary_limit_exceeded_total",
				Help: "Total number of summaries exceeding the configured character limit",
			}),
			complianceGauge: getOrCreateGauge(prometheus.GaugeOpts{
				Name: "entry_summary_limit_compliance_ratio",
				Help: "Whether the most recent summary was within the character limit (0 or 1)",
			}),
			durationHistogram: getOrCreateHistogram(prometheus.HistogramOpts{
				Name:    "entry_summarization_api_duration_seconds",
				Help:    "Time taken to generate a summary via an AI provider",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}),
		}
	})
	return prometheusMetricsInstance
}

// RecordLength implements SummaryMetricsRecorder.
func (p *PrometheusSummaryMetrics) RecordLength(length int) {
	p.lengthHistogram.Observe(float64(length))
}

// RecordLimitExceeded implements SummaryMetricsRecorder.
func (p *PrometheusSummaryMetrics) RecordLimitExceeded() {
	p.exceededCounter.Inc()
}

// RecordCompliance implements SummaryMetricsRecorder.
func (p *PrometheusSummaryMetrics) RecordCompliance(withinLimit bool) {
	if withinLimit {
		p.complianceGauge.Set(1.0)
	} else {
		p.complianceGauge.Set(0.0)
	}
}

// RecordDuration implements SummaryMetricsRecorder.
func (p *PrometheusSummaryMetrics) RecordDuration(duration time.Duration) {
	p.durationHistogram.Observe(duration.Seconds())
}
