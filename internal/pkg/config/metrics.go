package config

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConfigMetrics tracks configuration load state for one component.
// The metric names are parameterized by component so the daemon and any
// auxiliary binaries report independently:
//
//	{component}_config_load_timestamp
//	{component}_config_validation_errors_total
//	{component}_config_fallbacks_total
//	{component}_config_fallback_active
type ConfigMetrics struct {
	LoadTimestamp         prometheus.Gauge
	ValidationErrorsTotal *prometheus.CounterVec
	FallbacksTotal        *prometheus.CounterVec
	FallbackActive        prometheus.Gauge
}

// NewConfigMetrics creates the configuration metric set for a component.
// The metrics are not registered; call Register with the target registry.
func NewConfigMetrics(component string) *ConfigMetrics {
	return &ConfigMetrics{
		LoadTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", component),
			Help: "Unix timestamp of the last configuration load.",
		}),
		ValidationErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_validation_errors_total", component),
			Help: "Configuration validation errors by field.",
		}, []string{"field"}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", component),
			Help: "Configuration fallbacks applied by field.",
		}, []string{"field"}),
		FallbackActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", component),
			Help: "1 when any configuration fallback is active.",
		}),
	}
}

// Register registers all configuration metrics with the given registry.
func (m *ConfigMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.LoadTimestamp, m.ValidationErrorsTotal, m.FallbacksTotal, m.FallbackActive,
	} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register config metric: %w", err)
		}
	}
	return nil
}

// RecordLoadTimestamp marks the configuration as loaded now.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.Set(float64(time.Now().Unix()))
}

// RecordValidationError counts a validation failure for a field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordFallback counts a fallback applied for a field.
func (m *ConfigMetrics) RecordFallback(field string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

// SetFallbackActive flips the fallback-active gauge.
func (m *ConfigMetrics) SetFallbackActive(active bool) {
	if active {
		m.FallbackActive.Set(1)
	} else {
		m.FallbackActive.Set(0)
	}
}
