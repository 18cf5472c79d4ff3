package config

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// ConfigMetrics tracks configuration loads and fallbacks for one component.
// Metric names are prefixed with the component name, e.g.
// worker_config_fallbacks_total.
type ConfigMetrics struct {
	LoadTimestamp         prometheus.Gauge
	ValidationErrorsTotal *prometheus.CounterVec
	FallbacksTotal        *prometheus.CounterVec
	FallbackActive        prometheus.Gauge
}

// NewConfigMetrics creates the metrics for component and registers them with reg.
// A nil reg leaves them unregistered, which tests rely on.
func NewConfigMetrics(component string, reg prometheus.Registerer) *ConfigMetrics {
	m := &ConfigMetrics{
		LoadTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: component + "_config_load_timestamp",
			Help: "Unix timestamp of the last " + component + " configuration load",
		}),
		ValidationErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: component + "_config_validation_errors_total",
			Help: "Total number of " + component + " configuration validation errors",
		}, []string{"field"}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: component + "_config_fallbacks_total",
			Help: "Total number of " + component + " configuration fallbacks to defaults",
		}, []string{"field"}),
		FallbackActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: component + "_config_fallback_active",
			Help: "1 if any " + component + " configuration value fell back to its default",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.LoadTimestamp, m.ValidationErrorsTotal, m.FallbacksTotal, m.FallbackActive)
	}
	return m
}

// Fallbacks collects the outcome of several Load calls.
type Fallbacks struct {
	logger  *slog.Logger
	metrics *ConfigMetrics
	applied bool
}

// NewFallbacks returns a collector. Either argument may be nil.
func NewFallbacks(logger *slog.Logger, metrics *ConfigMetrics) *Fallbacks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallbacks{logger: logger, metrics: metrics}
}

// Observe logs and counts a fallback for field when r applied one.
func Observe[T any](f *Fallbacks, field string, r Result[T]) T {
	if r.FallbackApplied {
		f.applied = true
		f.logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", r.Warning))
		if f.metrics != nil {
			f.metrics.ValidationErrorsTotal.WithLabelValues(field).Inc()
			f.metrics.FallbacksTotal.WithLabelValues(field).Inc()
		}
	}
	return r.Value
}

// Done records the load timestamp and whether any fallback is active.
// It returns true when at least one fallback was applied.
func (f *Fallbacks) Done() bool {
	if f.metrics != nil {
		f.metrics.LoadTimestamp.SetToCurrentTime()
		if f.applied {
			f.metrics.FallbackActive.Set(1)
		} else {
			f.metrics.FallbackActive.Set(0)
		}
	}
	return f.applied
}
