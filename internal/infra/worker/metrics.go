package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"newsportal/pkg/config"
)

// Metrics are the worker's Prometheus metrics:
//   - worker_config_*: configuration load and fallback state
//   - worker_ingest_runs_total{trigger,status}
//   - worker_ingest_run_duration_seconds{trigger}
//   - worker_ingest_articles_written_total
//   - worker_ingest_last_success_timestamp
type Metrics struct {
	*config.ConfigMetrics

	RunsTotal          *prometheus.CounterVec
	RunDuration        *prometheus.HistogramVec
	ArticlesWritten    prometheus.Counter
	LastSuccessSeconds prometheus.Gauge
}

// NewMetrics creates the worker metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConfigMetrics: config.NewConfigMetrics("worker", reg),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_ingest_runs_total",
			Help: "Total number of ingestion runs by trigger and status",
		}, []string{"trigger", "status"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_ingest_run_duration_seconds",
			Help:    "Duration of ingestion runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 30, 60, 300, 900},
		}, []string{"trigger"}),
		ArticlesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worker_ingest_articles_written_total",
			Help: "Total number of articles written by worker runs",
		}),
		LastSuccessSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "worker_ingest_last_success_timestamp",
			Help: "Unix timestamp of the last successful ingestion run",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.RunsTotal, m.RunDuration, m.ArticlesWritten, m.LastSuccessSeconds)
	}
	return m
}

// RecordRun records one finished run. Status is success, failure or skipped.
func (m *Metrics) RecordRun(trigger, status string, d time.Duration, written int) {
	m.RunsTotal.WithLabelValues(trigger, status).Inc()
	if status == StatusSkipped {
		return
	}
	m.RunDuration.WithLabelValues(trigger).Observe(d.Seconds())
	m.ArticlesWritten.Add(float64(written))
	if status == StatusSuccess {
		m.LastSuccessSeconds.SetToCurrentTime()
	}
}
