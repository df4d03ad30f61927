// Package metrics holds the extraction counters. There is no HTTP surface; the
// registry is written to a node-exporter textfile after each pass.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "newsextractor"

// Unit outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metrics holds the counters updated by the pipeline and scheduler.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	ArticlesTotal       *prometheus.CounterVec
	DroppedTotal        *prometheus.CounterVec
	PersistFailures     *prometheus.CounterVec
	UnitsTotal          *prometheus.CounterVec
	LastPassDuration    prometheus.Gauge
	LastPassCompletedAt prometheus.Gauge
}

// New creates the metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,
		ArticlesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "articles_total",
				Help:      "Articles produced per stage (fetched, approved, scraped)",
			},
			[]string{"stage"},
		),
		DroppedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "dropped_total",
				Help:      "Articles dropped per stage and reason",
			},
			[]string{"stage", "reason"},
		),
		PersistFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "persist_failures_total",
				Help:      "Batches that could not be persisted",
			},
			[]string{"collection"},
		),
		UnitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "units_total",
				Help:      "Processed (keyword, day) units by outcome",
			},
			[]string{"outcome"},
		),
		LastPassDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_pass_duration_seconds",
				Help:      "Duration of the most recent extraction pass",
			},
		),
		LastPassCompletedAt: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_pass_completed_timestamp_seconds",
				Help:      "Unix time the most recent extraction pass finished",
			},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// RecordArticles adds n articles produced by stage.
func (m *Metrics) RecordArticles(stage string, n int) {
	if m == nil {
		return
	}
	m.ArticlesTotal.WithLabelValues(stage).Add(float64(n))
}

// RecordDrop counts one dropped article.
func (m *Metrics) RecordDrop(stage, reason string) {
	if m == nil {
		return
	}
	m.DroppedTotal.WithLabelValues(stage, reason).Inc()
}

// RecordPersistFailure counts a batch the sink rejected.
func (m *Metrics) RecordPersistFailure(collection string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(collection).Inc()
}

// RecordUnit counts a finished unit.
func (m *Metrics) RecordUnit(ok bool) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if !ok {
		outcome = OutcomeFailed
	}
	m.UnitsTotal.WithLabelValues(outcome).Inc()
}

// RecordPass sets the pass gauges.
func (m *Metrics) RecordPass(d time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.LastPassDuration.Set(d.Seconds())
	m.LastPassCompletedAt.Set(float64(finished.Unix()))
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.reg)
}
