// Package metrics provides Prometheus metrics for the retrieval pipeline.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for medivault.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	QueriesTotal       *prometheus.CounterVec
	IngestionsTotal    *prometheus.CounterVec
	IndexedChunks      prometheus.Gauge
	GenerationFailures *prometheus.CounterVec
	GenerationRetries  *prometheus.CounterVec
	RetrievalDuration  prometheus.Histogram
	IngestionDuration  prometheus.Histogram
}

// New creates and registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medivault_queries_total",
				Help: "Total number of answered questions",
			},
			[]string{"grounded"},
		),
		IngestionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medivault_ingestions_total",
				Help: "Total number of ingestion runs by outcome",
			},
			[]string{"status"},
		),
		IndexedChunks: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "medivault_indexed_chunks",
				Help: "Number of entries in the vector index",
			},
		),
		GenerationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medivault_generation_failures_total",
				Help: "Generator calls that failed after all retries",
			},
			[]string{"operation"},
		),
		GenerationRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medivault_generation_retries_total",
				Help: "Generator retries by reason",
			},
			[]string{"reason"},
		),
		RetrievalDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "medivault_retrieval_duration_seconds",
				Help:    "Time to embed a question and search the index",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		IngestionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "medivault_ingestion_duration_seconds",
				Help:    "Duration of ingestion runs",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
	}
}

// RecordQuery counts an answered question.
func (m *Metrics) RecordQuery(grounded bool) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(strconv.FormatBool(grounded)).Inc()
}

// RecordIngestion records an ingestion run and the resulting index size.
func (m *Metrics) RecordIngestion(status string, indexCount int, duration time.Duration) {
	if m == nil {
		return
	}
	m.IngestionsTotal.WithLabelValues(status).Inc()
	m.IngestionDuration.Observe(duration.Seconds())
	m.IndexedChunks.Set(float64(indexCount))
}

// SetIndexedChunks updates the index size gauge.
func (m *Metrics) SetIndexedChunks(n int) {
	if m == nil {
		return
	}
	m.IndexedChunks.Set(float64(n))
}

// RecordGenerationFailure counts a failed answer, recommendation or summary.
func (m *Metrics) RecordGenerationFailure(operation string) {
	if m == nil {
		return
	}
	m.GenerationFailures.WithLabelValues(operation).Inc()
}

// RecordRetry counts a generator retry.
func (m *Metrics) RecordRetry(reason string) {
	if m == nil {
		return
	}
	m.GenerationRetries.WithLabelValues(reason).Inc()
}

// ObserveRetrieval records retrieval latency.
func (m *Metrics) ObserveRetrieval(d time.Duration) {
	if m == nil {
		return
	}
	m.RetrievalDuration.Observe(d.Seconds())
}
