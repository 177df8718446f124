// Package metrics exposes Prometheus collectors for the validation
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's Prometheus collectors. Construct once with
// New and pass by reference; a nil *Metrics disables recording.
type Metrics struct {
	BatchesTotal      *prometheus.CounterVec
	DegradedVerdicts  prometheus.Counter
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	ValidationSeconds prometheus.Histogram
}

// New creates the pipeline collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tendercheck_batches_total",
			Help: "Judge batches dispatched, by outcome (ok, degraded).",
		}, []string{"outcome"}),
		DegradedVerdicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tendercheck_degraded_verdicts_total",
			Help: "Verdicts synthesized without judge evaluation.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tendercheck_embedding_cache_hits_total",
			Help: "Embedding cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tendercheck_embedding_cache_misses_total",
			Help: "Embedding cache misses.",
		}),
		ValidationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tendercheck_validation_seconds",
			Help:    "End-to-end validation run duration.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}

	reg.MustRegister(
		m.BatchesTotal,
		m.DegradedVerdicts,
		m.CacheHits,
		m.CacheMisses,
		m.ValidationSeconds,
	)
	return m
}

// RecordBatch counts a dispatched batch by outcome.
func (m *Metrics) RecordBatch(outcome string) {
	if m == nil {
		return
	}
	m.BatchesTotal.WithLabelValues(outcome).Inc()
}

// RecordDegraded counts n degraded verdicts.
func (m *Metrics) RecordDegraded(n int) {
	if m == nil {
		return
	}
	m.DegradedVerdicts.Add(float64(n))
}

// RecordValidation observes one validation run duration in seconds.
func (m *Metrics) RecordValidation(seconds float64) {
	if m == nil {
		return
	}
	m.ValidationSeconds.Observe(seconds)
}

// RecordCache adds embedding cache hit and miss counts.
func (m *Metrics) RecordCache(hits, misses uint64) {
	if m == nil {
		return
	}
	m.CacheHits.Add(float64(hits))
	m.CacheMisses.Add(float64(misses))
}
