// Package relaymetrics records operational metrics for the relay adapter.
package relaymetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcome label values.
const (
	OutcomeFound          = "found"
	OutcomeNotFound       = "not_found"
	OutcomeTransportError = "transport_error"
)

// RelayMetrics is implemented by the prometheus recorder and by the NoOp
// recorder used in tests.
type RelayMetrics interface {
	RecordFetch(ctx context.Context, outcome string)
	RecordFetchDuration(ctx context.Context, duration time.Duration)
	RecordPublish(ctx context.Context, outcome string)
	RecordCacheHit(ctx context.Context)
	RecordCacheMiss(ctx context.Context)
}

type prometheusRelayMetrics struct {
	fetches        *prometheus.CounterVec
	fetchDurations prometheus.Histogram
	publishes      *prometheus.CounterVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
}

// NewRelayMetrics registers the relay collectors on reg and returns the
// recorder.
func NewRelayMetrics(reg prometheus.Registerer) RelayMetrics {
	m := &prometheusRelayMetrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_fetches_total",
			Help: "Relay fetches by outcome.",
		}, []string{"outcome"}),
		fetchDurations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_fetch_duration_seconds",
			Help:    "Duration of relay fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_publishes_total",
			Help: "Relay publishes by outcome.",
		}, []string{"outcome"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_event_cache_hits_total",
			Help: "Remote event cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_event_cache_misses_total",
			Help: "Remote event cache misses.",
		}),
	}
	reg.MustRegister(m.fetches, m.fetchDurations, m.publishes, m.cacheHits, m.cacheMisses)
	return m
}

func (m *prometheusRelayMetrics) RecordFetch(ctx context.Context, outcome string) {
	m.fetches.WithLabelValues(outcome).Inc()
}

func (m *prometheusRelayMetrics) RecordFetchDuration(ctx context.Context, duration time.Duration) {
	m.fetchDurations.Observe(duration.Seconds())
}

func (m *prometheusRelayMetrics) RecordPublish(ctx context.Context, outcome string) {
	m.publishes.WithLabelValues(outcome).Inc()
}

func (m *prometheusRelayMetrics) RecordCacheHit(ctx context.Context)  { m.cacheHits.Inc() }
func (m *prometheusRelayMetrics) RecordCacheMiss(ctx context.Context) { m.cacheMisses.Inc() }

// NoOpMetrics discards all recordings.
type NoOpMetrics struct{}

var _ RelayMetrics = (*NoOpMetrics)(nil)

func (NoOpMetrics) RecordFetch(ctx context.Context, outcome string)                  {}
func (NoOpMetrics) RecordFetchDuration(ctx context.Context, duration time.Duration)  {}
func (NoOpMetrics) RecordPublish(ctx context.Context, outcome string)                {}
func (NoOpMetrics) RecordCacheHit(ctx context.Context)                               {}
func (NoOpMetrics) RecordCacheMiss(ctx context.Context)                              {}
