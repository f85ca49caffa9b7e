// Package roundmetrics records operational metrics for the round module.
package roundmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RoundMetrics is implemented by the prometheus recorder and by the NoOp
// recorder used in tests.
type RoundMetrics interface {
	RecordOperationAttempt(ctx context.Context, operationName, serviceName string)
	RecordOperationDuration(ctx context.Context, operationName, serviceName string, duration time.Duration)
	RecordOperationSuccess(ctx context.Context, operationName, serviceName string)
	RecordOperationFailure(ctx context.Context, operationName, serviceName string)
	RecordJoinOutcome(ctx context.Context, outcome string)
	RecordHashMismatch(ctx context.Context, field string)
}

type prometheusRoundMetrics struct {
	operationAttempts  *prometheus.CounterVec
	operationDurations *prometheus.HistogramVec
	operationSuccesses *prometheus.CounterVec
	operationFailures  *prometheus.CounterVec
	joinOutcomes       *prometheus.CounterVec
	hashMismatches     *prometheus.CounterVec
}

// NewRoundMetrics registers the round collectors on reg and returns the
// recorder.
func NewRoundMetrics(reg prometheus.Registerer) RoundMetrics {
	m := &prometheusRoundMetrics{
		operationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "round_operation_attempts_total",
			Help: "Number of round service operations started.",
		}, []string{"operation", "service"}),
		operationDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "round_operation_duration_seconds",
			Help:    "Duration of round service operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		operationSuccesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "round_operation_successes_total",
			Help: "Number of round service operations that completed.",
		}, []string{"operation", "service"}),
		operationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "round_operation_failures_total",
			Help: "Number of round service operations that failed.",
		}, []string{"operation", "service"}),
		joinOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "round_join_outcomes_total",
			Help: "Join operations by terminal outcome.",
		}, []string{"outcome"}),
		hashMismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "round_hash_mismatches_total",
			Help: "Advisory content hash mismatches by field.",
		}, []string{"field"}),
	}
	reg.MustRegister(
		m.operationAttempts,
		m.operationDurations,
		m.operationSuccesses,
		m.operationFailures,
		m.joinOutcomes,
		m.hashMismatches,
	)
	return m
}

func (m *prometheusRoundMetrics) RecordOperationAttempt(ctx context.Context, operationName, serviceName string) {
	m.operationAttempts.WithLabelValues(operationName, serviceName).Inc()
}

func (m *prometheusRoundMetrics) RecordOperationDuration(ctx context.Context, operationName, serviceName string, duration time.Duration) {
	m.operationDurations.WithLabelValues(operationName, serviceName).Observe(duration.Seconds())
}

func (m *prometheusRoundMetrics) RecordOperationSuccess(ctx context.Context, operationName, serviceName string) {
	m.operationSuccesses.WithLabelValues(operationName, serviceName).Inc()
}

func (m *prometheusRoundMetrics) RecordOperationFailure(ctx context.Context, operationName, serviceName string) {
	m.operationFailures.WithLabelValues(operationName, serviceName).Inc()
}

func (m *prometheusRoundMetrics) RecordJoinOutcome(ctx context.Context, outcome string) {
	m.joinOutcomes.WithLabelValues(outcome).Inc()
}

func (m *prometheusRoundMetrics) RecordHashMismatch(ctx context.Context, field string) {
	m.hashMismatches.WithLabelValues(field).Inc()
}

// NoOpMetrics discards all recordings.
type NoOpMetrics struct{}

var _ RoundMetrics = (*NoOpMetrics)(nil)

func (NoOpMetrics) RecordOperationAttempt(ctx context.Context, operationName, serviceName string) {}
func (NoOpMetrics) RecordOperationDuration(ctx context.Context, operationName, serviceName string, duration time.Duration) {
}
func (NoOpMetrics) RecordOperationSuccess(ctx context.Context, operationName, serviceName string) {}
func (NoOpMetrics) RecordOperationFailure(ctx context.Context, operationName, serviceName string) {}
func (NoOpMetrics) RecordJoinOutcome(ctx context.Context, outcome string)                         {}
func (NoOpMetrics) RecordHashMismatch(ctx context.Context, field string)                          {}
