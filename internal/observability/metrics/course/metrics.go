// Package coursemetrics records operational metrics for the course module.
package coursemetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CourseMetrics is implemented by the prometheus recorder and by the NoOp
// recorder used in tests.
type CourseMetrics interface {
	RecordOperationAttempt(ctx context.Context, operationName, serviceName string)
	RecordOperationDuration(ctx context.Context, operationName, serviceName string, duration time.Duration)
	RecordOperationSuccess(ctx context.Context, operationName, serviceName string)
	RecordOperationFailure(ctx context.Context, operationName, serviceName string)
	RecordItemSkipped(ctx context.Context, reason string)
	RecordReconcile(ctx context.Context, fetched, upserted, skipped int)
}

type prometheusCourseMetrics struct {
	operationAttempts  *prometheus.CounterVec
	operationDurations *prometheus.HistogramVec
	operationSuccesses *prometheus.CounterVec
	operationFailures  *prometheus.CounterVec
	itemsSkipped       *prometheus.CounterVec
	reconcileFetched   prometheus.Counter
	reconcileUpserted  prometheus.Counter
	reconcileSkipped   prometheus.Counter
}

// NewCourseMetrics registers the course collectors on reg and returns the
// recorder.
func NewCourseMetrics(reg prometheus.Registerer) CourseMetrics {
	m := &prometheusCourseMetrics{
		operationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "course_operation_attempts_total",
			Help: "Number of course service operations started.",
		}, []string{"operation", "service"}),
		operationDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "course_operation_duration_seconds",
			Help:    "Duration of course service operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		operationSuccesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "course_operation_successes_total",
			Help: "Number of course service operations that completed.",
		}, []string{"operation", "service"}),
		operationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "course_operation_failures_total",
			Help: "Number of course service operations that failed.",
		}, []string{"operation", "service"}),
		itemsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "course_reconcile_items_skipped_total",
			Help: "Remote course items skipped during reconciliation, by reason.",
		}, []string{"reason"}),
		reconcileFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "course_reconcile_fetched_total",
			Help: "Remote course items fetched across reconciliations.",
		}),
		reconcileUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "course_reconcile_upserted_total",
			Help: "Course rows written across reconciliations.",
		}),
		reconcileSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "course_reconcile_skipped_total",
			Help: "Remote course items skipped across reconciliations.",
		}),
	}
	reg.MustRegister(
		m.operationAttempts,
		m.operationDurations,
		m.operationSuccesses,
		m.operationFailures,
		m.itemsSkipped,
		m.reconcileFetched,
		m.reconcileUpserted,
		m.reconcileSkipped,
	)
	return m
}

func (m *prometheusCourseMetrics) RecordOperationAttempt(ctx context.Context, operationName, serviceName string) {
	m.operationAttempts.WithLabelValues(operationName, serviceName).Inc()
}

func (m *prometheusCourseMetrics) RecordOperationDuration(ctx context.Context, operationName, serviceName string, duration time.Duration) {
	m.operationDurations.WithLabelValues(operationName, serviceName).Observe(duration.Seconds())
}

func (m *prometheusCourseMetrics) RecordOperationSuccess(ctx context.Context, operationName, serviceName string) {
	m.operationSuccesses.WithLabelValues(operationName, serviceName).Inc()
}

func (m *prometheusCourseMetrics) RecordOperationFailure(ctx context.Context, operationName, serviceName string) {
	m.operationFailures.WithLabelValues(operationName, serviceName).Inc()
}

func (m *prometheusCourseMetrics) RecordItemSkipped(ctx context.Context, reason string) {
	m.itemsSkipped.WithLabelValues(reason).Inc()
}

func (m *prometheusCourseMetrics) RecordReconcile(ctx context.Context, fetched, upserted, skipped int) {
	m.reconcileFetched.Add(float64(fetched))
	m.reconcileUpserted.Add(float64(upserted))
	m.reconcileSkipped.Add(float64(skipped))
}

// NoOpMetrics discards all recordings.
type NoOpMetrics struct{}

var _ CourseMetrics = (*NoOpMetrics)(nil)

func (NoOpMetrics) RecordOperationAttempt(ctx context.Context, operationName, serviceName string) {}
func (NoOpMetrics) RecordOperationDuration(ctx context.Context, operationName, serviceName string, duration time.Duration) {
}
func (NoOpMetrics) RecordOperationSuccess(ctx context.Context, operationName, serviceName string) {}
func (NoOpMetrics) RecordOperationFailure(ctx context.Context, operationName, serviceName string) {}
func (NoOpMetrics) RecordItemSkipped(ctx context.Context, reason string)                          {}
func (NoOpMetrics) RecordReconcile(ctx context.Context, fetched, upserted, skipped int)           {}
