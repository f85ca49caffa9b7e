package courseservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	coursedb "github.com/fairway-collective/roundsync/app/modules/course/infrastructure/repositories"
	"github.com/fairway-collective/roundsync/app/shared/results"
	"github.com/fairway-collective/roundsync/internal/observability/attr"
	coursemetrics "github.com/fairway-collective/roundsync/internal/observability/metrics/course"
	"github.com/fairway-collective/roundsync/internal/relay"
)

// Clock abstracts time so reconciliation timestamps are deterministic in
// tests.
type Clock interface {
	Now() time.Time
}

// RealClock is the production clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// CourseService implements the Service interface. It coordinates the local
// course cache against the relay set: reads always come from the cache, and
// reconciliations merge the remote set in by d tag.
type CourseService struct {
	repo    coursedb.CourseDB
	fetcher relay.Fetcher
	bus     message.Publisher
	clock   Clock
	logger  *slog.Logger
	metrics coursemetrics.CourseMetrics
	tracer  trace.Tracer

	// reconcileOnce arms the single background reconciliation the first
	// LoadIfNeeded triggers; group coalesces overlapping reconciliations.
	reconcileOnce sync.Once
	group         singleflight.Group
}

// NewCourseService creates a new CourseService.
func NewCourseService(
	repo coursedb.CourseDB,
	fetcher relay.Fetcher,
	bus message.Publisher,
	clock Clock,
	logger *slog.Logger,
	metrics coursemetrics.CourseMetrics,
	tracer trace.Tracer,
) *CourseService {
	return &CourseService{
		repo:    repo,
		fetcher: fetcher,
		bus:     bus,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
}

// operationFunc is the signature for service operation functions.
type operationFunc func(ctx context.Context) (results.OperationResult, error)

// withTelemetry wraps a service operation with tracing, metrics, and panic
// recovery. This standardizes observability across all service methods.
func (s *CourseService) withTelemetry(
	ctx context.Context,
	operationName string,
	op operationFunc,
) (result results.OperationResult, err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, "CourseService")

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, "CourseService", time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("operation", operationName),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, "CourseService")
			span.RecordError(err)
			result = results.OperationResult{}
		}
	}()

	result, err = op(ctx)
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Error(wrappedErr),
			attr.Any("result_has_failure", result.Failure != nil),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, "CourseService")
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.Failure != nil {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Any("failure_type", fmt.Sprintf("%T", result.Failure)),
		)
	}

	if result.Success != nil {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Any("success_type", fmt.Sprintf("%T", result.Success)),
		)
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, "CourseService")
	return result, nil
}
