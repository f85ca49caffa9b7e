package roundservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	rounddb "github.com/fairway-collective/roundsync/app/modules/round/infrastructure/repositories"
	"github.com/fairway-collective/roundsync/app/shared/results"
	"github.com/fairway-collective/roundsync/internal/identity"
	"github.com/fairway-collective/roundsync/internal/observability/attr"
	roundmetrics "github.com/fairway-collective/roundsync/internal/observability/metrics/round"
	"github.com/fairway-collective/roundsync/internal/relay"
)

// RoundService implements the Service interface.
type RoundService struct {
	repo        rounddb.RoundDB
	fetcher     relay.Fetcher
	publisher   relay.Publisher
	ident       identity.Provider
	signer      identity.Signer
	bus         message.Publisher
	clock       Clock
	shareRelays []string
	logger      *slog.Logger
	metrics     roundmetrics.RoundMetrics
	tracer      trace.Tracer
}

// NewRoundService creates a new RoundService. signer may be nil for
// join-only deployments; CreateAndShare then reports signing as unavailable.
func NewRoundService(
	repo rounddb.RoundDB,
	fetcher relay.Fetcher,
	publisher relay.Publisher,
	ident identity.Provider,
	signer identity.Signer,
	bus message.Publisher,
	clock Clock,
	shareRelays []string,
	logger *slog.Logger,
	metrics roundmetrics.RoundMetrics,
	tracer trace.Tracer,
) *RoundService {
	return &RoundService{
		repo:        repo,
		fetcher:     fetcher,
		publisher:   publisher,
		ident:       ident,
		signer:      signer,
		bus:         bus,
		clock:       clock,
		shareRelays: shareRelays,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
	}
}

// operationFunc is the signature for service operation functions.
type operationFunc func(ctx context.Context) (results.OperationResult, error)

// withTelemetry wraps a service operation with tracing, metrics, and panic
// recovery. This standardizes observability across all service methods.
func (s *RoundService) withTelemetry(
	ctx context.Context,
	operationName string,
	subject string,
	op operationFunc,
) (result results.OperationResult, err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("subject", subject),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, "RoundService")

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, "RoundService", time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("operation", operationName),
				attr.String("subject", subject),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, "RoundService")
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
			attr.String("subject", subject),
			attr.Error(wrappedErr),
			attr.Any("result_has_failure", result.Failure != nil),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, "RoundService")
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.Failure != nil {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("subject", subject),
			attr.Any("failure_type", fmt.Sprintf("%T", result.Failure)),
		)
	}

	if result.Success != nil {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("subject", subject),
			attr.Any("success_type", fmt.Sprintf("%T", result.Success)),
		)
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, "RoundService")
	return result, nil
}
