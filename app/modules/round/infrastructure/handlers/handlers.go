package roundhandlers

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	roundservice "github.com/fairway-collective/roundsync/app/modules/round/application"
	"github.com/fairway-collective/roundsync/app/shared/results"
	"github.com/fairway-collective/roundsync/internal/handlerwrapper"
)

// RoundHandlers implements the Handlers interface for round events.
type RoundHandlers struct {
	service roundservice.Service
	logger  *slog.Logger
}

// NewRoundHandlers creates a new RoundHandlers instance.
func NewRoundHandlers(service roundservice.Service, logger *slog.Logger, tracer trace.Tracer) *RoundHandlers {
	return &RoundHandlers{
		service: service,
		logger:  logger,
	}
}

// mapOperationResult converts a service OperationResult to handler Results.
func mapOperationResult(
	result results.OperationResult,
	successTopic, failureTopic string,
) []handlerwrapper.Result {
	handlerResults := result.MapToHandlerResults(successTopic, failureTopic)

	wrapperResults := make([]handlerwrapper.Result, len(handlerResults))
	for i, hr := range handlerResults {
		wrapperResults[i] = handlerwrapper.Result{
			Topic:    hr.Topic,
			Payload:  hr.Payload,
			Metadata: hr.Metadata,
		}
	}

	return wrapperResults
}
