// Package handlerwrapper adapts typed transformation handlers onto watermill.
//
// A wrapped handler receives a decoded payload and returns the messages to
// publish; unmarshaling, correlation ids, tracing, and metrics live here so
// individual handlers stay pure.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/fairway-collective/roundsync/internal/observability/attr"
)

// TopicMetadataKey is the metadata key the event bus reads when a handler is
// registered with an empty publish topic.
const TopicMetadataKey = "topic"

// Result is one outgoing message produced by a typed handler.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// ReturningMetrics records handler-level outcomes. A nil value disables
// recording.
type ReturningMetrics interface {
	RecordHandlerAttempt(ctx context.Context, handlerName string)
	RecordHandlerDuration(ctx context.Context, handlerName string, duration time.Duration)
	RecordHandlerSuccess(ctx context.Context, handlerName string)
	RecordHandlerFailure(ctx context.Context, handlerName string)
}

// WrapTransformingTyped turns a typed transformation handler into a watermill
// HandlerFunc. The incoming payload is unmarshaled into T; returned Results
// are marshaled into messages with the destination topic stored in metadata.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	metrics ReturningMetrics,
	handler func(ctx context.Context, payload *T) ([]Result, error),
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		correlationID := middleware.MessageCorrelationID(msg)
		if correlationID == "" {
			correlationID = watermill.NewUUID()
		}

		ctx := attr.WithCorrelationID(msg.Context(), correlationID)
		ctx, span := tracer.Start(ctx, handlerName)
		defer span.End()

		if metrics != nil {
			metrics.RecordHandlerAttempt(ctx, handlerName)
			start := time.Now()
			defer func() {
				metrics.RecordHandlerDuration(ctx, handlerName, time.Since(start))
			}()
		}

		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			logger.ErrorContext(ctx, "Failed to unmarshal handler payload",
				attr.String("handler", handlerName),
				attr.String("message_id", msg.UUID),
				attr.Error(err),
			)
			if metrics != nil {
				metrics.RecordHandlerFailure(ctx, handlerName)
			}
			span.RecordError(err)
			return nil, fmt.Errorf("%s: unmarshal payload: %w", handlerName, err)
		}

		results, err := handler(ctx, &payload)
		if err != nil {
			logger.ErrorContext(ctx, "Handler returned error",
				attr.String("handler", handlerName),
				attr.Error(err),
			)
			if metrics != nil {
				metrics.RecordHandlerFailure(ctx, handlerName)
			}
			span.RecordError(err)
			return nil, err
		}

		out := make([]*message.Message, 0, len(results))
		for _, res := range results {
			data, err := json.Marshal(res.Payload)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to marshal handler result",
					attr.String("handler", handlerName),
					attr.Topic(res.Topic),
					attr.Error(err),
				)
				if metrics != nil {
					metrics.RecordHandlerFailure(ctx, handlerName)
				}
				span.RecordError(err)
				return nil, fmt.Errorf("%s: marshal result for %s: %w", handlerName, res.Topic, err)
			}

			outMsg := message.NewMessage(watermill.NewUUID(), data)
			outMsg.SetContext(ctx)
			middleware.SetCorrelationID(correlationID, outMsg)
			outMsg.Metadata.Set(TopicMetadataKey, res.Topic)
			for k, v := range res.Metadata {
				outMsg.Metadata.Set(k, v)
			}
			out = append(out, outMsg)
		}

		if metrics != nil {
			metrics.RecordHandlerSuccess(ctx, handlerName)
		}
		return out, nil
	}
}
