// Package eventutil holds small helpers for watermill message payloads.
package eventutil

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/fairway-collective/roundsync/internal/observability/attr"
)

// UnmarshalPayload decodes a message payload into T and returns the message's
// correlation id alongside it.
func UnmarshalPayload[T any](msg *message.Message, logger *slog.Logger) (string, T, error) {
	var payload T
	correlationID := middleware.MessageCorrelationID(msg)

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		logger.ErrorContext(msg.Context(), "Failed to unmarshal message payload",
			attr.String("correlation_id", correlationID),
			attr.String("message_id", msg.UUID),
			attr.Error(err),
		)
		return correlationID, payload, fmt.Errorf("unmarshal payload: %w", err)
	}

	return correlationID, payload, nil
}

// NewMessage marshals payload into a fresh message carrying correlationID.
// An empty correlationID gets a generated one.
func NewMessage(payload any, correlationID string) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	if correlationID == "" {
		correlationID = watermill.NewUUID()
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	middleware.SetCorrelationID(correlationID, msg)
	return msg, nil
}
