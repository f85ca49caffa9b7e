package roundhandlers

import (
	"context"
	"errors"

	roundevents "github.com/fairway-collective/roundsync/app/shared/events/round"
	"github.com/fairway-collective/roundsync/internal/handlerwrapper"
	"github.com/fairway-collective/roundsync/internal/observability/attr"
)

// HandleCreateRequested handles the RoundCreateRequested event.
func (h *RoundHandlers) HandleCreateRequested(ctx context.Context, payload *roundevents.RoundCreateRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	result, err := h.service.CreateAndShare(ctx, *payload)
	if err != nil && result.Failure == nil {
		return nil, err
	}
	if err != nil {
		h.logger.WarnContext(ctx, "Create request failed, publishing failure event",
			attr.Error(err),
		)
	}

	return mapOperationResult(result,
		roundevents.RoundCreatedV1,
		roundevents.RoundCreateFailedV1,
	), nil
}
