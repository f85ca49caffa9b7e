package roundhandlers

import (
	"context"
	"errors"

	roundevents "github.com/fairway-collective/roundsync/app/shared/events/round"
	"github.com/fairway-collective/roundsync/internal/handlerwrapper"
	"github.com/fairway-collective/roundsync/internal/observability/attr"
)

// HandleJoinRequested handles the RoundJoinRequested event.
//
// A join that fails with a taxonomy outcome still produces a failure event;
// the message is acked either way so a terminal failure is never redelivered.
// The error path only survives when the service had nothing to publish.
func (h *RoundHandlers) HandleJoinRequested(ctx context.Context, payload *roundevents.RoundJoinRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	result, err := h.service.JoinFromInvite(ctx, payload.Invite)
	if err != nil && result.Failure == nil {
		return nil, err
	}
	if err != nil {
		h.logger.WarnContext(ctx, "Join request failed, publishing failure event",
			attr.Error(err),
		)
	}

	return mapOperationResult(result,
		roundevents.RoundJoinCompletedV1,
		roundevents.RoundJoinFailedV1,
	), nil
}
