package coursehandlers

import (
	"context"
	"errors"

	courseevents "github.com/fairway-collective/roundsync/app/shared/events/course"
	"github.com/fairway-collective/roundsync/internal/handlerwrapper"
	"github.com/fairway-collective/roundsync/internal/observability/attr"
)

// HandleSyncRequested handles the CourseSyncRequested event.
//
// The coordinator publishes the completed or failed event itself, so this
// handler returns no messages. A reconciliation that failed with an outcome
// payload is still acked; retrying is the scheduler's job, not the bus's.
func (h *CourseHandlers) HandleSyncRequested(ctx context.Context, payload *courseevents.CourseSyncRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	result, err := h.service.Refresh(ctx)
	if err != nil && result.Failure == nil {
		return nil, err
	}
	if err != nil {
		h.logger.WarnContext(ctx, "Requested course sync failed, outcome already published",
			attr.Error(err),
		)
	}

	return nil, nil
}
