package coursehandlers

import (
	"context"

	courseevents "github.com/fairway-collective/roundsync/app/shared/events/course"
	"github.com/fairway-collective/roundsync/internal/handlerwrapper"
)

// Handlers defines the contract for course event handlers.
type Handlers interface {
	HandleSyncRequested(ctx context.Context, payload *courseevents.CourseSyncRequestedPayloadV1) ([]handlerwrapper.Result, error)
}
