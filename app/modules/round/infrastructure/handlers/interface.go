package roundhandlers

import (
	"context"

	roundevents "github.com/fairway-collective/roundsync/app/shared/events/round"
	"github.com/fairway-collective/roundsync/internal/handlerwrapper"
)

// Handlers defines the contract for round event handlers.
type Handlers interface {
	HandleJoinRequested(ctx context.Context, payload *roundevents.RoundJoinRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleCreateRequested(ctx context.Context, payload *roundevents.RoundCreateRequestedPayloadV1) ([]handlerwrapper.Result, error)
}
