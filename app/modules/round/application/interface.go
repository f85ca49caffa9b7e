package roundservice

import (
	"context"

	roundevents "github.com/fairway-collective/roundsync/app/shared/events/round"
	"github.com/fairway-collective/roundsync/app/shared/results"
	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// Service defines the round application operations.
//
// Every method returns an OperationResult whose Success or Failure payload is
// ready to publish, plus an error for the caller's own classification. The
// two travel together: a typed error always comes with a Failure payload
// describing the same outcome.
type Service interface {
	// JoinFromInvite runs the full join flow for an invite code: parse,
	// local idempotency check, remote fetch, decode, advisory hash
	// verification, idempotent commit.
	JoinFromInvite(ctx context.Context, inviteCode string) (results.OperationResult, error)

	// CreateAndShare persists a local round, signs and publishes its
	// initiation event, and returns the shareable invite encodings.
	CreateAndShare(ctx context.Context, input roundevents.RoundCreateRequestedPayloadV1) (results.OperationResult, error)

	// GetRound retrieves one round by local id.
	GetRound(ctx context.Context, roundID sharedtypes.RoundID) (results.OperationResult, error)

	// ListRounds retrieves all rounds, newest first.
	ListRounds(ctx context.Context) (results.OperationResult, error)
}
