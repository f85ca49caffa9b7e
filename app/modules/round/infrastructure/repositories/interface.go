package rounddb

import (
	"context"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// RoundDB defines the contract for round persistence.
// All methods are context-aware for cancellation and timeout propagation.
//
// Error semantics:
//   - ErrNotFound: record does not exist (GetRound, GetByInitiationEventID)
//   - Other errors: infrastructure failures (DB connection, query errors)
type RoundDB interface {
	// GetByInitiationEventID looks up the round joined from the given
	// initiation event. This is the idempotency check the join flow runs
	// before touching the network.
	GetByInitiationEventID(ctx context.Context, eventID sharedtypes.EventID) (*Round, error)

	// CreateRound inserts the round keyed on its initiation event id. If a
	// row for that id already exists (an earlier join, or a concurrent one
	// that won the race), the existing row is returned instead and created
	// is false. The insert and the fallback read run in one transaction.
	CreateRound(ctx context.Context, round *Round) (persisted *Round, created bool, err error)

	// GetRound retrieves a round by its local id.
	GetRound(ctx context.Context, roundID sharedtypes.RoundID) (*Round, error)

	// GetCourseHashByRoundID returns just the course hash of a round,
	// for callers that do not need the full row.
	GetCourseHashByRoundID(ctx context.Context, roundID sharedtypes.RoundID) (string, error)

	// ListRounds returns all rounds, newest first.
	ListRounds(ctx context.Context) ([]*Round, error)
}
