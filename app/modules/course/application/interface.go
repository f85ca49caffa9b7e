package courseservice

import (
	"context"

	"github.com/fairway-collective/roundsync/app/shared/results"
)

// Service is the course cache coordinator's contract. Both operations resolve
// to a results.OperationResult whose Success payload is the ordered
// sharedtypes.CourseList read from the cache; a reconciliation that cannot
// complete returns a typed error together with a Failure payload carrying the
// last-known-good list.
type Service interface {
	// LoadIfNeeded returns the cached course list without touching the
	// network. The first call per process also kicks off one background
	// reconciliation.
	LoadIfNeeded(ctx context.Context) (results.OperationResult, error)

	// Refresh reconciles the cache against the relays and returns the
	// re-read list. Concurrent calls share a single reconciliation.
	Refresh(ctx context.Context) (results.OperationResult, error)
}
