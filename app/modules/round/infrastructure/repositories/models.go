package rounddb

import (
	"time"

	"github.com/uptrace/bun"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// Round is the persisted form of a synchronized round.
//
// InitiationEventID is the idempotency key for the whole join flow: the
// unique constraint guarantees at most one row per initiation event no
// matter how many joins race on the same invite.
type Round struct {
	bun.BaseModel `bun:"table:rounds,alias:r"`

	ID                sharedtypes.RoundID  `bun:"id,pk,autoincrement"`
	InitiationEventID sharedtypes.EventID  `bun:"initiation_event_id,notnull,unique"`
	CourseHash        string               `bun:"course_hash,nullzero"`
	RulesHash         string               `bun:"rules_hash,nullzero"`
	Players           []sharedtypes.PubKey `bun:"players,type:jsonb"`
	StartDate         time.Time            `bun:"start_date,nullzero"`
	CreatedAt         time.Time            `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time            `bun:",nullzero,notnull,default:current_timestamp"`
}

// ToShared converts the persisted row into the transport-facing round type.
func (r *Round) ToShared() sharedtypes.Round {
	return sharedtypes.Round{
		ID:                r.ID,
		InitiationEventID: r.InitiationEventID,
		CourseHash:        r.CourseHash,
		RulesHash:         r.RulesHash,
		Players:           r.Players,
		StartDate:         r.StartDate,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// RoundsToShared converts a slice of rows for list responses.
func RoundsToShared(rounds []*Round) []sharedtypes.Round {
	out := make([]sharedtypes.Round, 0, len(rounds))
	for _, r := range rounds {
		out = append(out, r.ToShared())
	}
	return out
}
