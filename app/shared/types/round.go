package sharedtypes

import "time"

// RoundPhase is the lifecycle phase of a single join or create operation.
type RoundPhase string

const (
	RoundPhaseIdle       RoundPhase = "idle"
	RoundPhaseFetching   RoundPhase = "fetching"
	RoundPhaseVerifying  RoundPhase = "verifying"
	RoundPhaseCommitting RoundPhase = "committing"
	RoundPhaseDone       RoundPhase = "done"
	RoundPhaseFailed     RoundPhase = "failed"
)

func (p RoundPhase) String() string { return string(p) }

// Terminal reports whether no further phase transition can follow.
func (p RoundPhase) Terminal() bool {
	return p == RoundPhaseDone || p == RoundPhaseFailed
}

// Round is the domain representation of a locally persisted round.
type Round struct {
	ID                RoundID   `json:"id"`
	InitiationEventID EventID   `json:"initiation_event_id"`
	CourseHash        string    `json:"course_hash"`
	RulesHash         string    `json:"rules_hash"`
	Players           []PubKey  `json:"players"`
	StartDate         time.Time `json:"start_date"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// InitiationRecord is the decoded form of a round initiation event. Date is
// the raw tag value when present; resolution to a concrete time happens at
// commit time.
type InitiationRecord struct {
	CourseHash string   `json:"course_hash"`
	RulesHash  string   `json:"rules_hash"`
	Date       *string  `json:"date,omitempty"`
	Players    []PubKey `json:"players"`
	RawContent string   `json:"raw_content"`
}
