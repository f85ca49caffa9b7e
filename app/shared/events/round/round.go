// Package roundevents defines the topics and payloads of the round module.
package roundevents

import (
	"encoding/json"
	"time"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// Round event topics. The first dot-segment doubles as the stream name on
// JetStream deployments.
const (
	RoundJoinRequestedV1   = "round.join.requested.v1"
	RoundJoinProgressV1    = "round.join.progress.v1"
	RoundJoinCompletedV1   = "round.join.completed.v1"
	RoundJoinFailedV1      = "round.join.failed.v1"
	RoundHashMismatchV1    = "round.hash.mismatch.v1"
	RoundCreateRequestedV1 = "round.create.requested.v1"
	RoundCreatedV1         = "round.created.v1"
	RoundCreateFailedV1    = "round.create.failed.v1"
)

// RoundJoinRequestedPayloadV1 asks the round module to join the round behind
// an invite code.
type RoundJoinRequestedPayloadV1 struct {
	Invite string `json:"invite"`
}

// RoundJoinProgressPayloadV1 reports a phase transition of a running join.
// InitiationEventID is empty until the invite has been parsed.
type RoundJoinProgressPayloadV1 struct {
	Phase             sharedtypes.RoundPhase `json:"phase"`
	InitiationEventID sharedtypes.EventID    `json:"initiation_event_id,omitempty"`
	OccurredAt        time.Time              `json:"occurred_at"`
}

// RoundJoinCompletedPayloadV1 carries the joined round. AlreadyJoined is set
// when the round existed locally before the request, including when a
// concurrent request won the insert.
type RoundJoinCompletedPayloadV1 struct {
	Round         sharedtypes.Round `json:"round"`
	AlreadyJoined bool              `json:"already_joined"`
	Warnings      []string          `json:"warnings,omitempty"`
}

// RoundJoinFailedPayloadV1 reports a failed join. Retryable distinguishes
// transport failures from terminal ones. Hint, when set, tells the caller
// what a terminal failure may still resolve into on its own, such as an
// event that has not reached the queried relays yet.
type RoundJoinFailedPayloadV1 struct {
	Invite    string                 `json:"invite"`
	Phase     sharedtypes.RoundPhase `json:"phase"`
	Reason    string                 `json:"reason"`
	Retryable bool                   `json:"retryable"`
	Hint      string                 `json:"hint,omitempty"`
}

// RoundHashMismatchPayloadV1 is the advisory diagnostic for a content hash
// that does not match its declared tag. It never fails the operation.
type RoundHashMismatchPayloadV1 struct {
	InitiationEventID sharedtypes.EventID `json:"initiation_event_id"`
	Field             string              `json:"field"`
	Declared          string              `json:"declared"`
	Computed          string              `json:"computed"`
}

// RoundCreateRequestedPayloadV1 asks the round module to create a round
// locally, publish its initiation event, and return the shareable invite.
type RoundCreateRequestedPayloadV1 struct {
	Course  json.RawMessage      `json:"course"`
	Rules   json.RawMessage      `json:"rules"`
	Date    *string              `json:"date,omitempty"`
	Players []sharedtypes.PubKey `json:"players,omitempty"`
}

// RoundCreatedPayloadV1 carries the created round and both invite encodings.
type RoundCreatedPayloadV1 struct {
	Round     sharedtypes.Round `json:"round"`
	Invite    string            `json:"invite"`
	InviteURI string            `json:"invite_uri"`
}

// RoundCreateFailedPayloadV1 reports a failed create. When the round was
// persisted but the share publish failed, Invite carries the encoding the
// caller can re-share.
type RoundCreateFailedPayloadV1 struct {
	Reason    string `json:"reason"`
	Retryable bool   `json:"retryable"`
	Invite    string `json:"invite,omitempty"`
}
