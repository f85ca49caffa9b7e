package roundservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/fairway-collective/roundsync/app/modules/invite"
	rounddb "github.com/fairway-collective/roundsync/app/modules/round/infrastructure/repositories"
	roundevents "github.com/fairway-collective/roundsync/app/shared/events/round"
	"github.com/fairway-collective/roundsync/app/shared/results"
	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
	"github.com/fairway-collective/roundsync/internal/eventutil"
	"github.com/fairway-collective/roundsync/internal/observability/attr"
	"github.com/fairway-collective/roundsync/internal/relay"
)

const (
	joinOutcomeJoined        = "joined"
	joinOutcomeAlreadyJoined = "already_joined"
	joinOutcomeFailed        = "failed"
)

// JoinFromInvite runs the full join flow for an invite code: parse, local
// idempotency check, remote fetch, decode, advisory hash verification,
// idempotent commit. Each phase transition is published on the bus as it
// happens.
func (s *RoundService) JoinFromInvite(ctx context.Context, inviteCode string) (results.OperationResult, error) {
	return s.withTelemetry(ctx, "JoinFromInvite", inviteCode, func(ctx context.Context) (results.OperationResult, error) {
		ref, err := invite.Parse(inviteCode)
		if err != nil {
			return s.joinFailed(ctx, inviteCode, "", sharedtypes.RoundPhaseIdle, err)
		}
		eventID := ref.EventID

		// Idempotency check before any network work: a known initiation id
		// resolves locally no matter how its invite arrived.
		existing, err := s.repo.GetByInitiationEventID(ctx, eventID)
		if err != nil && !errors.Is(err, rounddb.ErrNotFound) {
			return s.joinFailed(ctx, inviteCode, eventID, sharedtypes.RoundPhaseIdle, newStorageError("round lookup", err))
		}
		if existing != nil {
			s.metrics.RecordJoinOutcome(ctx, joinOutcomeAlreadyJoined)
			s.publishProgress(ctx, sharedtypes.RoundPhaseDone, eventID)
			return results.SuccessResult(roundevents.RoundJoinCompletedPayloadV1{
				Round:         existing.ToShared(),
				AlreadyJoined: true,
			}), nil
		}

		s.publishProgress(ctx, sharedtypes.RoundPhaseFetching, eventID)
		evt, err := s.fetcher.FetchEvent(ctx, eventID, ref.Relays)
		if err != nil {
			return s.joinFailed(ctx, inviteCode, eventID, sharedtypes.RoundPhaseFetching, err)
		}

		s.publishProgress(ctx, sharedtypes.RoundPhaseVerifying, eventID)
		record, ignoredTags, err := decodeInitiation(evt)
		if err != nil {
			return s.joinFailed(ctx, inviteCode, eventID, sharedtypes.RoundPhaseVerifying, err)
		}
		if len(ignoredTags) > 0 {
			s.logger.DebugContext(ctx, "Ignoring unknown initiation tags",
				attr.ExtractCorrelationID(ctx),
				attr.EventID(eventID),
				attr.Any("tags", ignoredTags),
			)
		}

		report := verifyContentHashes(record.RawContent, record.CourseHash, record.RulesHash)
		s.reportMismatches(ctx, eventID, report)

		// Last cancellation point. Once the commit is issued it runs to
		// completion so no partial row is left behind.
		if err := ctx.Err(); err != nil {
			return s.joinFailed(ctx, inviteCode, eventID, sharedtypes.RoundPhaseVerifying, err)
		}

		commitCtx := context.WithoutCancel(ctx)
		s.publishProgress(commitCtx, sharedtypes.RoundPhaseCommitting, eventID)
		persisted, created, err := s.commitJoin(commitCtx, eventID, record)
		if err != nil {
			return s.joinFailed(commitCtx, inviteCode, eventID, sharedtypes.RoundPhaseCommitting, err)
		}

		if created {
			s.metrics.RecordJoinOutcome(ctx, joinOutcomeJoined)
		} else {
			s.metrics.RecordJoinOutcome(ctx, joinOutcomeAlreadyJoined)
		}
		s.publishProgress(commitCtx, sharedtypes.RoundPhaseDone, eventID)
		return results.SuccessResult(roundevents.RoundJoinCompletedPayloadV1{
			Round:         persisted.ToShared(),
			AlreadyJoined: !created,
			Warnings:      report.Warnings(),
		}), nil
	})
}

// commitJoin materializes the decoded record as the local round row. Callers
// pass a non-cancelable context.
func (s *RoundService) commitJoin(ctx context.Context, eventID sharedtypes.EventID, record sharedtypes.InitiationRecord) (*rounddb.Round, bool, error) {
	myPubkey, err := s.ident.PubKey(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("resolve identity: %w", err)
	}

	round := &rounddb.Round{
		InitiationEventID: eventID,
		CourseHash:        record.CourseHash,
		RulesHash:         record.RulesHash,
		Players:           ensureSelf(record.Players, myPubkey),
		StartDate:         resolveStartDate(record.Date, s.clock),
	}
	persisted, created, err := s.repo.CreateRound(ctx, round)
	if err != nil {
		return nil, false, newStorageError("round create", err)
	}
	return persisted, created, nil
}

// joinFailed publishes the failed progress transition and pairs the failure
// payload with its typed cause.
func (s *RoundService) joinFailed(ctx context.Context, inviteCode string, eventID sharedtypes.EventID, phase sharedtypes.RoundPhase, cause error) (results.OperationResult, error) {
	s.metrics.RecordJoinOutcome(ctx, joinOutcomeFailed)
	s.publishProgress(ctx, sharedtypes.RoundPhaseFailed, eventID)
	payload := roundevents.RoundJoinFailedPayloadV1{
		Invite:    inviteCode,
		Phase:     phase,
		Reason:    cause.Error(),
		Retryable: relay.IsTransport(cause),
	}
	if errors.Is(cause, relay.ErrEventNotFound) {
		payload.Hint = "the event may still be propagating through the relay network; retrying later can succeed"
	}
	return results.FailureResult(payload), cause
}

// ensureSelf guarantees the local player is on the list, prepended when the
// initiation did not include them.
func ensureSelf(players []sharedtypes.PubKey, self sharedtypes.PubKey) []sharedtypes.PubKey {
	if sharedtypes.ContainsPubKey(players, self) {
		return players
	}
	out := make([]sharedtypes.PubKey, 0, len(players)+1)
	out = append(out, self)
	return append(out, players...)
}

// publishProgress emits one phase transition on the bus. Diagnostics never
// fail the operation; publish errors are logged and dropped.
func (s *RoundService) publishProgress(ctx context.Context, phase sharedtypes.RoundPhase, eventID sharedtypes.EventID) {
	payload := roundevents.RoundJoinProgressPayloadV1{
		Phase:             phase,
		InitiationEventID: eventID,
		OccurredAt:        s.clock.Now().UTC(),
	}
	msg, err := eventutil.NewMessage(payload, attr.CorrelationIDFromContext(ctx))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build progress message",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
		return
	}
	msg.SetContext(ctx)
	if err := s.bus.Publish(roundevents.RoundJoinProgressV1, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish join progress",
			attr.ExtractCorrelationID(ctx),
			attr.Phase(phase),
			attr.Error(err),
		)
	}
}

// reportMismatches logs, counts, and publishes each advisory hash mismatch.
// The embedded content stays authoritative; nothing here aborts the join.
func (s *RoundService) reportMismatches(ctx context.Context, eventID sharedtypes.EventID, report VerifyReport) {
	for _, m := range report.Mismatches() {
		s.logger.WarnContext(ctx, "Content hash mismatch",
			attr.ExtractCorrelationID(ctx),
			attr.EventID(eventID),
			attr.String("field", m.Field),
			attr.String("declared", m.Declared),
			attr.String("computed", m.Computed),
		)
		s.metrics.RecordHashMismatch(ctx, m.Field)

		payload := roundevents.RoundHashMismatchPayloadV1{
			InitiationEventID: eventID,
			Field:             m.Field,
			Declared:          m.Declared,
			Computed:          m.Computed,
		}
		msg, err := eventutil.NewMessage(payload, attr.CorrelationIDFromContext(ctx))
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to build hash mismatch message",
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			continue
		}
		msg.SetContext(ctx)
		if err := s.bus.Publish(roundevents.RoundHashMismatchV1, msg); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish hash mismatch",
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
		}
	}
}
