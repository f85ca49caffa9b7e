package roundservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"github.com/fairway-collective/roundsync/app/modules/invite"
	rounddb "github.com/fairway-collective/roundsync/app/modules/round/infrastructure/repositories"
	roundevents "github.com/fairway-collective/roundsync/app/shared/events/round"
	"github.com/fairway-collective/roundsync/app/shared/results"
	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// ErrInvalidRoundInput is returned when a create request carries a course or
// rules document that is not valid JSON.
var ErrInvalidRoundInput = errors.New("invalid round input")

// maxInviteRelayHints caps how many relay hints get baked into a shared
// invite; more just bloats the code without helping discovery.
const maxInviteRelayHints = 3

// CreateAndShare persists a local round, signs and publishes its initiation
// event, and returns the shareable invite encodings. The event is signed
// before the round is stored so the initiation id is final at commit time;
// a publish failure after the commit is retryable and carries the invite so
// the caller can re-share without recreating anything.
func (s *RoundService) CreateAndShare(ctx context.Context, input roundevents.RoundCreateRequestedPayloadV1) (results.OperationResult, error) {
	return s.withTelemetry(ctx, "CreateAndShare", "", func(ctx context.Context) (results.OperationResult, error) {
		if s.signer == nil {
			return createFailed("", false, ErrSigningUnavailable)
		}

		myPubkey, err := s.ident.PubKey(ctx)
		if err != nil {
			return createFailed("", false, fmt.Errorf("resolve identity: %w", err))
		}
		players := ensureSelf(sharedtypes.NormalizePubKeys(input.Players), myPubkey)

		courseHash, err := canonicalHash(input.Course)
		if err != nil {
			return createFailed("", false, fmt.Errorf("%w: course: %v", ErrInvalidRoundInput, err))
		}
		rulesHash, err := canonicalHash(input.Rules)
		if err != nil {
			return createFailed("", false, fmt.Errorf("%w: rules: %v", ErrInvalidRoundInput, err))
		}

		content, err := json.Marshal(initiationContent{Course: input.Course, Rules: input.Rules})
		if err != nil {
			return createFailed("", false, fmt.Errorf("build content: %w", err))
		}

		evt := &nostr.Event{
			Kind:      sharedtypes.KindRoundInitiation,
			CreatedAt: nostr.Timestamp(s.clock.Now().Unix()),
			Content:   string(content),
			Tags:      buildInitiationTags(courseHash, rulesHash, input.Date, players),
		}
		if err := s.signer.Sign(ctx, evt); err != nil {
			return createFailed("", false, fmt.Errorf("sign initiation: %w", err))
		}
		eventID := sharedtypes.EventID(evt.ID)

		ref := invite.Reference{
			EventID: eventID,
			Relays:  shareHints(s.shareRelays),
			Author:  string(myPubkey),
		}
		inviteCode, err := invite.Format(ref)
		if err != nil {
			return createFailed("", false, fmt.Errorf("encode invite: %w", err))
		}
		inviteURI, err := invite.FormatURI(ref)
		if err != nil {
			return createFailed("", false, fmt.Errorf("encode invite uri: %w", err))
		}

		// Commit locally before sharing: an unpublished round can be
		// re-shared, an unsaved one is lost.
		commitCtx := context.WithoutCancel(ctx)
		round := &rounddb.Round{
			InitiationEventID: eventID,
			CourseHash:        courseHash,
			RulesHash:         rulesHash,
			Players:           players,
			StartDate:         resolveStartDate(input.Date, s.clock),
		}
		persisted, _, err := s.repo.CreateRound(commitCtx, round)
		if err != nil {
			return createFailed("", false, newStorageError("round create", err))
		}

		if err := s.publisher.PublishEvent(commitCtx, evt); err != nil {
			return createFailed(inviteCode, true, fmt.Errorf("share initiation: %w", err))
		}

		return results.SuccessResult(roundevents.RoundCreatedPayloadV1{
			Round:     persisted.ToShared(),
			Invite:    inviteCode,
			InviteURI: inviteURI,
		}), nil
	})
}

// buildInitiationTags assembles the tag set of an initiation event. Hash
// tags are only declared for documents that exist.
func buildInitiationTags(courseHash, rulesHash string, date *string, players []sharedtypes.PubKey) nostr.Tags {
	var tags nostr.Tags
	if courseHash != "" {
		tags = append(tags, nostr.Tag{"course_hash", courseHash})
	}
	if rulesHash != "" {
		tags = append(tags, nostr.Tag{"rules_hash", rulesHash})
	}
	if date != nil && *date != "" {
		tags = append(tags, nostr.Tag{"date", *date})
	}
	for _, p := range players {
		tags = append(tags, nostr.Tag{"p", string(p)})
	}
	return tags
}

func shareHints(relays []string) []string {
	if len(relays) <= maxInviteRelayHints {
		return relays
	}
	return relays[:maxInviteRelayHints]
}

func createFailed(inviteCode string, retryable bool, cause error) (results.OperationResult, error) {
	payload := roundevents.RoundCreateFailedPayloadV1{
		Reason:    cause.Error(),
		Retryable: retryable,
		Invite:    inviteCode,
	}
	return results.FailureResult(payload), cause
}
