package roundhandlers

import (
	"context"

	roundservice "github.com/fairway-collective/roundsync/app/modules/round/application"
	roundevents "github.com/fairway-collective/roundsync/app/shared/events/round"
	"github.com/fairway-collective/roundsync/app/shared/results"
	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// ------------------------
// Fake Round Service
// ------------------------

// FakeRoundService provides a programmable stub for the roundservice.Service
// interface. Use this when testing handlers that depend on the round service.
type FakeRoundService struct {
	trace []string

	JoinFromInviteFunc func(ctx context.Context, inviteCode string) (results.OperationResult, error)
	CreateAndShareFunc func(ctx context.Context, input roundevents.RoundCreateRequestedPayloadV1) (results.OperationResult, error)
	GetRoundFunc       func(ctx context.Context, roundID sharedtypes.RoundID) (results.OperationResult, error)
	ListRoundsFunc     func(ctx context.Context) (results.OperationResult, error)
}

// NewFakeRoundService initializes a new FakeRoundService.
func NewFakeRoundService() *FakeRoundService {
	return &FakeRoundService{
		trace: []string{},
	}
}

func (f *FakeRoundService) record(step string) {
	f.trace = append(f.trace, step)
}

// Trace returns the sequence of service methods called.
func (f *FakeRoundService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeRoundService) JoinFromInvite(ctx context.Context, inviteCode string) (results.OperationResult, error) {
	f.record("JoinFromInvite")
	if f.JoinFromInviteFunc != nil {
		return f.JoinFromInviteFunc(ctx, inviteCode)
	}
	return results.OperationResult{}, nil
}

func (f *FakeRoundService) CreateAndShare(ctx context.Context, input roundevents.RoundCreateRequestedPayloadV1) (results.OperationResult, error) {
	f.record("CreateAndShare")
	if f.CreateAndShareFunc != nil {
		return f.CreateAndShareFunc(ctx, input)
	}
	return results.OperationResult{}, nil
}

func (f *FakeRoundService) GetRound(ctx context.Context, roundID sharedtypes.RoundID) (results.OperationResult, error) {
	f.record("GetRound")
	if f.GetRoundFunc != nil {
		return f.GetRoundFunc(ctx, roundID)
	}
	return results.OperationResult{}, nil
}

func (f *FakeRoundService) ListRounds(ctx context.Context) (results.OperationResult, error) {
	f.record("ListRounds")
	if f.ListRoundsFunc != nil {
		return f.ListRoundsFunc(ctx)
	}
	return results.OperationResult{}, nil
}

// Ensure the fake satisfies the Service interface
var _ roundservice.Service = (*FakeRoundService)(nil)
