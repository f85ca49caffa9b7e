package roundhandlers

import (
	"context"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace/noop"

	roundevents "github.com/fairway-collective/roundsync/app/shared/events/round"
	"github.com/fairway-collective/roundsync/app/shared/results"
	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

func TestRoundHandlers_HandleJoinRequested(t *testing.T) {
	joinErr := context.DeadlineExceeded

	tests := []struct {
		name      string
		payload   *roundevents.RoundJoinRequestedPayloadV1
		setupFake func(*FakeRoundService)
		wantErr   bool
		wantTopic string
		wantLen   int
	}{
		{
			name:    "success - round joined",
			payload: &roundevents.RoundJoinRequestedPayloadV1{Invite: "nevent1example"},
			setupFake: func(f *FakeRoundService) {
				f.JoinFromInviteFunc = func(ctx context.Context, inviteCode string) (results.OperationResult, error) {
					return results.SuccessResult(roundevents.RoundJoinCompletedPayloadV1{
						Round: sharedtypes.Round{ID: 1},
					}), nil
				}
			},
			wantErr:   false,
			wantTopic: roundevents.RoundJoinCompletedV1,
			wantLen:   1,
		},
		{
			name:    "failure - terminal outcome is published and acked",
			payload: &roundevents.RoundJoinRequestedPayloadV1{Invite: "garbage"},
			setupFake: func(f *FakeRoundService) {
				f.JoinFromInviteFunc = func(ctx context.Context, inviteCode string) (results.OperationResult, error) {
					return results.FailureResult(roundevents.RoundJoinFailedPayloadV1{
						Invite: inviteCode,
						Phase:  sharedtypes.RoundPhaseIdle,
						Reason: "invalid invite",
					}), joinErr
				}
			},
			wantErr:   false,
			wantTopic: roundevents.RoundJoinFailedV1,
			wantLen:   1,
		},
		{
			name:    "error - nil payload",
			payload: nil,
			wantErr: true,
			wantLen: 0,
		},
		{
			name:    "error - service error without outcome",
			payload: &roundevents.RoundJoinRequestedPayloadV1{Invite: "nevent1example"},
			setupFake: func(f *FakeRoundService) {
				f.JoinFromInviteFunc = func(ctx context.Context, inviteCode string) (results.OperationResult, error) {
					return results.OperationResult{}, joinErr
				}
			},
			wantErr: true,
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeService := NewFakeRoundService()
			if tt.setupFake != nil {
				tt.setupFake(fakeService)
			}

			logger := slog.New(slog.DiscardHandler)
			tracer := noop.NewTracerProvider().Tracer("test")

			h := NewRoundHandlers(fakeService, logger, tracer)
			res, err := h.HandleJoinRequested(context.Background(), tt.payload)

			if (err != nil) != tt.wantErr {
				t.Errorf("got error %v, want error %v", err, tt.wantErr)
			}

			if len(res) != tt.wantLen {
				t.Errorf("got %d results, want %d", len(res), tt.wantLen)
			}

			if len(res) > 0 && res[0].Topic != tt.wantTopic {
				t.Errorf("got topic %s, want %s", res[0].Topic, tt.wantTopic)
			}
		})
	}
}
