package roundhandlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace/noop"

	roundevents "github.com/fairway-collective/roundsync/app/shared/events/round"
	"github.com/fairway-collective/roundsync/app/shared/results"
	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

func TestRoundHandlers_HandleCreateRequested(t *testing.T) {
	createErr := context.DeadlineExceeded

	tests := []struct {
		name      string
		payload   *roundevents.RoundCreateRequestedPayloadV1
		setupFake func(*FakeRoundService)
		wantErr   bool
		wantTopic string
		wantLen   int
	}{
		{
			name: "success - round created and shared",
			payload: &roundevents.RoundCreateRequestedPayloadV1{
				Course: json.RawMessage(`{"name":"Pine Hollow"}`),
			},
			setupFake: func(f *FakeRoundService) {
				f.CreateAndShareFunc = func(ctx context.Context, input roundevents.RoundCreateRequestedPayloadV1) (results.OperationResult, error) {
					return results.SuccessResult(roundevents.RoundCreatedPayloadV1{
						Round:  sharedtypes.Round{ID: 1},
						Invite: "nevent1example",
					}), nil
				}
			},
			wantErr:   false,
			wantTopic: roundevents.RoundCreatedV1,
			wantLen:   1,
		},
		{
			name:    "failure - create failure is published and acked",
			payload: &roundevents.RoundCreateRequestedPayloadV1{},
			setupFake: func(f *FakeRoundService) {
				f.CreateAndShareFunc = func(ctx context.Context, input roundevents.RoundCreateRequestedPayloadV1) (results.OperationResult, error) {
					return results.FailureResult(roundevents.RoundCreateFailedPayloadV1{
						Reason: "no signing key configured",
					}), createErr
				}
			},
			wantErr:   false,
			wantTopic: roundevents.RoundCreateFailedV1,
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
			payload: &roundevents.RoundCreateRequestedPayloadV1{},
			setupFake: func(f *FakeRoundService) {
				f.CreateAndShareFunc = func(ctx context.Context, input roundevents.RoundCreateRequestedPayloadV1) (results.OperationResult, error) {
					return results.OperationResult{}, createErr
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
			res, err := h.HandleCreateRequested(context.Background(), tt.payload)

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
