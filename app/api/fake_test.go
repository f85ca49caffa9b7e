package api

import (
	"context"

	courseservice "github.com/fairway-collective/roundsync/app/modules/course/application"
	coursequeue "github.com/fairway-collective/roundsync/app/modules/course/infrastructure/queue"
	roundservice "github.com/fairway-collective/roundsync/app/modules/round/application"
	roundevents "github.com/fairway-collective/roundsync/app/shared/events/round"
	"github.com/fairway-collective/roundsync/app/shared/results"
	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// ------------------------
// Fake Round Service
// ------------------------

type FakeRoundService struct {
	JoinFromInviteFunc func(ctx context.Context, inviteCode string) (results.OperationResult, error)
	CreateAndShareFunc func(ctx context.Context, input roundevents.RoundCreateRequestedPayloadV1) (results.OperationResult, error)
	GetRoundFunc       func(ctx context.Context, roundID sharedtypes.RoundID) (results.OperationResult, error)
	ListRoundsFunc     func(ctx context.Context) (results.OperationResult, error)
}

var _ roundservice.Service = (*FakeRoundService)(nil)

func (f *FakeRoundService) JoinFromInvite(ctx context.Context, inviteCode string) (results.OperationResult, error) {
	if f.JoinFromInviteFunc != nil {
		return f.JoinFromInviteFunc(ctx, inviteCode)
	}
	return results.SuccessResult(roundevents.RoundJoinCompletedPayloadV1{}), nil
}

func (f *FakeRoundService) CreateAndShare(ctx context.Context, input roundevents.RoundCreateRequestedPayloadV1) (results.OperationResult, error) {
	if f.CreateAndShareFunc != nil {
		return f.CreateAndShareFunc(ctx, input)
	}
	return results.SuccessResult(roundevents.RoundCreatedPayloadV1{}), nil
}

func (f *FakeRoundService) GetRound(ctx context.Context, roundID sharedtypes.RoundID) (results.OperationResult, error) {
	if f.GetRoundFunc != nil {
		return f.GetRoundFunc(ctx, roundID)
	}
	return results.SuccessResult(sharedtypes.Round{ID: roundID}), nil
}

func (f *FakeRoundService) ListRounds(ctx context.Context) (results.OperationResult, error) {
	if f.ListRoundsFunc != nil {
		return f.ListRoundsFunc(ctx)
	}
	return results.SuccessResult([]sharedtypes.Round{}), nil
}

// ------------------------
// Fake Course Service
// ------------------------

type FakeCourseService struct {
	LoadIfNeededFunc func(ctx context.Context) (results.OperationResult, error)
	RefreshFunc      func(ctx context.Context) (results.OperationResult, error)
}

var _ courseservice.Service = (*FakeCourseService)(nil)

func (f *FakeCourseService) LoadIfNeeded(ctx context.Context) (results.OperationResult, error) {
	if f.LoadIfNeededFunc != nil {
		return f.LoadIfNeededFunc(ctx)
	}
	return results.SuccessResult(sharedtypes.CourseList{}), nil
}

func (f *FakeCourseService) Refresh(ctx context.Context) (results.OperationResult, error) {
	if f.RefreshFunc != nil {
		return f.RefreshFunc(ctx)
	}
	return results.SuccessResult(sharedtypes.CourseList{}), nil
}

// ------------------------
// Fake Queue Service
// ------------------------

type FakeQueueService struct {
	PendingJobsFunc func(ctx context.Context) ([]coursequeue.JobInfo, error)
	HealthCheckFunc func(ctx context.Context) error
}

var _ coursequeue.QueueService = (*FakeQueueService)(nil)

func (f *FakeQueueService) PendingJobs(ctx context.Context) ([]coursequeue.JobInfo, error) {
	if f.PendingJobsFunc != nil {
		return f.PendingJobsFunc(ctx)
	}
	return []coursequeue.JobInfo{}, nil
}

func (f *FakeQueueService) HealthCheck(ctx context.Context) error {
	if f.HealthCheckFunc != nil {
		return f.HealthCheckFunc(ctx)
	}
	return nil
}

func (f *FakeQueueService) Start(ctx context.Context) error { return nil }

func (f *FakeQueueService) Stop(ctx context.Context) error { return nil }
