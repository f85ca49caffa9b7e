package coursehandlers

import (
	"context"
	"sync"

	courseservice "github.com/fairway-collective/roundsync/app/modules/course/application"
	"github.com/fairway-collective/roundsync/app/shared/results"
)

// ------------------------
// Fake Course Service
// ------------------------

// FakeCourseService provides a programmable stub for the courseservice.Service
// interface. Use this when testing handlers that depend on the course service.
type FakeCourseService struct {
	mu    sync.Mutex
	trace []string

	LoadIfNeededFunc func(ctx context.Context) (results.OperationResult, error)
	RefreshFunc      func(ctx context.Context) (results.OperationResult, error)
}

// NewFakeCourseService initializes a new FakeCourseService.
func NewFakeCourseService() *FakeCourseService {
	return &FakeCourseService{
		trace: []string{},
	}
}

func (f *FakeCourseService) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// Trace returns the sequence of service methods called.
func (f *FakeCourseService) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeCourseService) LoadIfNeeded(ctx context.Context) (results.OperationResult, error) {
	f.record("LoadIfNeeded")
	if f.LoadIfNeededFunc != nil {
		return f.LoadIfNeededFunc(ctx)
	}
	return results.OperationResult{}, nil
}

func (f *FakeCourseService) Refresh(ctx context.Context) (results.OperationResult, error) {
	f.record("Refresh")
	if f.RefreshFunc != nil {
		return f.RefreshFunc(ctx)
	}
	return results.OperationResult{}, nil
}

// Ensure the fake satisfies the Service interface
var _ courseservice.Service = (*FakeCourseService)(nil)
