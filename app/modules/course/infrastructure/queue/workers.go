package coursequeue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	courseservice "github.com/fairway-collective/roundsync/app/modules/course/application"
	"github.com/fairway-collective/roundsync/internal/observability/attr"
)

// CourseRefreshWorker executes scheduled course cache reconciliations.
type CourseRefreshWorker struct {
	river.WorkerDefaults[CourseRefreshJob]
	logger  *slog.Logger
	service courseservice.Service
}

// NewCourseRefreshWorker creates a worker bound to the course service.
func NewCourseRefreshWorker(logger *slog.Logger, service courseservice.Service) *CourseRefreshWorker {
	return &CourseRefreshWorker{
		logger:  logger,
		service: service,
	}
}

// Work performs one reconciliation. The coordinator publishes the outcome
// events itself; returning an error only hands retry scheduling to River.
func (w *CourseRefreshWorker) Work(ctx context.Context, job *river.Job[CourseRefreshJob]) error {
	w.logger.InfoContext(ctx, "Running scheduled course refresh",
		attr.Int64("job_id", job.ID),
		attr.Int("attempt", job.Attempt),
	)

	if _, err := w.service.Refresh(ctx); err != nil {
		return fmt.Errorf("course refresh job: %w", err)
	}
	return nil
}
