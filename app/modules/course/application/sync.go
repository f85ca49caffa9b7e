package courseservice

import (
	"context"
	"errors"

	coursedb "github.com/fairway-collective/roundsync/app/modules/course/infrastructure/repositories"
	courseevents "github.com/fairway-collective/roundsync/app/shared/events/course"
	"github.com/fairway-collective/roundsync/app/shared/results"
	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
	"github.com/fairway-collective/roundsync/internal/eventutil"
	"github.com/fairway-collective/roundsync/internal/observability/attr"
	"github.com/fairway-collective/roundsync/internal/relay"
)

// refreshKey coalesces every reconciliation through one singleflight slot.
const refreshKey = "course_refresh"

// LoadIfNeeded returns the cached course list without blocking on the
// network. The first call per process arms one background reconciliation;
// every later call is a pure cache read.
func (s *CourseService) LoadIfNeeded(ctx context.Context) (results.OperationResult, error) {
	return s.withTelemetry(ctx, "LoadIfNeeded", func(ctx context.Context) (results.OperationResult, error) {
		rows, err := s.repo.ListCourses(ctx)
		if err != nil {
			return results.OperationResult{}, newStorageError("course list", err)
		}

		s.reconcileOnce.Do(func() {
			// The background pass outlives the request that armed it.
			bgCtx := context.WithoutCancel(ctx)
			go func() {
				if _, err, _ := s.group.Do(refreshKey, func() (any, error) {
					return s.reconcile(bgCtx)
				}); err != nil {
					s.logger.WarnContext(bgCtx, "Background course reconciliation failed",
						attr.ExtractCorrelationID(bgCtx),
						attr.Error(err),
					)
				}
			}()
		})

		return results.SuccessResult(coursedb.CoursesToShared(rows)), nil
	})
}

// Refresh reconciles the cache against the relays and returns the re-read
// list. Overlapping calls share one reconciliation, so two callers can never
// interleave upsert batches.
func (s *CourseService) Refresh(ctx context.Context) (results.OperationResult, error) {
	return s.withTelemetry(ctx, "Refresh", func(ctx context.Context) (results.OperationResult, error) {
		v, err, _ := s.group.Do(refreshKey, func() (any, error) {
			return s.reconcile(ctx)
		})
		if err != nil {
			return s.refreshFailed(ctx, err)
		}
		list, _ := v.(sharedtypes.CourseList)
		return results.SuccessResult(list), nil
	})
}

// reconcile runs one full reconciliation pass: fetch the remote set, decode
// each definition in isolation, upsert by d tag, then re-read the cache for
// the stable merged order. The raw fetch is never returned. The outcome is
// emitted on the bus no matter who triggered the pass.
func (s *CourseService) reconcile(ctx context.Context) (sharedtypes.CourseList, error) {
	fetched, err := s.fetcher.FetchCourses(ctx)
	if err != nil {
		s.publishSyncFailed(ctx, err)
		return nil, err
	}

	now := s.clock.Now().UTC()
	rows := make([]*coursedb.Course, 0, len(fetched))
	skipped := 0
	for _, evt := range fetched {
		course, err := decodeCourse(evt)
		if err != nil {
			skipped++
			s.metrics.RecordItemSkipped(ctx, skipReason(err))
			s.logger.WarnContext(ctx, "Skipping undecodable course definition",
				attr.ExtractCorrelationID(ctx),
				attr.EventID(sharedtypes.EventID(evt.ID)),
				attr.Error(err),
			)
			continue
		}
		course.LastSeenAt = now
		rows = append(rows, course)
	}

	// Last cancellation point before the cache is written.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	commitCtx := context.WithoutCancel(ctx)

	upserted, err := s.repo.UpsertCourses(commitCtx, rows)
	if err != nil {
		serr := newStorageError("course upsert", err)
		s.publishSyncFailed(ctx, serr)
		return nil, serr
	}

	reread, err := s.repo.ListCourses(commitCtx)
	if err != nil {
		serr := newStorageError("course re-read", err)
		s.publishSyncFailed(ctx, serr)
		return nil, serr
	}
	list := coursedb.CoursesToShared(reread)

	s.metrics.RecordReconcile(ctx, len(fetched), upserted, skipped)
	s.publishSyncCompleted(ctx, courseevents.CourseSyncCompletedPayloadV1{
		Fetched:     len(fetched),
		Upserted:    upserted,
		Skipped:     skipped,
		Total:       len(list),
		CompletedAt: now,
	})
	return list, nil
}

// refreshFailed pairs the typed error with a failure payload carrying the
// last-known-good list, so callers keep something to paint.
func (s *CourseService) refreshFailed(ctx context.Context, cause error) (results.OperationResult, error) {
	payload := courseevents.CourseSyncFailedPayloadV1{
		Reason:    cause.Error(),
		Retryable: relay.IsTransport(cause),
		Courses:   s.lastKnownGood(ctx),
	}
	return results.FailureResult(payload), cause
}

// lastKnownGood reads the cached list on a best-effort basis.
func (s *CourseService) lastKnownGood(ctx context.Context) sharedtypes.CourseList {
	rows, err := s.repo.ListCourses(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.WarnContext(ctx, "Could not read last-known-good course list",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
		return nil
	}
	return coursedb.CoursesToShared(rows)
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, ErrWrongCourseKind):
		return "wrong_kind"
	case errors.Is(err, ErrMissingDTag):
		return "missing_d_tag"
	default:
		return "bad_content"
	}
}

// publishSyncCompleted emits the reconciliation summary. Diagnostics never
// fail the operation; publish errors are logged and dropped.
func (s *CourseService) publishSyncCompleted(ctx context.Context, payload courseevents.CourseSyncCompletedPayloadV1) {
	msg, err := eventutil.NewMessage(payload, attr.CorrelationIDFromContext(ctx))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build sync completed message",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
		return
	}
	msg.SetContext(ctx)
	if err := s.bus.Publish(courseevents.CourseSyncCompletedV1, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish sync completed",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
	}
}

// publishSyncFailed emits the reconciliation failure. The bus copy stays
// lean; the cached list only travels on the result returned to callers.
func (s *CourseService) publishSyncFailed(ctx context.Context, cause error) {
	payload := courseevents.CourseSyncFailedPayloadV1{
		Reason:    cause.Error(),
		Retryable: relay.IsTransport(cause),
	}
	msg, err := eventutil.NewMessage(payload, attr.CorrelationIDFromContext(ctx))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build sync failed message",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
		return
	}
	msg.SetContext(ctx)
	if err := s.bus.Publish(courseevents.CourseSyncFailedV1, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish sync failed",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
	}
}
