// Package courseevents defines the topics and payloads of the course module.
package courseevents

import (
	"time"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// Course event topics.
const (
	CourseSyncRequestedV1 = "course.sync.requested.v1"
	CourseSyncCompletedV1 = "course.sync.completed.v1"
	CourseSyncFailedV1    = "course.sync.failed.v1"
)

// CourseSyncRequestedPayloadV1 asks the course module to reconcile the local
// cache against the relays.
type CourseSyncRequestedPayloadV1 struct {
	RequestedAt time.Time `json:"requested_at"`
}

// CourseSyncCompletedPayloadV1 summarizes one reconciliation pass. Skipped
// counts remote items that failed to decode and were left out of the upsert.
type CourseSyncCompletedPayloadV1 struct {
	Fetched     int       `json:"fetched"`
	Upserted    int       `json:"upserted"`
	Skipped     int       `json:"skipped"`
	Total       int       `json:"total"`
	CompletedAt time.Time `json:"completed_at"`
}

// CourseSyncFailedPayloadV1 reports a reconciliation that could not complete.
// Courses carries the last-known-good cached list so consumers keep painting
// stale data instead of nothing.
type CourseSyncFailedPayloadV1 struct {
	Reason    string                 `json:"reason"`
	Retryable bool                   `json:"retryable"`
	Courses   sharedtypes.CourseList `json:"courses,omitempty"`
}
