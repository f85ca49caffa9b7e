package coursedb

import (
	"context"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// CourseDB defines the contract for course cache persistence.
//
// Error semantics:
//   - ErrNotFound: record does not exist (GetCourse)
//   - Other errors: infrastructure failures (DB connection, query errors)
type CourseDB interface {
	// UpsertCourses writes the batch in one transaction, inserting new d
	// tags and updating existing ones in place. Returns the number of rows
	// written. An empty batch is a no-op.
	UpsertCourses(ctx context.Context, courses []*Course) (int, error)

	// ListCourses returns the full cache in stable order: title, then d tag.
	ListCourses(ctx context.Context) ([]*Course, error)

	// GetCourse retrieves a single course by its d tag.
	GetCourse(ctx context.Context, dTag sharedtypes.DTag) (*Course, error)
}
