package coursedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// ErrNotFound is returned when a course is not found.
var ErrNotFound = errors.New("course not found")

// CourseDBImpl is the concrete implementation of the CourseDB interface using bun.
type CourseDBImpl struct {
	DB *bun.DB
}

// UpsertCourses writes the batch in one transaction so readers never observe
// a half-applied reconciliation.
func (db *CourseDBImpl) UpsertCourses(ctx context.Context, courses []*Course) (int, error) {
	if len(courses) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	for _, c := range courses {
		c.UpdatedAt = now
	}

	var written int64
	err := db.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewInsert().
			Model(&courses).
			On("CONFLICT (d_tag) DO UPDATE").
			Set("title = EXCLUDED.title").
			Set("location = EXCLUDED.location").
			Set("raw_json = EXCLUDED.raw_json").
			Set("last_seen_at = EXCLUDED.last_seen_at").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert courses: %w", err)
		}
		written, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(written), nil
}

// ListCourses returns the full cache in stable order: title, then d tag.
func (db *CourseDBImpl) ListCourses(ctx context.Context) ([]*Course, error) {
	var courses []*Course
	err := db.DB.NewSelect().
		Model(&courses).
		Order("title ASC").
		Order("d_tag ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// GetCourse retrieves a single course by its d tag.
func (db *CourseDBImpl) GetCourse(ctx context.Context, dTag sharedtypes.DTag) (*Course, error) {
	course := new(Course)
	err := db.DB.NewSelect().
		Model(course).
		Where("d_tag = ?", dTag).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}
