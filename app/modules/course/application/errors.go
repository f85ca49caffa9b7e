package courseservice

import (
	"errors"
	"fmt"
)

// ErrWrongCourseKind is returned when a fetched event is not a course
// definition.
var ErrWrongCourseKind = errors.New("event is not a course definition")

// ErrMissingDTag is returned when a course definition has no d tag. Without
// the natural key the row cannot be upserted.
var ErrMissingDTag = errors.New("course definition has no d tag")

// StorageError wraps a database failure so callers can distinguish local
// persistence problems from relay transport problems.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func newStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// IsStorage reports whether err is a StorageError anywhere in its chain.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
