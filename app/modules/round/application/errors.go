package roundservice

import (
	"errors"
	"fmt"
)

// ErrWrongEventKind is returned when a fetched event is not a round
// initiation.
var ErrWrongEventKind = errors.New("event is not a round initiation")

// ErrSigningUnavailable is returned by CreateAndShare when the configured
// identity has no secret key.
var ErrSigningUnavailable = errors.New("cannot create rounds: no signing key configured")

// StorageError wraps repository failures so callers can tell persistence
// problems apart from transport problems. Storage failures are never retried
// here.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func newStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// IsStorage reports whether err is (or wraps) a storage failure.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
