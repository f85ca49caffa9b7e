// Package relay adapts the Nostr relay pool behind narrow fetch and publish
// interfaces. Connection pooling, signature checks, and key handling stay on
// this side of the boundary; callers see events or typed errors.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nbd-wtf/go-nostr"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// ErrEventNotFound means every queried relay answered and none had the
// event. It is terminal for the requesting operation; the event may still be
// propagating through the relay network.
var ErrEventNotFound = errors.New("relay: event not found")

// TransportError wraps a network-level failure: nothing authoritative was
// learned and the operation may be retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("relay: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError wraps err as a TransportError for op.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Fetcher retrieves signed events from the relay set. Implementations return
// only signature-valid events whose ids match the request.
type Fetcher interface {
	// FetchEvent retrieves one event by id. relayHints are queried in
	// addition to the configured relay set.
	FetchEvent(ctx context.Context, id sharedtypes.EventID, relayHints []string) (*nostr.Event, error)
	// FetchCourses retrieves the current course definition set published by
	// the configured authors, newest version per d tag.
	FetchCourses(ctx context.Context) ([]*nostr.Event, error)
}

// Publisher sends a signed event to the configured relay set.
type Publisher interface {
	PublishEvent(ctx context.Context, evt *nostr.Event) error
}

// Config configures the pool client.
type Config struct {
	// URLs is the configured relay set.
	URLs []string
	// CourseAuthors are the pubkeys whose course definitions are trusted.
	CourseAuthors []string
	// QueryTimeout bounds a single fetch across all relays.
	QueryTimeout time.Duration
	// RequestsPerSecond and Burst feed the shared fetch limiter.
	RequestsPerSecond float64
	Burst             int
}

// Validate fills defaults and rejects an empty relay set.
func (c *Config) Validate() error {
	if len(c.URLs) == 0 {
		return errors.New("relay: at least one relay url is required")
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 10 * time.Second
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 5
	}
	if c.Burst <= 0 {
		c.Burst = 10
	}
	return nil
}
