package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/nbd-wtf/go-nostr"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
	"github.com/fairway-collective/roundsync/internal/relay"
)

// StubFetcher is an in-memory relay fetcher. Tests stock it with events and
// inject failures instead of talking to real relays.
type StubFetcher struct {
	mu sync.Mutex

	events  map[sharedtypes.EventID]*nostr.Event
	courses []*nostr.Event

	// FetchEventErr and FetchCoursesErr, when set, fail the corresponding
	// call before any lookup happens.
	FetchEventErr   error
	FetchCoursesErr error

	fetchEventCalls   int
	fetchCoursesCalls int
}

var _ relay.Fetcher = (*StubFetcher)(nil)

// NewStubFetcher returns an empty fetcher.
func NewStubFetcher() *StubFetcher {
	return &StubFetcher{events: make(map[sharedtypes.EventID]*nostr.Event)}
}

// AddEvent makes evt retrievable by its id.
func (f *StubFetcher) AddEvent(evt *nostr.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[sharedtypes.EventID(evt.ID)] = evt
}

// SetCourses replaces the course set returned by FetchCourses.
func (f *StubFetcher) SetCourses(events ...*nostr.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courses = events
}

// SetFetchCoursesErr arms or clears a FetchCourses failure.
func (f *StubFetcher) SetFetchCoursesErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FetchCoursesErr = err
}

// FetchEvent returns a stocked event or relay.ErrEventNotFound.
func (f *StubFetcher) FetchEvent(ctx context.Context, id sharedtypes.EventID, relayHints []string) (*nostr.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchEventCalls++
	if f.FetchEventErr != nil {
		return nil, f.FetchEventErr
	}
	evt, ok := f.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", relay.ErrEventNotFound, id)
	}
	return evt, nil
}

// FetchCourses returns the stocked course set.
func (f *StubFetcher) FetchCourses(ctx context.Context) ([]*nostr.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCoursesCalls++
	if f.FetchCoursesErr != nil {
		return nil, f.FetchCoursesErr
	}
	out := make([]*nostr.Event, len(f.courses))
	copy(out, f.courses)
	return out, nil
}

// FetchEventCalls reports how many times FetchEvent ran, for asserting that
// local lookups short-circuit the network.
func (f *StubFetcher) FetchEventCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchEventCalls
}

// FetchCoursesCalls reports how many times FetchCourses ran.
func (f *StubFetcher) FetchCoursesCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCoursesCalls
}

// StubPublisher records published events in order.
type StubPublisher struct {
	mu sync.Mutex

	published []*nostr.Event

	// PublishErr, when set, fails every publish.
	PublishErr error
}

var _ relay.Publisher = (*StubPublisher)(nil)

// NewStubPublisher returns an empty publisher.
func NewStubPublisher() *StubPublisher {
	return &StubPublisher{}
}

// PublishEvent records evt unless a failure is armed.
func (p *StubPublisher) PublishEvent(ctx context.Context, evt *nostr.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PublishErr != nil {
		return p.PublishErr
	}
	p.published = append(p.published, evt)
	return nil
}

// Published returns the recorded events in publish order.
func (p *StubPublisher) Published() []*nostr.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*nostr.Event, len(p.published))
	copy(out, p.published)
	return out
}
