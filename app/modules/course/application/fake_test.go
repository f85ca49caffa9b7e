package courseservice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nbd-wtf/go-nostr"
	"go.opentelemetry.io/otel/trace/noop"

	coursedb "github.com/fairway-collective/roundsync/app/modules/course/infrastructure/repositories"
	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
	coursemetrics "github.com/fairway-collective/roundsync/internal/observability/metrics/course"
	"github.com/fairway-collective/roundsync/internal/relay"
)

var testNow = time.Date(2025, time.July, 12, 9, 30, 0, 0, time.UTC)

// ------------------------
// Fake course repository
// ------------------------

// FakeCourseDB provides a programmable stub for the coursedb.CourseDB
// interface. Every method is safe for concurrent use because the coordinator
// reconciles from background goroutines.
type FakeCourseDB struct {
	mu       sync.Mutex
	trace    []string
	upserted [][]*coursedb.Course

	UpsertCoursesFunc func(ctx context.Context, courses []*coursedb.Course) (int, error)
	ListCoursesFunc   func(ctx context.Context) ([]*coursedb.Course, error)
	GetCourseFunc     func(ctx context.Context, dTag sharedtypes.DTag) (*coursedb.Course, error)
}

func (f *FakeCourseDB) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// Trace returns the sequence of repository methods called.
func (f *FakeCourseDB) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Upserted returns the batches handed to UpsertCourses.
func (f *FakeCourseDB) Upserted() [][]*coursedb.Course {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]*coursedb.Course(nil), f.upserted...)
}

func (f *FakeCourseDB) UpsertCourses(ctx context.Context, courses []*coursedb.Course) (int, error) {
	f.record("UpsertCourses")
	f.mu.Lock()
	f.upserted = append(f.upserted, courses)
	f.mu.Unlock()
	if f.UpsertCoursesFunc != nil {
		return f.UpsertCoursesFunc(ctx, courses)
	}
	return len(courses), nil
}

func (f *FakeCourseDB) ListCourses(ctx context.Context) ([]*coursedb.Course, error) {
	f.record("ListCourses")
	if f.ListCoursesFunc != nil {
		return f.ListCoursesFunc(ctx)
	}
	return nil, nil
}

func (f *FakeCourseDB) GetCourse(ctx context.Context, dTag sharedtypes.DTag) (*coursedb.Course, error) {
	f.record("GetCourse")
	if f.GetCourseFunc != nil {
		return f.GetCourseFunc(ctx, dTag)
	}
	return nil, coursedb.ErrNotFound
}

var _ coursedb.CourseDB = (*FakeCourseDB)(nil)

// ------------------------
// Fake relay fetcher
// ------------------------

// FakeCourseFetcher provides a programmable stub for the relay.Fetcher
// interface, counting calls so coalescing can be asserted.
type FakeCourseFetcher struct {
	mu          sync.Mutex
	eventCalls  int
	courseCalls int

	FetchEventFunc   func(ctx context.Context, id sharedtypes.EventID, relayHints []string) (*nostr.Event, error)
	FetchCoursesFunc func(ctx context.Context) ([]*nostr.Event, error)
}

// CourseCalls returns how many times FetchCourses ran.
func (f *FakeCourseFetcher) CourseCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.courseCalls
}

func (f *FakeCourseFetcher) FetchEvent(ctx context.Context, id sharedtypes.EventID, relayHints []string) (*nostr.Event, error) {
	f.mu.Lock()
	f.eventCalls++
	f.mu.Unlock()
	if f.FetchEventFunc != nil {
		return f.FetchEventFunc(ctx, id, relayHints)
	}
	return nil, relay.ErrEventNotFound
}

func (f *FakeCourseFetcher) FetchCourses(ctx context.Context) ([]*nostr.Event, error) {
	f.mu.Lock()
	f.courseCalls++
	f.mu.Unlock()
	if f.FetchCoursesFunc != nil {
		return f.FetchCoursesFunc(ctx)
	}
	return nil, nil
}

var _ relay.Fetcher = (*FakeCourseFetcher)(nil)

// ------------------------
// Fake bus
// ------------------------

// FakeBus captures published messages by topic.
type FakeBus struct {
	mu        sync.Mutex
	published map[string][]*message.Message

	PublishFunc func(topic string, messages ...*message.Message) error
}

func (f *FakeBus) Publish(topic string, messages ...*message.Message) error {
	if f.PublishFunc != nil {
		return f.PublishFunc(topic, messages...)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.published == nil {
		f.published = make(map[string][]*message.Message)
	}
	f.published[topic] = append(f.published[topic], messages...)
	return nil
}

func (f *FakeBus) Close() error { return nil }

// Published returns the messages captured for topic.
func (f *FakeBus) Published(topic string) []*message.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*message.Message(nil), f.published[topic]...)
}

var _ message.Publisher = (*FakeBus)(nil)

// ------------------------
// Fake clock
// ------------------------

// FakeClock pins Now for deterministic reconciliation timestamps.
type FakeClock struct {
	NowFunc func() time.Time
}

func (f *FakeClock) Now() time.Time {
	if f.NowFunc != nil {
		return f.NowFunc()
	}
	return time.Now()
}

// ------------------------
// Service under test
// ------------------------

// testDeps bundles the fakes a coordinator test starts from.
type testDeps struct {
	repo    *FakeCourseDB
	fetcher *FakeCourseFetcher
	bus     *FakeBus
	clock   *FakeClock
}

func newTestService() (*CourseService, *testDeps) {
	deps := &testDeps{
		repo:    &FakeCourseDB{},
		fetcher: &FakeCourseFetcher{},
		bus:     &FakeBus{},
		clock:   &FakeClock{NowFunc: func() time.Time { return testNow }},
	}
	s := &CourseService{
		repo:    deps.repo,
		fetcher: deps.fetcher,
		bus:     deps.bus,
		clock:   deps.clock,
		logger:  slog.New(slog.DiscardHandler),
		metrics: &coursemetrics.NoOpMetrics{},
		tracer:  noop.NewTracerProvider().Tracer("test"),
	}
	return s, deps
}
