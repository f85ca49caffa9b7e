package roundservice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nbd-wtf/go-nostr"
	"go.opentelemetry.io/otel/trace/noop"

	rounddb "github.com/fairway-collective/roundsync/app/modules/round/infrastructure/repositories"
	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
	roundmetrics "github.com/fairway-collective/roundsync/internal/observability/metrics/round"
	"github.com/fairway-collective/roundsync/internal/relay"
)

const (
	testSelfKey  = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testPeerKey  = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	testRemoteID = "5c83da77af1dec6d7289834998ad7aafbd9e2191396d75ec3cc27f5a77226f36"
)

var testNow = time.Date(2025, time.July, 12, 9, 30, 0, 0, time.UTC)

// ------------------------
// Fake round repository
// ------------------------

// FakeRoundDB provides a programmable stub for the rounddb.RoundDB interface.
type FakeRoundDB struct {
	trace []string

	GetByInitiationEventIDFunc func(ctx context.Context, eventID sharedtypes.EventID) (*rounddb.Round, error)
	CreateRoundFunc            func(ctx context.Context, round *rounddb.Round) (*rounddb.Round, bool, error)
	GetRoundFunc               func(ctx context.Context, roundID sharedtypes.RoundID) (*rounddb.Round, error)
	GetCourseHashByRoundIDFunc func(ctx context.Context, roundID sharedtypes.RoundID) (string, error)
	ListRoundsFunc             func(ctx context.Context) ([]*rounddb.Round, error)
}

func (f *FakeRoundDB) record(step string) { f.trace = append(f.trace, step) }

// Trace returns the sequence of repository methods called.
func (f *FakeRoundDB) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeRoundDB) GetByInitiationEventID(ctx context.Context, eventID sharedtypes.EventID) (*rounddb.Round, error) {
	f.record("GetByInitiationEventID")
	if f.GetByInitiationEventIDFunc != nil {
		return f.GetByInitiationEventIDFunc(ctx, eventID)
	}
	return nil, rounddb.ErrNotFound
}

func (f *FakeRoundDB) CreateRound(ctx context.Context, round *rounddb.Round) (*rounddb.Round, bool, error) {
	f.record("CreateRound")
	if f.CreateRoundFunc != nil {
		return f.CreateRoundFunc(ctx, round)
	}
	persisted := *round
	persisted.ID = 1
	persisted.CreatedAt = testNow
	persisted.UpdatedAt = testNow
	return &persisted, true, nil
}

func (f *FakeRoundDB) GetRound(ctx context.Context, roundID sharedtypes.RoundID) (*rounddb.Round, error) {
	f.record("GetRound")
	if f.GetRoundFunc != nil {
		return f.GetRoundFunc(ctx, roundID)
	}
	return nil, rounddb.ErrNotFound
}

func (f *FakeRoundDB) GetCourseHashByRoundID(ctx context.Context, roundID sharedtypes.RoundID) (string, error) {
	f.record("GetCourseHashByRoundID")
	if f.GetCourseHashByRoundIDFunc != nil {
		return f.GetCourseHashByRoundIDFunc(ctx, roundID)
	}
	return "", rounddb.ErrNotFound
}

func (f *FakeRoundDB) ListRounds(ctx context.Context) ([]*rounddb.Round, error) {
	f.record("ListRounds")
	if f.ListRoundsFunc != nil {
		return f.ListRoundsFunc(ctx)
	}
	return nil, nil
}

var _ rounddb.RoundDB = (*FakeRoundDB)(nil)

// ------------------------
// Fake relay fetcher / publisher
// ------------------------

// FakeFetcher provides a programmable stub for the relay.Fetcher interface.
type FakeFetcher struct {
	trace []string

	FetchEventFunc   func(ctx context.Context, id sharedtypes.EventID, relayHints []string) (*nostr.Event, error)
	FetchCoursesFunc func(ctx context.Context) ([]*nostr.Event, error)
}

func (f *FakeFetcher) record(step string) { f.trace = append(f.trace, step) }

// Trace returns the sequence of fetcher methods called.
func (f *FakeFetcher) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeFetcher) FetchEvent(ctx context.Context, id sharedtypes.EventID, relayHints []string) (*nostr.Event, error) {
	f.record("FetchEvent")
	if f.FetchEventFunc != nil {
		return f.FetchEventFunc(ctx, id, relayHints)
	}
	return nil, relay.ErrEventNotFound
}

func (f *FakeFetcher) FetchCourses(ctx context.Context) ([]*nostr.Event, error) {
	f.record("FetchCourses")
	if f.FetchCoursesFunc != nil {
		return f.FetchCoursesFunc(ctx)
	}
	return nil, nil
}

var _ relay.Fetcher = (*FakeFetcher)(nil)

// FakeRelayPublisher captures events handed to the relay side.
type FakeRelayPublisher struct {
	mu     sync.Mutex
	events []*nostr.Event

	PublishEventFunc func(ctx context.Context, evt *nostr.Event) error
}

func (f *FakeRelayPublisher) PublishEvent(ctx context.Context, evt *nostr.Event) error {
	if f.PublishEventFunc != nil {
		return f.PublishEventFunc(ctx, evt)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

// Events returns the captured events.
func (f *FakeRelayPublisher) Events() []*nostr.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*nostr.Event(nil), f.events...)
}

var _ relay.Publisher = (*FakeRelayPublisher)(nil)

// ------------------------
// Fake identity
// ------------------------

// FakeIdentity is a fixed-key identity with programmable signing. The default
// Sign fills the id the way a real signer would, minus the signature.
type FakeIdentity struct {
	Key      sharedtypes.PubKey
	SignFunc func(ctx context.Context, evt *nostr.Event) error
}

func (f *FakeIdentity) PubKey(ctx context.Context) (sharedtypes.PubKey, error) {
	return f.Key, nil
}

func (f *FakeIdentity) Sign(ctx context.Context, evt *nostr.Event) error {
	if f.SignFunc != nil {
		return f.SignFunc(ctx, evt)
	}
	evt.PubKey = string(f.Key)
	evt.ID = evt.GetID()
	evt.Sig = "fakesig"
	return nil
}

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

// FakeClock pins Now for deterministic date resolution.
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

// testDeps bundles the fakes a service test starts from.
type testDeps struct {
	repo      *FakeRoundDB
	fetcher   *FakeFetcher
	publisher *FakeRelayPublisher
	ident     *FakeIdentity
	bus       *FakeBus
	clock     *FakeClock
}

func newTestService() (*RoundService, *testDeps) {
	deps := &testDeps{
		repo:      &FakeRoundDB{},
		fetcher:   &FakeFetcher{},
		publisher: &FakeRelayPublisher{},
		ident:     &FakeIdentity{Key: sharedtypes.PubKey(testSelfKey)},
		bus:       &FakeBus{},
		clock:     &FakeClock{NowFunc: func() time.Time { return testNow }},
	}
	s := &RoundService{
		repo:        deps.repo,
		fetcher:     deps.fetcher,
		publisher:   deps.publisher,
		ident:       deps.ident,
		signer:      deps.ident,
		bus:         deps.bus,
		clock:       deps.clock,
		shareRelays: []string{"wss://relay.test"},
		logger:      slog.New(slog.DiscardHandler),
		metrics:     &roundmetrics.NoOpMetrics{},
		tracer:      noop.NewTracerProvider().Tracer("test"),
	}
	return s, deps
}
