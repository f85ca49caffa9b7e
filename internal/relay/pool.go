package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
	"github.com/fairway-collective/roundsync/internal/observability/attr"
	relaymetrics "github.com/fairway-collective/roundsync/internal/observability/metrics/relay"
)

// PoolClient implements Fetcher and Publisher on a shared relay pool. All
// queries pass through one rate limiter so a burst of joins cannot hammer
// the relay set.
type PoolClient struct {
	pool    *nostr.SimplePool
	cfg     Config
	cache   EventCache
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics relaymetrics.RelayMetrics
	tracer  trace.Tracer
}

var (
	_ Fetcher   = (*PoolClient)(nil)
	_ Publisher = (*PoolClient)(nil)
)

// NewPoolClient builds a pool client. cache may be nil, which disables the
// read-through event cache.
func NewPoolClient(
	ctx context.Context,
	cfg Config,
	cache EventCache,
	logger *slog.Logger,
	metrics relaymetrics.RelayMetrics,
	tracer trace.Tracer,
) (*PoolClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &PoolClient{
		pool:    nostr.NewSimplePool(ctx),
		cfg:     cfg,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}, nil
}

// FetchEvent retrieves one event by id, consulting the cache first. A closed
// subscription with every relay answered means the event does not exist;
// a timeout or unreachable relay set is a transport failure.
func (c *PoolClient) FetchEvent(ctx context.Context, id sharedtypes.EventID, relayHints []string) (*nostr.Event, error) {
	ctx, span := c.tracer.Start(ctx, "relay.FetchEvent")
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, NewTransportError("rate limit wait", err)
	}

	if c.cache != nil {
		evt, ok, err := c.cache.Get(ctx, id)
		if err != nil {
			c.logger.DebugContext(ctx, "Event cache read failed", attr.EventID(id), attr.Error(err))
		}
		if ok {
			c.metrics.RecordCacheHit(ctx)
			return evt, nil
		}
		c.metrics.RecordCacheMiss(ctx)
	}

	urls := c.mergeURLs(relayHints)
	if c.connectedRelays(urls) == 0 {
		c.metrics.RecordFetch(ctx, relaymetrics.OutcomeTransportError)
		return nil, NewTransportError("connect", fmt.Errorf("no reachable relay among %d configured", len(urls)))
	}

	queryCtx, cancel := context.WithTimeout(ctx, c.cfg.QueryTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		c.metrics.RecordFetchDuration(ctx, time.Since(start))
	}()

	filter := nostr.Filter{IDs: []string{string(id)}, Limit: 1}
	events := c.pool.SubManyEose(queryCtx, urls, nostr.Filters{filter})
	for ev := range events {
		if ev.Event == nil || ev.Event.ID != string(id) {
			continue
		}
		if ok, err := ev.Event.CheckSignature(); err != nil || !ok {
			c.logger.WarnContext(ctx, "Dropping event with bad signature", attr.EventID(id))
			continue
		}

		if c.cache != nil {
			if err := c.cache.Set(ctx, ev.Event); err != nil {
				c.logger.DebugContext(ctx, "Event cache write failed", attr.EventID(id), attr.Error(err))
			}
		}
		c.metrics.RecordFetch(ctx, relaymetrics.OutcomeFound)
		return ev.Event, nil
	}

	// The subscription closed without a match. If the deadline expired we
	// cannot distinguish "absent" from "not yet seen", so report transport.
	if err := queryCtx.Err(); err != nil {
		c.metrics.RecordFetch(ctx, relaymetrics.OutcomeTransportError)
		return nil, NewTransportError("fetch event", err)
	}

	c.metrics.RecordFetch(ctx, relaymetrics.OutcomeNotFound)
	return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
}

// FetchCourses retrieves the current course set from the configured authors,
// keeping only the newest version per (author, d tag).
func (c *PoolClient) FetchCourses(ctx context.Context) ([]*nostr.Event, error) {
	ctx, span := c.tracer.Start(ctx, "relay.FetchCourses")
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, NewTransportError("rate limit wait", err)
	}

	urls := c.mergeURLs(nil)
	if c.connectedRelays(urls) == 0 {
		c.metrics.RecordFetch(ctx, relaymetrics.OutcomeTransportError)
		return nil, NewTransportError("connect", fmt.Errorf("no reachable relay among %d configured", len(urls)))
	}

	queryCtx, cancel := context.WithTimeout(ctx, c.cfg.QueryTimeout)
	defer cancel()

	filter := nostr.Filter{
		Kinds:   []int{sharedtypes.KindCourseDefinition},
		Authors: c.cfg.CourseAuthors,
	}

	start := time.Now()
	defer func() {
		c.metrics.RecordFetchDuration(ctx, time.Since(start))
	}()

	var out []*nostr.Event
	index := make(map[string]int)

	events := c.pool.SubManyEose(queryCtx, urls, nostr.Filters{filter})
	for ev := range events {
		if ev.Event == nil {
			continue
		}
		if ok, err := ev.Event.CheckSignature(); err != nil || !ok {
			c.logger.WarnContext(ctx, "Dropping course event with bad signature", attr.String("event_id", ev.Event.ID))
			continue
		}

		d := firstTagValue(ev.Event, "d")
		if d == "" {
			// Keep it; the decoder reports it as skipped.
			out = append(out, ev.Event)
			continue
		}

		key := ev.Event.PubKey + "\x00" + d
		if i, ok := index[key]; ok {
			if ev.Event.CreatedAt > out[i].CreatedAt {
				out[i] = ev.Event
			}
			continue
		}
		index[key] = len(out)
		out = append(out, ev.Event)
	}

	if err := queryCtx.Err(); err != nil {
		// A partial set must not masquerade as the full remote state.
		c.metrics.RecordFetch(ctx, relaymetrics.OutcomeTransportError)
		return nil, NewTransportError("fetch courses", err)
	}

	c.metrics.RecordFetch(ctx, relaymetrics.OutcomeFound)
	return out, nil
}

// PublishEvent sends evt to every configured relay and succeeds when at
// least one accepts it.
func (c *PoolClient) PublishEvent(ctx context.Context, evt *nostr.Event) error {
	ctx, span := c.tracer.Start(ctx, "relay.PublishEvent")
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return NewTransportError("rate limit wait", err)
	}

	var (
		accepted int
		errs     []error
	)
	for _, url := range c.mergeURLs(nil) {
		r, err := c.pool.EnsureRelay(url)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			continue
		}
		if err := r.Publish(ctx, *evt); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			continue
		}
		accepted++
	}

	if accepted == 0 {
		c.metrics.RecordPublish(ctx, relaymetrics.OutcomeTransportError)
		return NewTransportError("publish", errors.Join(errs...))
	}

	c.logger.InfoContext(ctx, "Published event",
		attr.String("event_id", evt.ID),
		attr.Int("accepted", accepted),
		attr.Int("failed", len(errs)),
	)
	c.metrics.RecordPublish(ctx, relaymetrics.OutcomeFound)
	return nil
}

// connectedRelays dials each url through the pool and counts successes.
func (c *PoolClient) connectedRelays(urls []string) int {
	connected := 0
	for _, url := range urls {
		if _, err := c.pool.EnsureRelay(url); err != nil {
			c.logger.DebugContext(context.Background(), "Relay unreachable",
				attr.String("relay", url),
				attr.Error(err),
			)
			continue
		}
		connected++
	}
	return connected
}

// mergeURLs combines the configured relay set with per-call hints,
// normalized and de-duplicated, configured relays first.
func (c *PoolClient) mergeURLs(hints []string) []string {
	seen := make(map[string]struct{}, len(c.cfg.URLs)+len(hints))
	out := make([]string, 0, len(c.cfg.URLs)+len(hints))
	for _, group := range [][]string{c.cfg.URLs, hints} {
		for _, url := range group {
			normalized := nostr.NormalizeURL(url)
			if normalized == "" {
				continue
			}
			if _, ok := seen[normalized]; ok {
				continue
			}
			seen[normalized] = struct{}{}
			out = append(out, normalized)
		}
	}
	return out
}

// firstTagValue returns the value of the first tag named key, or "".
func firstTagValue(evt *nostr.Event, key string) string {
	for _, tag := range evt.Tags {
		if len(tag) >= 2 && tag[0] == key {
			return tag[1]
		}
	}
	return ""
}
