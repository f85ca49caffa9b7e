package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/redis/go-redis/v9"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// EventCache is a read-through cache of verified remote events, keyed by
// event id. Events are immutable, so entries never need invalidation beyond
// expiry. Cache errors are advisory; the fetcher falls back to the relays.
type EventCache interface {
	Get(ctx context.Context, id sharedtypes.EventID) (*nostr.Event, bool, error)
	Set(ctx context.Context, evt *nostr.Event) error
}

const redisKeyPrefix = "roundsync:event:"

// RedisEventCache stores events as JSON in redis with a TTL, sharing fetch
// work across processes and restarts.
type RedisEventCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ EventCache = (*RedisEventCache)(nil)

// NewRedisEventCache wraps an existing redis client.
func NewRedisEventCache(client *redis.Client, ttl time.Duration) *RedisEventCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisEventCache{client: client, ttl: ttl}
}

func (c *RedisEventCache) Get(ctx context.Context, id sharedtypes.EventID) (*nostr.Event, bool, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+string(id)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var evt nostr.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, false, fmt.Errorf("decode cached event: %w", err)
	}
	return &evt, true, nil
}

func (c *RedisEventCache) Set(ctx context.Context, evt *nostr.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+evt.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// MemoryEventCache is the in-process fallback used by tests and cache-less
// deployments.
type MemoryEventCache struct {
	mu     sync.RWMutex
	events map[sharedtypes.EventID]*nostr.Event
}

var _ EventCache = (*MemoryEventCache)(nil)

func NewMemoryEventCache() *MemoryEventCache {
	return &MemoryEventCache{events: make(map[sharedtypes.EventID]*nostr.Event)}
}

func (c *MemoryEventCache) Get(ctx context.Context, id sharedtypes.EventID) (*nostr.Event, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	evt, ok := c.events[id]
	return evt, ok, nil
}

func (c *MemoryEventCache) Set(ctx context.Context, evt *nostr.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[sharedtypes.EventID(evt.ID)] = evt
	return nil
}
