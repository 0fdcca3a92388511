// Package cache keeps short-lived copies of ticket listings and the set of
// revoked sessions.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Listing kinds that can be cached.
const (
	KindTickets = "tickets"
	KindStats   = "stats"
)

// ListingCache caches ticket listing and dashboard responses. Invalidate drops
// every cached listing at once.
//
// Get reports the generation it looked in. A body loaded after a miss is
// stored with Set under that generation; if Invalidate ran in between, the
// write lands in a generation nobody reads.
type ListingCache interface {
	Get(ctx context.Context, kind, key string) (body []byte, gen int64, ok bool, err error)
	Set(ctx context.Context, kind, key string, gen int64, body []byte) error
	Invalidate(ctx context.Context) error
}

const generationKey = "ticketdesk:listing:gen"

// RedisListingCache stores listings in Redis. Entries are namespaced by a
// generation counter so invalidation is a single INCR; orphaned entries expire
// through their TTL.
type RedisListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisListingCache creates a Redis backed listing cache.
func NewRedisListingCache(client *redis.Client, ttl time.Duration) *RedisListingCache {
	return &RedisListingCache{client: client, ttl: ttl}
}

func (c *RedisListingCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisListingCache) entryKey(gen int64, kind, key string) string {
	return fmt.Sprintf("ticketdesk:listing:%d:%s:%s", gen, kind, key)
}

// Get returns a cached body from the current generation.
func (c *RedisListingCache) Get(ctx context.Context, kind, key string) ([]byte, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	body, err := c.client.Get(ctx, c.entryKey(gen, kind, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, err
	}
	return body, gen, true, nil
}

// Set stores a body under gen, which is not necessarily current anymore.
func (c *RedisListingCache) Set(ctx context.Context, kind, key string, gen int64, body []byte) error {
	return c.client.Set(ctx, c.entryKey(gen, kind, key), body, c.ttl).Err()
}

// Invalidate bumps the generation so previous entries are no longer read.
func (c *RedisListingCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey).Err()
}

type memoryEntry struct {
	body    []byte
	expires time.Time
}

// MemoryListingCache is a process local listing cache used when Redis is not
// configured.
type MemoryListingCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	gen     int64
	entries map[string]memoryEntry
}

// NewMemoryListingCache creates an in-memory listing cache.
func NewMemoryListingCache(ttl time.Duration) *MemoryListingCache {
	return &MemoryListingCache{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func memoryKey(kind, key string) string {
	return strconv.Quote(kind) + ":" + key
}

// Get returns a cached body that has not expired.
func (c *MemoryListingCache) Get(ctx context.Context, kind, key string) ([]byte, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[memoryKey(kind, key)]
	if !ok {
		return nil, c.gen, false, nil
	}
	if c.now().After(e.expires) {
		delete(c.entries, memoryKey(kind, key))
		return nil, c.gen, false, nil
	}
	return append([]byte(nil), e.body...), c.gen, true, nil
}

// Set stores a body unless the cache was invalidated after gen was read.
func (c *MemoryListingCache) Set(ctx context.Context, kind, key string, gen int64, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.entries[memoryKey(kind, key)] = memoryEntry{body: append([]byte(nil), body...), expires: c.now().Add(c.ttl)}
	return nil
}

// Invalidate drops everything and starts a new generation.
func (c *MemoryListingCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = make(map[string]memoryEntry)
	return nil
}
