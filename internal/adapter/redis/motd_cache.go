package redis

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/memeboard/internal/adapter/metrics"
	"github.com/pscheid92/memeboard/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// redisEntryTTL outlives the day it describes; the date is part of the key,
// so a stale entry is never read for another day.
const redisEntryTTL = 25 * time.Hour

const (
	layerMemory = "memory"
	layerRedis  = "redis"
)

// MemeOfTheDayCache remembers the chosen meme id per day in process memory
// (L1) and, when configured, in Redis (L2) so replicas share the choice.
// Backend failures degrade to misses.
type MemeOfTheDayCache struct {
	rdb     goredis.Cmdable
	mem     *memoryCache
	metrics *metrics.CacheMetrics
}

var _ domain.MemeOfTheDayCache = (*MemeOfTheDayCache)(nil)

// NewMemeOfTheDayCache creates the cache. A nil rdb keeps it memory-only.
func NewMemeOfTheDayCache(rdb goredis.Cmdable, memCacheTTL time.Duration, clock clockwork.Clock, m *metrics.CacheMetrics) *MemeOfTheDayCache {
	return &MemeOfTheDayCache{
		rdb:     rdb,
		mem:     newMemoryCache(memCacheTTL, clock),
		metrics: m,
	}
}

// StartEvictionTimer runs a periodic goroutine that evicts expired in-memory cache entries.
// Returns a stop function that should be deferred.
func (c *MemeOfTheDayCache) StartEvictionTimer(interval time.Duration) func() {
	ticker := c.mem.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				if evicted := c.mem.evictExpired(); evicted > 0 {
					slog.Debug("Evicted expired meme-of-the-day cache entries", "count", evicted, "remaining", c.mem.size())
				}

			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (c *MemeOfTheDayCache) Get(ctx context.Context, day time.Time) (uuid.UUID, bool) {
	key := dayKey(day)

	// Layer 1: in-memory cache
	if id, ok := c.mem.get(key); ok {
		c.metrics.Hits.WithLabelValues(layerMemory).Inc()
		return id, true
	}
	c.metrics.Misses.WithLabelValues(layerMemory).Inc()

	if c.rdb == nil {
		return uuid.Nil, false
	}

	// Layer 2: Redis
	id, ok := c.getCached(ctx, key)
	if !ok {
		c.metrics.Misses.WithLabelValues(layerRedis).Inc()
		return uuid.Nil, false
	}
	c.metrics.Hits.WithLabelValues(layerRedis).Inc()
	c.mem.set(key, id)
	return id, true
}

func (c *MemeOfTheDayCache) Set(ctx context.Context, day time.Time, memeID uuid.UUID) {
	key := dayKey(day)
	c.mem.set(key, memeID)

	if c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, redisKey(key), memeID.String(), redisEntryTTL).Err(); err != nil {
		slog.WarnContext(ctx, "Failed to populate Redis meme-of-the-day cache", "day", key, "error", err)
	}
}

// Invalidate evicts the day from both layers.
func (c *MemeOfTheDayCache) Invalidate(ctx context.Context, day time.Time) {
	key := dayKey(day)
	c.mem.invalidate(key)

	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, redisKey(key)).Err(); err != nil {
		slog.WarnContext(ctx, "Failed to invalidate Redis meme-of-the-day cache", "day", key, "error", err)
	}
}

func (c *MemeOfTheDayCache) getCached(ctx context.Context, key string) (uuid.UUID, bool) {
	raw, err := c.rdb.Get(ctx, redisKey(key)).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.WarnContext(ctx, "Redis meme-of-the-day cache GET failed", "day", key, "error", err)
		}
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		slog.WarnContext(ctx, "Discarding malformed meme-of-the-day cache entry", "day", key, "error", err)
		return uuid.Nil, false
	}
	return id, true
}

func dayKey(day time.Time) string {
	return day.UTC().Format(time.DateOnly)
}

func redisKey(dayKey string) string {
	return "meme_of_the_day:" + dayKey
}

// memoryCache is an in-memory L1 cache with TTL-based expiry.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
	ttl     time.Duration
	clock   clockwork.Clock
}

type memoryCacheEntry struct {
	memeID    uuid.UUID
	expiresAt time.Time
}

func newMemoryCache(ttl time.Duration, clock clockwork.Clock) *memoryCache {
	return &memoryCache{
		entries: make(map[string]memoryCacheEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

func (c *memoryCache) get(key string) (uuid.UUID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.clock.Now().After(entry.expiresAt) {
		return uuid.Nil, false
	}
	return entry.memeID, true
}

func (c *memoryCache) set(key string, memeID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryCacheEntry{
		memeID:    memeID,
		expiresAt: c.clock.Now().Add(c.ttl),
	}
}

func (c *memoryCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memoryCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *memoryCache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}
