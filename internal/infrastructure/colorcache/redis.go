package colorcache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"leadhub/internal/domain"
)

const evictFraction = 10 // oldest 1/10 evicted on overflow

// RedisTier is the shared persistent tier. Entries carry the cache TTL
// via Redis expiry; an index sorted set by write time drives capacity
// eviction and periodic purging.
type RedisTier struct {
	client   *redis.Client
	ttl      time.Duration
	capacity int64
	prefix   string
	logger   *slog.Logger
}

// NewRedisTier creates the Redis tier.
func NewRedisTier(client *redis.Client, ttl time.Duration, capacity int, prefix string, logger *slog.Logger) *RedisTier {
	return &RedisTier{
		client:   client,
		ttl:      ttl,
		capacity: int64(capacity),
		prefix:   prefix,
		logger:   logger,
	}
}

func (t *RedisTier) entryKey(key string) string {
	return t.prefix + ":entry:" + key
}

func (t *RedisTier) indexKey() string {
	return t.prefix + ":index"
}

// Get returns the entry if present and schema-compatible. Redis
// failures degrade to a miss; the color pipeline must never fail a
// page over its cache.
func (t *RedisTier) Get(ctx context.Context, key string) (*domain.ColorCacheEntry, bool) {
	raw, err := t.client.Get(ctx, t.entryKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			t.logger.Warn("redis color tier read failed", "error", err)
		}
		return nil, false
	}

	var entry domain.ColorCacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.logger.Warn("redis color tier entry corrupt", "key", key, "error", err)
		t.Delete(ctx, key)
		return nil, false
	}
	if entry.SchemaVersion != domain.ColorSchemaVersion {
		t.Delete(ctx, key)
		return nil, false
	}
	return &entry, true
}

// Set stores the entry with the tier TTL and enforces capacity by
// evicting the oldest tenth when exceeded.
func (t *RedisTier) Set(ctx context.Context, key string, entry domain.ColorCacheEntry) {
	raw, err := json.Marshal(entry)
	if err != nil {
		t.logger.Warn("redis color tier marshal failed", "error", err)
		return
	}

	pipe := t.client.Pipeline()
	pipe.Set(ctx, t.entryKey(key), raw, t.ttl)
	pipe.ZAdd(ctx, t.indexKey(), redis.Z{Score: float64(entry.CachedAt.UnixMilli()), Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("redis color tier write failed", "error", err)
		return
	}

	t.enforceCapacity(ctx)
}

// Delete removes one entry and its index member.
func (t *RedisTier) Delete(ctx context.Context, key string) {
	pipe := t.client.Pipeline()
	pipe.Del(ctx, t.entryKey(key))
	pipe.ZRem(ctx, t.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("redis color tier delete failed", "error", err)
	}
}

// Purge removes index members whose entries have outlived the TTL.
// The entry keys themselves expire server-side.
func (t *RedisTier) Purge(ctx context.Context) {
	cutoff := time.Now().Add(-t.ttl).UnixMilli()
	stale, err := t.client.ZRangeByScore(ctx, t.indexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: formatScore(cutoff),
	}).Result()
	if err != nil {
		t.logger.Warn("redis color tier purge scan failed", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	pipe := t.client.Pipeline()
	for _, key := range stale {
		pipe.Del(ctx, t.entryKey(key))
	}
	pipe.ZRemRangeByScore(ctx, t.indexKey(), "-inf", formatScore(cutoff))
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("redis color tier purge failed", "error", err)
	}
}

// Clear drops every indexed entry and the index itself.
func (t *RedisTier) Clear(ctx context.Context) {
	keys, err := t.client.ZRange(ctx, t.indexKey(), 0, -1).Result()
	if err != nil {
		t.logger.Warn("redis color tier clear scan failed", "error", err)
		return
	}

	pipe := t.client.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, t.entryKey(key))
	}
	pipe.Del(ctx, t.indexKey())
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("redis color tier clear failed", "error", err)
	}
}

// enforceCapacity evicts the oldest tenth of entries once the index
// grows past capacity.
func (t *RedisTier) enforceCapacity(ctx context.Context) {
	size, err := t.client.ZCard(ctx, t.indexKey()).Result()
	if err != nil || size <= t.capacity {
		return
	}

	evict := size / evictFraction
	if evict < 1 {
		evict = 1
	}
	oldest, err := t.client.ZRange(ctx, t.indexKey(), 0, evict-1).Result()
	if err != nil || len(oldest) == 0 {
		return
	}

	pipe := t.client.Pipeline()
	for _, key := range oldest {
		pipe.Del(ctx, t.entryKey(key))
	}
	pipe.ZRemRangeByRank(ctx, t.indexKey(), 0, evict-1)
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("redis color tier eviction failed", "error", err)
	}
}

func formatScore(ms int64) string {
	return strconv.FormatInt(ms, 10)
}

var _ domain.ColorTier = (*RedisTier)(nil)
