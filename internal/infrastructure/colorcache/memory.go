// Package colorcache provides the fast tiers of the palette cache:
// an in-process expirable LRU and a Redis tier shared across
// instances. The Postgres row keyed by business id is the slow tier
// and lives with the other drivers.
package colorcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"leadhub/internal/domain"
)

// MemoryTier is the per-process tier. Capacity eviction is
// oldest-first via the LRU, entries expire after the TTL.
type MemoryTier struct {
	lru *expirable.LRU[string, domain.ColorCacheEntry]
}

// NewMemoryTier creates the memory tier.
func NewMemoryTier(capacity int, ttl time.Duration) *MemoryTier {
	return &MemoryTier{
		lru: expirable.NewLRU[string, domain.ColorCacheEntry](capacity, nil, ttl),
	}
}

// Get returns the entry if present and schema-compatible.
func (t *MemoryTier) Get(_ context.Context, key string) (*domain.ColorCacheEntry, bool) {
	entry, ok := t.lru.Get(key)
	if !ok || entry.SchemaVersion != domain.ColorSchemaVersion {
		return nil, false
	}
	return &entry, true
}

// Set stores the entry.
func (t *MemoryTier) Set(_ context.Context, key string, entry domain.ColorCacheEntry) {
	t.lru.Add(key, entry)
}

// Delete removes one entry.
func (t *MemoryTier) Delete(_ context.Context, key string) {
	t.lru.Remove(key)
}

// Purge is a no-op: the expirable LRU reaps expired entries on its own
// ticker.
func (t *MemoryTier) Purge(_ context.Context) {}

// Clear drops every entry.
func (t *MemoryTier) Clear(_ context.Context) {
	t.lru.Purge()
}

var _ domain.ColorTier = (*MemoryTier)(nil)
