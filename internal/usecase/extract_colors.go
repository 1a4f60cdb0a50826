package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"leadhub/internal/domain"
)

const colorPurgeInterval = 10 * time.Minute

// ColorPipeline derives brand palettes from business logos through a
// three-tier read-through cache: process memory, Redis, then the
// business_colors row. Hits promote upward, writes go through all
// tiers, and concurrent misses for the same logo share one in-flight
// extraction.
type ColorPipeline struct {
	memory    domain.ColorTier
	shared    domain.ColorTier
	store     domain.ColorStore
	extractor domain.ColorExtractor
	group     singleflight.Group
	logger    *slog.Logger

	now func() time.Time
}

// NewColorPipeline creates the pipeline.
func NewColorPipeline(memory, shared domain.ColorTier, store domain.ColorStore, extractor domain.ColorExtractor, logger *slog.Logger) *ColorPipeline {
	return &ColorPipeline{
		memory:    memory,
		shared:    shared,
		store:     store,
		extractor: extractor,
		logger:    logger,
		now:       time.Now,
	}
}

// Get returns the palette for a logo. Extraction failures degrade to
// the default palette so theming never blocks a page.
func (uc *ColorPipeline) Get(ctx context.Context, logoURL, businessID string, priority int) domain.BusinessColors {
	key := hashLogoURL(logoURL)

	if entry, found := uc.memory.Get(ctx, key); found {
		return entry.Colors
	}

	if entry, found := uc.shared.Get(ctx, key); found {
		uc.memory.Set(ctx, key, *entry)
		return entry.Colors
	}

	if businessID != "" {
		entry, err := uc.store.GetBusinessColors(ctx, businessID)
		if err != nil {
			uc.logger.Warn("color store read failed", "business_id", businessID, "error", err)
		} else if entry != nil && entry.LogoURLHash == key && entry.SchemaVersion == domain.ColorSchemaVersion {
			uc.memory.Set(ctx, key, *entry)
			uc.shared.Set(ctx, key, *entry)
			return entry.Colors
		}
	}

	colors, err, _ := uc.group.Do(key+"|"+businessID, func() (any, error) {
		extracted, err := uc.extractor.Extract(ctx, logoURL, priority)
		if err != nil {
			return nil, err
		}
		uc.write(ctx, key, logoURL, businessID, extracted)
		return extracted, nil
	})
	if err != nil {
		uc.logger.Warn("color extraction failed, serving defaults",
			"logo_url", logoURL,
			"business_id", businessID,
			"error", err)
		return domain.DefaultBusinessColors()
	}

	return colors.(domain.BusinessColors)
}

// Set writes an externally supplied palette through all tiers.
func (uc *ColorPipeline) Set(ctx context.Context, logoURL, businessID string, colors domain.BusinessColors) {
	uc.write(ctx, hashLogoURL(logoURL), logoURL, businessID, colors)
}

// Invalidate drops the cached palette for one logo from the fast
// tiers.
func (uc *ColorPipeline) Invalidate(ctx context.Context, logoURL string) {
	key := hashLogoURL(logoURL)
	uc.memory.Delete(ctx, key)
	uc.shared.Delete(ctx, key)
}

// InvalidateAll drops every cached palette from the fast tiers.
// Useful after a schema bump or a batch logo refresh.
func (uc *ColorPipeline) InvalidateAll(ctx context.Context) {
	uc.memory.Clear(ctx)
	uc.shared.Clear(ctx)
}

// PurgeLoop expires dead entries from the fast tiers until ctx ends.
func (uc *ColorPipeline) PurgeLoop(ctx context.Context) {
	ticker := time.NewTicker(colorPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			uc.memory.Purge(ctx)
			uc.shared.Purge(ctx)
		}
	}
}

func (uc *ColorPipeline) write(ctx context.Context, key, logoURL, businessID string, colors domain.BusinessColors) {
	entry := domain.ColorCacheEntry{
		Colors:        colors,
		BusinessID:    businessID,
		LogoURLHash:   key,
		SchemaVersion: domain.ColorSchemaVersion,
		CachedAt:      uc.now(),
	}

	uc.memory.Set(ctx, key, entry)
	uc.shared.Set(ctx, key, entry)
	if businessID != "" {
		if err := uc.store.UpsertBusinessColors(ctx, entry); err != nil {
			uc.logger.Warn("color store write failed", "business_id", businessID, "error", err)
		}
	}
}

func hashLogoURL(logoURL string) string {
	sum := sha256.Sum256([]byte(logoURL))
	return hex.EncodeToString(sum[:16])
}
