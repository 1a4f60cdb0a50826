package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"leadhub/internal/domain"
)

// GetBusinessColors reads the persisted palette for a business, nil
// when none was ever extracted.
func (r *Repository) GetBusinessColors(ctx context.Context, businessID string) (*domain.ColorCacheEntry, error) {
	query := `
		SELECT business_id, logo_url_hash, schema_version, primary_color, primary_dark,
		       primary_light, accent, text_color, is_light_logo, cached_at
		FROM business_colors
		WHERE business_id = $1
	`

	var entry domain.ColorCacheEntry
	err := r.db.QueryRow(ctx, query, businessID).Scan(
		&entry.BusinessID, &entry.LogoURLHash, &entry.SchemaVersion,
		&entry.Colors.Primary, &entry.Colors.PrimaryDark, &entry.Colors.PrimaryLight,
		&entry.Colors.Accent, &entry.Colors.TextColor, &entry.Colors.IsLightLogo,
		&entry.CachedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("error fetching business colors", "business_id", businessID, "error", err)
		return nil, fmt.Errorf("%w: fetch business colors: %w", domain.ErrDatabaseUnavailable, err)
	}

	return &entry, nil
}

// UpsertBusinessColors writes the server-tier palette record.
// Last write wins; there is no optimistic concurrency on theme colors.
func (r *Repository) UpsertBusinessColors(ctx context.Context, entry domain.ColorCacheEntry) error {
	query := `
		INSERT INTO business_colors (business_id, logo_url_hash, schema_version, primary_color,
		                             primary_dark, primary_light, accent, text_color, is_light_logo, cached_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (business_id) DO UPDATE SET
			logo_url_hash = EXCLUDED.logo_url_hash,
			schema_version = EXCLUDED.schema_version,
			primary_color = EXCLUDED.primary_color,
			primary_dark = EXCLUDED.primary_dark,
			primary_light = EXCLUDED.primary_light,
			accent = EXCLUDED.accent,
			text_color = EXCLUDED.text_color,
			is_light_logo = EXCLUDED.is_light_logo,
			cached_at = EXCLUDED.cached_at
	`

	_, err := r.db.Exec(ctx, query,
		entry.BusinessID, entry.LogoURLHash, entry.SchemaVersion,
		entry.Colors.Primary, entry.Colors.PrimaryDark, entry.Colors.PrimaryLight,
		entry.Colors.Accent, entry.Colors.TextColor, entry.Colors.IsLightLogo,
		entry.CachedAt)
	if err != nil {
		r.logger.Error("error upserting business colors", "business_id", entry.BusinessID, "error", err)
		return fmt.Errorf("%w: upsert business colors: %w", domain.ErrDatabaseUnavailable, err)
	}
	return nil
}
