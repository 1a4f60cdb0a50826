package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"leadhub/internal/domain"
)

// ListDashboardBusinesses returns every dashboard-enabled business,
// ordered by name so "first business" selection is deterministic.
func (r *Repository) ListDashboardBusinesses(ctx context.Context) ([]domain.AccessibleBusiness, error) {
	query := `
		SELECT id, name, avatar_url, city, state, permalink
		FROM businesses
		WHERE dashboard_enabled = TRUE
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("error fetching dashboard businesses", "error", err)
		return nil, fmt.Errorf("%w: list dashboard businesses: %w", domain.ErrDatabaseUnavailable, err)
	}
	defer rows.Close()

	return scanBusinesses(rows)
}

// ListBusinessesForUser returns the businesses granted to one profile
// via the join table, in assignment order.
func (r *Repository) ListBusinessesForUser(ctx context.Context, userID string) ([]domain.AccessibleBusiness, error) {
	query := `
		SELECT b.id, b.name, b.avatar_url, b.city, b.state, b.permalink
		FROM profile_businesses pb
		INNER JOIN businesses b ON b.id = pb.business_id
		WHERE pb.profile_id = $1
		ORDER BY pb.assigned_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("error fetching businesses for user", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: list businesses for user: %w", domain.ErrDatabaseUnavailable, err)
	}
	defer rows.Close()

	return scanBusinesses(rows)
}

// AssignBusiness grants a profile access to a business. Idempotent.
func (r *Repository) AssignBusiness(ctx context.Context, profileID, businessID string) error {
	query := `
		INSERT INTO profile_businesses (profile_id, business_id, assigned_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (profile_id, business_id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, profileID, businessID); err != nil {
		r.logger.Error("error assigning business", "profile_id", profileID, "business_id", businessID, "error", err)
		return fmt.Errorf("%w: assign business: %w", domain.ErrDatabaseUnavailable, err)
	}
	return nil
}

// UnassignBusiness revokes a grant. Removing a missing grant is not an
// error.
func (r *Repository) UnassignBusiness(ctx context.Context, profileID, businessID string) error {
	query := `
		DELETE FROM profile_businesses WHERE profile_id = $1 AND business_id = $2
	`

	if _, err := r.db.Exec(ctx, query, profileID, businessID); err != nil {
		r.logger.Error("error unassigning business", "profile_id", profileID, "business_id", businessID, "error", err)
		return fmt.Errorf("%w: unassign business: %w", domain.ErrDatabaseUnavailable, err)
	}
	return nil
}

func scanBusinesses(rows pgx.Rows) ([]domain.AccessibleBusiness, error) {
	var businesses []domain.AccessibleBusiness
	for rows.Next() {
		var (
			b         domain.AccessibleBusiness
			avatarURL *string
			city      *string
			state     *string
			permalink *string
		)
		if err := rows.Scan(&b.ID, &b.Name, &avatarURL, &city, &state, &permalink); err != nil {
			return nil, fmt.Errorf("%w: scan business: %w", domain.ErrDatabaseUnavailable, err)
		}
		if avatarURL != nil {
			b.AvatarURL = *avatarURL
		}
		if city != nil {
			b.City = *city
		}
		if state != nil {
			b.State = *state
		}
		if permalink != nil {
			b.Permalink = *permalink
		}
		businesses = append(businesses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate businesses: %w", domain.ErrDatabaseUnavailable, err)
	}
	return businesses, nil
}
