package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"leadhub/internal/domain"
)

// GetProfile fetches a profile by user id. A nullable role column is
// normalized to regular.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `
		SELECT id, email, role FROM profiles WHERE id = $1
	`

	var (
		profile domain.Profile
		role    *int
	)
	err := r.db.QueryRow(ctx, query, userID).Scan(&profile.ID, &profile.Email, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		r.logger.Error("error fetching profile", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: fetch profile: %w", domain.ErrDatabaseUnavailable, err)
	}

	profile.Role = domain.ParseRole(role)
	return &profile, nil
}

// ListProfiles returns all profiles for the admin panel.
func (r *Repository) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	query := `
		SELECT id, email, role FROM profiles ORDER BY email
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list profiles: %w", domain.ErrDatabaseUnavailable, err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		var (
			p    domain.Profile
			role *int
		)
		if err := rows.Scan(&p.ID, &p.Email, &role); err != nil {
			r.logger.Error("error scanning profile row", "error", err)
			return nil, fmt.Errorf("%w: scan profile: %w", domain.ErrDatabaseUnavailable, err)
		}
		p.Role = domain.ParseRole(role)
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate profiles: %w", domain.ErrDatabaseUnavailable, err)
	}

	return profiles, nil
}
