package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"leadhub/internal/domain"
)

// ListLeads returns recent leads for one business.
func (r *Repository) ListLeads(ctx context.Context, businessID string, limit int) ([]domain.Lead, error) {
	query := `
		SELECT id, business_id, account_id, name, phone, email, source, status, created_at
		FROM leads
		WHERE business_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, businessID, limit)
	if err != nil {
		r.logger.Error("error fetching leads", "business_id", businessID, "error", err)
		return nil, fmt.Errorf("%w: list leads: %w", domain.ErrDatabaseUnavailable, err)
	}
	defer rows.Close()

	var leads []domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate leads: %w", domain.ErrDatabaseUnavailable, err)
	}

	return leads, nil
}

// GetLead fetches one lead by id.
func (r *Repository) GetLead(ctx context.Context, leadID string) (*domain.Lead, error) {
	query := `
		SELECT id, business_id, account_id, name, phone, email, source, status, created_at
		FROM leads
		WHERE id = $1
	`

	row := r.db.QueryRow(ctx, query, leadID)
	lead, err := scanLeadRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("error fetching lead", "lead_id", leadID, "error", err)
		return nil, fmt.Errorf("%w: fetch lead: %w", domain.ErrDatabaseUnavailable, err)
	}
	return lead, nil
}

func scanLead(rows pgx.Rows) (*domain.Lead, error) {
	lead, err := scanLeadRow(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: scan lead: %w", domain.ErrDatabaseUnavailable, err)
	}
	return lead, nil
}

func scanLeadRow(row pgx.Row) (*domain.Lead, error) {
	var (
		lead      domain.Lead
		accountID *string
		phone     *string
		email     *string
		source    *string
	)
	err := row.Scan(&lead.ID, &lead.BusinessID, &accountID, &lead.Name, &phone, &email, &source, &lead.Status, &lead.CreatedAt)
	if err != nil {
		return nil, err
	}
	if accountID != nil {
		lead.AccountID = *accountID
	}
	if phone != nil {
		lead.Phone = *phone
	}
	if email != nil {
		lead.Email = *email
	}
	if source != nil {
		lead.Source = *source
	}
	return &lead, nil
}
