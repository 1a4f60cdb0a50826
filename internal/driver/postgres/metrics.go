package postgres

import (
	"context"
	"fmt"

	"leadhub/internal/domain"
)

// DashboardMetrics aggregates headline numbers over the accessible
// business set. An empty set short-circuits to zeroes.
func (r *Repository) DashboardMetrics(ctx context.Context, businessIDs []string) (*domain.DashboardMetrics, error) {
	if len(businessIDs) == 0 {
		return &domain.DashboardMetrics{}, nil
	}

	query := `
		SELECT
			(SELECT COUNT(*) FROM leads WHERE business_id = ANY($1)),
			(SELECT COUNT(*) FROM leads WHERE business_id = ANY($1) AND created_at > NOW() - INTERVAL '7 days'),
			(SELECT COUNT(*) FROM bookings WHERE business_id = ANY($1)),
			(SELECT COUNT(*) FROM bookings WHERE business_id = ANY($1) AND start_time > NOW() AND status <> 'cancelled'),
			(SELECT COUNT(*) FROM calls WHERE business_id = ANY($1) AND answered),
			(SELECT COUNT(*) FROM calls WHERE business_id = ANY($1) AND NOT answered)
	`

	var m domain.DashboardMetrics
	err := r.db.QueryRow(ctx, query, businessIDs).Scan(
		&m.TotalLeads, &m.NewLeads,
		&m.TotalBookings, &m.UpcomingBookings,
		&m.CallsAnswered, &m.CallsMissed)
	if err != nil {
		r.logger.Error("error aggregating dashboard metrics", "error", err)
		return nil, fmt.Errorf("%w: dashboard metrics: %w", domain.ErrDatabaseUnavailable, err)
	}

	return &m, nil
}
