package usecase

import (
	"context"
	"log/slog"

	"leadhub/internal/domain"
)

const defaultLeadLimit = 50

// Dashboard serves metric cards and lead views over the caller's
// accessible business set.
type Dashboard struct {
	metrics domain.MetricsStore
	leads   domain.LeadStore
	logger  *slog.Logger
}

// NewDashboard creates the dashboard usecase.
func NewDashboard(m domain.MetricsStore, l domain.LeadStore, logger *slog.Logger) *Dashboard {
	return &Dashboard{metrics: m, leads: l, logger: logger}
}

// Metrics aggregates headline numbers for every business the user can
// see.
func (uc *Dashboard) Metrics(ctx context.Context, user *domain.AuthenticatedUser) (*domain.DashboardMetrics, error) {
	ids := make([]string, 0, len(user.Businesses))
	for _, b := range user.Businesses {
		ids = append(ids, b.ID)
	}
	return uc.metrics.DashboardMetrics(ctx, ids)
}

// Leads lists recent leads for one accessible business.
func (uc *Dashboard) Leads(ctx context.Context, user *domain.AuthenticatedUser, businessID string, limit int) ([]domain.Lead, error) {
	if !user.HasBusiness(businessID) {
		return nil, domain.ErrAccessDenied
	}
	if limit <= 0 || limit > 200 {
		limit = defaultLeadLimit
	}
	return uc.leads.ListLeads(ctx, businessID, limit)
}

// Lead fetches one lead, denying access rather than revealing records
// outside the caller's business set.
func (uc *Dashboard) Lead(ctx context.Context, user *domain.AuthenticatedUser, leadID string) (*domain.Lead, error) {
	lead, err := uc.leads.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil || !user.HasBusiness(lead.BusinessID) {
		return nil, domain.ErrAccessDenied
	}
	return lead, nil
}
