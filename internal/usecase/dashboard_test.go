package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadhub/internal/domain"
)

type stubLeads struct {
	leads     map[string]*domain.Lead
	listed    []domain.Lead
	lastLimit int
	err       error
}

func (s *stubLeads) ListLeads(_ context.Context, _ string, limit int) ([]domain.Lead, error) {
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.listed, nil
}

func (s *stubLeads) GetLead(_ context.Context, leadID string) (*domain.Lead, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.leads[leadID], nil
}

type stubMetrics struct {
	metrics *domain.DashboardMetrics
	lastIDs []string
	err     error
}

func (s *stubMetrics) DashboardMetrics(_ context.Context, businessIDs []string) (*domain.DashboardMetrics, error) {
	s.lastIDs = businessIDs
	if s.err != nil {
		return nil, s.err
	}
	return s.metrics, nil
}

func TestDashboard_MetricsCoversAccessibleSet(t *testing.T) {
	metrics := &stubMetrics{metrics: &domain.DashboardMetrics{TotalLeads: 42}}
	uc := NewDashboard(metrics, &stubLeads{}, discardLogger())

	user := regularUser(business("10", "First"), business("20", "Second"))
	m, err := uc.Metrics(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 42, m.TotalLeads)
	assert.Equal(t, []string{"10", "20"}, metrics.lastIDs)
}

func TestDashboard_LeadsDeniedOutsideBusinessSet(t *testing.T) {
	uc := NewDashboard(&stubMetrics{}, &stubLeads{}, discardLogger())

	_, err := uc.Leads(context.Background(), regularUser(business("10", "First")), "99", 50)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestDashboard_LeadsClampsLimit(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"zero falls back to default", 0, 50},
		{"negative falls back to default", -1, 50},
		{"oversized falls back to default", 500, 50},
		{"in-range limit passes through", 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leads := &stubLeads{}
			uc := NewDashboard(&stubMetrics{}, leads, discardLogger())

			_, err := uc.Leads(context.Background(), regularUser(business("10", "First")), "10", tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, leads.lastLimit)
		})
	}
}

func TestDashboard_Lead(t *testing.T) {
	leads := &stubLeads{leads: map[string]*domain.Lead{
		"l1": {ID: "l1", BusinessID: "10", Name: "Jane Doe"},
		"l2": {ID: "l2", BusinessID: "99", Name: "Off Limits"},
	}}
	uc := NewDashboard(&stubMetrics{}, leads, discardLogger())
	user := regularUser(business("10", "First"))

	lead, err := uc.Lead(context.Background(), user, "l1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", lead.Name)

	_, err = uc.Lead(context.Background(), user, "l2")
	assert.ErrorIs(t, err, domain.ErrAccessDenied, "leads of other tenants read as denied")

	_, err = uc.Lead(context.Background(), user, "ghost")
	assert.ErrorIs(t, err, domain.ErrAccessDenied, "absent leads read as denied, not as missing")
}
