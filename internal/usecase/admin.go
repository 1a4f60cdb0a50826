package usecase

import (
	"context"
	"log/slog"

	"leadhub/internal/domain"
)

// Admin manages user-to-business permission assignments. Every
// operation requires the super-admin role; handlers enforce it too,
// but the usecase is the authoritative gate.
type Admin struct {
	assignments domain.AssignmentStore
	businesses  domain.BusinessStore
	cache       domain.AuthCache
	logger      *slog.Logger
}

// NewAdmin creates the admin usecase.
func NewAdmin(a domain.AssignmentStore, b domain.BusinessStore, c domain.AuthCache, logger *slog.Logger) *Admin {
	return &Admin{assignments: a, businesses: b, cache: c, logger: logger}
}

// ListUsers returns all profiles for the assignment panel.
func (uc *Admin) ListUsers(ctx context.Context, actor *domain.AuthenticatedUser) ([]domain.Profile, error) {
	if actor.Role != domain.RoleSuperAdmin {
		return nil, domain.ErrAccessDenied
	}
	return uc.assignments.ListProfiles(ctx)
}

// ListBusinesses returns the dashboard-enabled set for the panel.
func (uc *Admin) ListBusinesses(ctx context.Context, actor *domain.AuthenticatedUser) ([]domain.AccessibleBusiness, error) {
	if actor.Role != domain.RoleSuperAdmin {
		return nil, domain.ErrAccessDenied
	}
	return uc.businesses.ListDashboardBusinesses(ctx)
}

// Assign grants a profile access to a business and drops the
// profile's cached business set so the grant is visible immediately.
func (uc *Admin) Assign(ctx context.Context, actor *domain.AuthenticatedUser, profileID, businessID string) error {
	if actor.Role != domain.RoleSuperAdmin {
		return domain.ErrAccessDenied
	}
	if err := uc.assignments.AssignBusiness(ctx, profileID, businessID); err != nil {
		return err
	}
	uc.cache.Invalidate(profileID)
	uc.logger.Info("business assigned",
		"actor_id", actor.Identity.UserID,
		"profile_id", profileID,
		"business_id", businessID)
	return nil
}

// Unassign revokes a grant.
func (uc *Admin) Unassign(ctx context.Context, actor *domain.AuthenticatedUser, profileID, businessID string) error {
	if actor.Role != domain.RoleSuperAdmin {
		return domain.ErrAccessDenied
	}
	if err := uc.assignments.UnassignBusiness(ctx, profileID, businessID); err != nil {
		return err
	}
	uc.cache.Invalidate(profileID)
	uc.logger.Info("business unassigned",
		"actor_id", actor.Identity.UserID,
		"profile_id", profileID,
		"business_id", businessID)
	return nil
}
