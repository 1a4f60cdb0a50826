package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"leadhub/internal/domain"
)

// Operation keys for backoff tracking.
const (
	opListAvailableBusinesses = "db.businesses.available"
	opListUserBusinesses      = "db.businesses.user"
)

// ResolveAccess computes the business set a user may act on.
// Super admins get every dashboard-enabled business (shared cache
// slot); regular users get their join-table grants (per-user slot).
type ResolveAccess struct {
	businesses domain.BusinessStore
	cache      domain.AuthCache
	backoff    domain.BackoffHandler
	logger     *slog.Logger
}

// NewResolveAccess creates the access resolver.
func NewResolveAccess(b domain.BusinessStore, c domain.AuthCache, bo domain.BackoffHandler, l *slog.Logger) *ResolveAccess {
	return &ResolveAccess{businesses: b, cache: c, backoff: bo, logger: l}
}

// Execute returns the accessible business list. stale is set when the
// list came from the degraded cache window during a backoff. A store
// failure yields an empty list and a retryable error, never a partial
// one.
func (uc *ResolveAccess) Execute(ctx context.Context, userID string, role domain.Role) (businesses []domain.AccessibleBusiness, stale bool, err error) {
	if role == domain.RoleSuperAdmin {
		return uc.available(ctx)
	}
	return uc.assigned(ctx, userID)
}

func (uc *ResolveAccess) available(ctx context.Context) ([]domain.AccessibleBusiness, bool, error) {
	if cached, found := uc.cache.GetAvailableBusinesses(); found {
		return cached, false, nil
	}

	if uc.backoff.IsRateLimited(opListAvailableBusinesses) {
		if cached, found := uc.cache.GetAvailableBusinessesStale(); found {
			return cached, true, nil
		}
		return nil, false, domain.ErrRateLimited
	}

	list, err := uc.businesses.ListDashboardBusinesses(ctx)
	if err != nil {
		return uc.handleFailure(err, opListAvailableBusinesses, uc.cache.GetAvailableBusinessesStale)
	}

	uc.backoff.RecordSuccess(opListAvailableBusinesses)
	uc.cache.SetAvailableBusinesses(list)
	return list, false, nil
}

func (uc *ResolveAccess) assigned(ctx context.Context, userID string) ([]domain.AccessibleBusiness, bool, error) {
	if cached, found := uc.cache.GetBusinesses(userID); found {
		return cached, false, nil
	}

	op := opListUserBusinesses
	if uc.backoff.IsRateLimited(op) {
		if cached, found := uc.cache.GetBusinessesStale(userID); found {
			return cached, true, nil
		}
		return nil, false, domain.ErrRateLimited
	}

	list, err := uc.businesses.ListBusinessesForUser(ctx, userID)
	if err != nil {
		return uc.handleFailure(err, op, func() ([]domain.AccessibleBusiness, bool) {
			return uc.cache.GetBusinessesStale(userID)
		})
	}

	uc.backoff.RecordSuccess(op)
	uc.cache.SetBusinesses(userID, list)
	return list, false, nil
}

// handleFailure classifies a store failure: throttling records backoff
// and falls back to the degraded window; anything else surfaces as a
// retryable error with no partial result.
func (uc *ResolveAccess) handleFailure(err error, op string, staleFn func() ([]domain.AccessibleBusiness, bool)) ([]domain.AccessibleBusiness, bool, error) {
	if errors.Is(err, domain.ErrRateLimited) {
		uc.backoff.RecordRateLimit(op, retryAfterFrom(err))
		if cached, found := staleFn(); found {
			return cached, true, nil
		}
		return nil, false, domain.ErrRateLimited
	}

	uc.logger.Error("business access query failed", "operation", op, "error", err)
	return nil, false, fmt.Errorf("resolve business access: %w", err)
}
