package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"leadhub/internal/domain"
)

const (
	opValidateSession = "identity.whoami"
	opGetProfile      = "db.profile"
)

// retryAfterFrom extracts a server-advertised retry window, 0 when
// none was given.
func retryAfterFrom(err error) time.Duration {
	var rle *domain.RateLimitedError
	if errors.As(err, &rle) {
		return rle.RetryAfter
	}
	return 0
}

// ResolveUser builds the per-request AuthenticatedUser: identity from
// the provider, role from the profile, business set from the access
// resolver, all behind the request-scoped cache. It returns a tagged
// AuthResult and never redirects; the handler boundary decides how to
// respond.
type ResolveUser struct {
	identity domain.IdentityProvider
	profiles domain.ProfileStore
	access   *ResolveAccess
	cache    domain.AuthCache
	backoff  domain.BackoffHandler
	logger   *slog.Logger
}

// NewResolveUser creates the user resolver.
func NewResolveUser(
	ip domain.IdentityProvider,
	ps domain.ProfileStore,
	access *ResolveAccess,
	cache domain.AuthCache,
	backoff domain.BackoffHandler,
	logger *slog.Logger,
) *ResolveUser {
	return &ResolveUser{
		identity: ip,
		profiles: ps,
		access:   access,
		cache:    cache,
		backoff:  backoff,
		logger:   logger,
	}
}

// Execute resolves the user behind the session cookie value.
func (uc *ResolveUser) Execute(ctx context.Context, sessionCookie string) domain.AuthResult {
	if sessionCookie == "" {
		return domain.AuthResult{Status: domain.AuthUnauthenticated, Reason: "no_session"}
	}

	identity, stale, result := uc.resolveIdentity(ctx, sessionCookie)
	if identity == nil {
		return result
	}

	// Fully resolved and fresh: done without touching the database.
	if !stale {
		if cached, found := uc.cache.GetUser(identity.UserID); found {
			return domain.AuthResult{Status: domain.AuthOK, User: cached}
		}
	}

	profile, err := uc.profiles.GetProfile(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return domain.AuthResult{Status: domain.AuthUnauthenticated, Reason: "profile_missing"}
		}
		if errors.Is(err, domain.ErrRateLimited) {
			uc.backoff.RecordRateLimit(opGetProfile, retryAfterFrom(err))
			return uc.degrade(identity.UserID, err)
		}
		uc.logger.Error("profile lookup failed", "user_id", identity.UserID, "error", err)
		return domain.AuthResult{Status: domain.AuthTransient, Reason: "profile_lookup_failed"}
	}

	businesses, accessStale, err := uc.access.Execute(ctx, identity.UserID, profile.Role)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			return uc.degrade(identity.UserID, err)
		}
		return domain.AuthResult{Status: domain.AuthTransient, Reason: "access_resolution_failed"}
	}

	user := domain.AuthenticatedUser{
		Identity:   *identity,
		Role:       profile.Role,
		Businesses: businesses,
	}
	if len(businesses) > 0 {
		first := businesses[0]
		user.CurrentBusiness = &first
	}
	uc.cache.SetUser(identity.UserID, user)

	return domain.AuthResult{Status: domain.AuthOK, User: &user, Stale: stale || accessStale}
}

// resolveIdentity returns the identity, whether it came from the
// degraded window, or the terminal result when it could not be
// established.
func (uc *ResolveUser) resolveIdentity(ctx context.Context, sessionCookie string) (*domain.Identity, bool, domain.AuthResult) {
	if cached, found := uc.cache.GetIdentity(sessionCookie); found {
		return cached, false, domain.AuthResult{}
	}

	if uc.backoff.IsRateLimited(opValidateSession) {
		if cached, found := uc.cache.GetIdentityStale(sessionCookie); found {
			return cached, true, domain.AuthResult{}
		}
		return nil, false, domain.AuthResult{Status: domain.AuthRateLimited, Reason: "rate_limited"}
	}

	fullCookie := fmt.Sprintf("ory_kratos_session=%s", sessionCookie)
	identity, err := uc.identity.ValidateSession(ctx, fullCookie)
	if err != nil {
		return uc.identityFailure(sessionCookie, err)
	}

	uc.backoff.RecordSuccess(opValidateSession)
	uc.cache.SetIdentity(sessionCookie, *identity)
	return identity, false, domain.AuthResult{}
}

func (uc *ResolveUser) identityFailure(sessionCookie string, err error) (*domain.Identity, bool, domain.AuthResult) {
	if errors.Is(err, domain.ErrRateLimited) {
		uc.backoff.RecordRateLimit(opValidateSession, retryAfterFrom(err))
		if cached, found := uc.cache.GetIdentityStale(sessionCookie); found {
			return cached, true, domain.AuthResult{}
		}
		return nil, false, domain.AuthResult{Status: domain.AuthRateLimited, Reason: "rate_limited"}
	}

	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrAuthFailed),
		errors.Is(err, domain.ErrSessionExpired),
		errors.Is(err, domain.ErrSessionInactive),
		errors.Is(err, domain.ErrMissingIdentity):
		return nil, false, domain.AuthResult{Status: domain.AuthUnauthenticated, Reason: "invalid_session"}
	default:
		uc.logger.Error("identity validation failed", "error", err)
		return nil, false, domain.AuthResult{Status: domain.AuthTransient, Reason: "identity_provider_error"}
	}
}

// degrade serves the stale user during provider trouble, or reports
// the failure class when no degraded copy exists.
func (uc *ResolveUser) degrade(userID string, cause error) domain.AuthResult {
	if cached, found := uc.cache.GetUserStale(userID); found {
		return domain.AuthResult{Status: domain.AuthOK, User: cached, Stale: true}
	}
	if errors.Is(cause, domain.ErrRateLimited) {
		return domain.AuthResult{Status: domain.AuthRateLimited, Reason: "rate_limited"}
	}
	uc.logger.Error("user resolution degraded without stale copy", "user_id", userID, "error", cause)
	return domain.AuthResult{Status: domain.AuthTransient, Reason: "profile_lookup_failed"}
}
