package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"leadhub/internal/domain"
)

// mapDomainError converts a domain error into an envelope response.
// A throttling error carries its Retry-After hint through to the
// client when the gateway reported one.
func mapDomainError(c echo.Context, err error) error {
	var rl *domain.RateLimitedError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(rl.RetryAfter.Seconds())))
	}

	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrAuthFailed),
		errors.Is(err, domain.ErrSessionInactive),
		errors.Is(err, domain.ErrMissingIdentity):
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")

	case errors.Is(err, domain.ErrInvalidInput):
		return respondError(c, http.StatusBadRequest, "invalid_request", err.Error())

	case errors.Is(err, domain.ErrAccessDenied):
		return respondError(c, http.StatusForbidden, "access_denied", "access denied")

	case errors.Is(err, domain.ErrProfileNotFound):
		return respondError(c, http.StatusNotFound, "not_found", "resource not found")

	case errors.Is(err, domain.ErrRateLimited):
		return respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")

	case errors.Is(err, domain.ErrIdentityProviderUnavailable):
		return respondError(c, http.StatusBadGateway, "identity_provider_unavailable", "identity provider unavailable")

	case errors.Is(err, domain.ErrWebhookFailed):
		return respondError(c, http.StatusBadGateway, "booking_platform_unavailable", "booking platform request failed")

	case errors.Is(err, domain.ErrDatabaseUnavailable):
		return respondError(c, http.StatusServiceUnavailable, "database_unavailable", "database unavailable")

	case errors.Is(err, domain.ErrTokenGeneration),
		errors.Is(err, domain.ErrBackendSecretWeak):
		return respondError(c, http.StatusInternalServerError, "token_error", "token generation error")

	default:
		return respondError(c, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
