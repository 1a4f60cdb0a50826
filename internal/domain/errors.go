package domain

import (
	"errors"
	"time"
)

// Authentication errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrAuthFailed      = errors.New("authentication failed")
	ErrSessionInactive = errors.New("session is not active")
	ErrMissingIdentity = errors.New("missing identity in session")
)

// Authorization errors.
var (
	ErrAccessDenied    = errors.New("insufficient business access")
	ErrProfileNotFound = errors.New("profile not found")
)

// Input errors.
var (
	ErrInvalidInput = errors.New("invalid input")
)

// Cache errors.
var (
	ErrCacheContaminated = errors.New("cache entry owner mismatch")
)

// External service errors.
var (
	ErrIdentityProviderUnavailable = errors.New("identity provider unavailable")
	ErrDatabaseUnavailable         = errors.New("database unavailable")
	ErrWebhookFailed               = errors.New("booking automation request failed")
)

// Rate limiting errors.
var (
	ErrRateLimited = errors.New("rate limit exceeded")
)

// RateLimitedError carries the server-advertised retry window when the
// provider throttles us. Unwraps to ErrRateLimited so callers match
// with errors.Is and read the window with errors.As.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return "rate limit exceeded"
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

// Token errors.
var (
	ErrTokenGeneration   = errors.New("token generation failed")
	ErrBackendSecretWeak = errors.New("backend token secret too weak")
)

// Color pipeline errors.
var (
	ErrExtractionFailed  = errors.New("color extraction failed")
	ErrExtractionTimeout = errors.New("color extraction timed out")
	ErrPoolClosed        = errors.New("worker pool closed")
)
