package domain

// AuthStatus is the outcome of resolving the requesting user. Handlers
// inspect it and decide how to respond; resolvers never redirect or
// panic their way out.
type AuthStatus int

const (
	// AuthOK means the user is authenticated and the business set resolved.
	AuthOK AuthStatus = iota
	// AuthUnauthenticated means no usable session was presented.
	AuthUnauthenticated
	// AuthAccessDenied means the session is valid but the user lacks
	// access to the requested resource.
	AuthAccessDenied
	// AuthTransient means an upstream dependency failed; the caller may
	// retry.
	AuthTransient
	// AuthRateLimited means the identity provider is throttling us and
	// no stale cache entry could stand in.
	AuthRateLimited
	// AuthTerminated means the anomaly monitor killed the session.
	AuthTerminated
)

// AuthResult is the tagged outcome of the auth resolution path.
type AuthResult struct {
	Status AuthStatus
	User   *AuthenticatedUser
	// Stale is set when the user was served from the degraded cache
	// window during an active rate-limit backoff.
	Stale bool
	// Reason carries a machine-readable code for 401 responses
	// (e.g. "session_terminated", "rate_limited").
	Reason string
}

// Authenticated reports whether the result carries a usable user.
func (r AuthResult) Authenticated() bool {
	return r.Status == AuthOK && r.User != nil
}
