package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"leadhub/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubIdentity is an IdentityProvider with scripted outcomes.
type stubIdentity struct {
	identity      *domain.Identity
	validateErr   error
	validateCalls int

	terminated   []string
	terminateErr error
}

func (s *stubIdentity) ValidateSession(_ context.Context, _ string) (*domain.Identity, error) {
	s.validateCalls++
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	return s.identity, nil
}

func (s *stubIdentity) TerminateSession(_ context.Context, sessionID string) error {
	s.terminated = append(s.terminated, sessionID)
	return s.terminateErr
}

// stubProfiles is a ProfileStore with one scripted profile.
type stubProfiles struct {
	profile *domain.Profile
	err     error
	calls   int
}

func (s *stubProfiles) GetProfile(_ context.Context, _ string) (*domain.Profile, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

// stubBusinesses is a BusinessStore over fixed lists.
type stubBusinesses struct {
	dashboard []domain.AccessibleBusiness
	assigned  map[string][]domain.AccessibleBusiness
	err       error

	dashboardCalls int
	assignedCalls  int
}

func (s *stubBusinesses) ListDashboardBusinesses(_ context.Context) ([]domain.AccessibleBusiness, error) {
	s.dashboardCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.dashboard, nil
}

func (s *stubBusinesses) ListBusinessesForUser(_ context.Context, userID string) ([]domain.AccessibleBusiness, error) {
	s.assignedCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.assigned[userID], nil
}

// stubBackoff gives tests direct control over the throttle state.
type stubBackoff struct {
	limited     map[string]bool
	rateLimited []string
	succeeded   []string
	retryAfters []time.Duration
}

func newStubBackoff() *stubBackoff {
	return &stubBackoff{limited: make(map[string]bool)}
}

func (s *stubBackoff) RecordRateLimit(op string, retryAfter time.Duration) {
	s.rateLimited = append(s.rateLimited, op)
	s.retryAfters = append(s.retryAfters, retryAfter)
	s.limited[op] = true
}

func (s *stubBackoff) RecordSuccess(op string) {
	s.succeeded = append(s.succeeded, op)
	delete(s.limited, op)
}

func (s *stubBackoff) IsRateLimited(op string) bool { return s.limited[op] }

func (s *stubBackoff) Delay(op string) time.Duration { return 0 }

// stubCache is an AuthCache with separate fresh and stale shelves so
// tests can place entries in either window directly.
type stubCache struct {
	identities      map[string]domain.Identity
	staleIdentities map[string]domain.Identity
	users           map[string]domain.AuthenticatedUser
	staleUsers      map[string]domain.AuthenticatedUser
	businesses      map[string][]domain.AccessibleBusiness
	staleBusinesses map[string][]domain.AccessibleBusiness
	available       []domain.AccessibleBusiness
	staleAvailable  []domain.AccessibleBusiness

	invalidated []string
}

func newStubCache() *stubCache {
	return &stubCache{
		identities:      make(map[string]domain.Identity),
		staleIdentities: make(map[string]domain.Identity),
		users:           make(map[string]domain.AuthenticatedUser),
		staleUsers:      make(map[string]domain.AuthenticatedUser),
		businesses:      make(map[string][]domain.AccessibleBusiness),
		staleBusinesses: make(map[string][]domain.AccessibleBusiness),
	}
}

func (s *stubCache) GetIdentity(sessionID string) (*domain.Identity, bool) {
	if id, ok := s.identities[sessionID]; ok {
		return &id, true
	}
	return nil, false
}

func (s *stubCache) GetIdentityStale(sessionID string) (*domain.Identity, bool) {
	if id, ok := s.staleIdentities[sessionID]; ok {
		return &id, true
	}
	return nil, false
}

func (s *stubCache) SetIdentity(sessionID string, identity domain.Identity) {
	s.identities[sessionID] = identity
}

func (s *stubCache) GetUser(userID string) (*domain.AuthenticatedUser, bool) {
	if u, ok := s.users[userID]; ok {
		return &u, true
	}
	return nil, false
}

func (s *stubCache) GetUserStale(userID string) (*domain.AuthenticatedUser, bool) {
	if u, ok := s.staleUsers[userID]; ok {
		return &u, true
	}
	return nil, false
}

func (s *stubCache) SetUser(userID string, user domain.AuthenticatedUser) {
	s.users[userID] = user
}

func (s *stubCache) GetBusinesses(userID string) ([]domain.AccessibleBusiness, bool) {
	b, ok := s.businesses[userID]
	return b, ok
}

func (s *stubCache) GetBusinessesStale(userID string) ([]domain.AccessibleBusiness, bool) {
	b, ok := s.staleBusinesses[userID]
	return b, ok
}

func (s *stubCache) SetBusinesses(userID string, businesses []domain.AccessibleBusiness) {
	s.businesses[userID] = businesses
}

func (s *stubCache) GetAvailableBusinesses() ([]domain.AccessibleBusiness, bool) {
	return s.available, s.available != nil
}

func (s *stubCache) GetAvailableBusinessesStale() ([]domain.AccessibleBusiness, bool) {
	return s.staleAvailable, s.staleAvailable != nil
}

func (s *stubCache) SetAvailableBusinesses(businesses []domain.AccessibleBusiness) {
	s.available = businesses
}

func (s *stubCache) Invalidate(userID string) {
	s.invalidated = append(s.invalidated, userID)
	delete(s.users, userID)
	delete(s.businesses, userID)
}

func business(id, name string) domain.AccessibleBusiness {
	return domain.AccessibleBusiness{ID: id, Name: name}
}

func regularUser(businesses ...domain.AccessibleBusiness) *domain.AuthenticatedUser {
	u := &domain.AuthenticatedUser{
		Identity:   domain.Identity{UserID: "user-1", Email: "user@example.com", SessionID: "sess-1"},
		Role:       domain.RoleRegular,
		Businesses: businesses,
	}
	if len(businesses) > 0 {
		u.CurrentBusiness = &businesses[0]
	}
	return u
}

func superAdmin(businesses ...domain.AccessibleBusiness) *domain.AuthenticatedUser {
	u := regularUser(businesses...)
	u.Identity.UserID = "admin-1"
	u.Role = domain.RoleSuperAdmin
	return u
}
