package cache

import (
	"log/slog"
	"sync"
	"time"

	"leadhub/internal/domain"
)

// entry wraps a cached value with its owner and write time. The owner
// must match the requesting key before the value is served; a mismatch
// means two users' data crossed and the entry is discarded.
type entry[T any] struct {
	value    T
	ownerID  string
	storedAt time.Time
}

// AuthCache is a process-local cache for identity, user, and business
// lookups with a short fresh window and a longer degraded window that
// is only consulted while the upstream provider is throttling us.
//
// Instances are injected, never package-level, so tests can isolate
// them. State is per-process only; a multi-instance deployment gets
// benign duplicate fetches, not corruption, because writes are
// idempotent overwrites keyed by user id.
type AuthCache struct {
	mu         sync.RWMutex
	identities map[string]*entry[domain.Identity]
	users      map[string]*entry[domain.AuthenticatedUser]
	businesses map[string]*entry[[]domain.AccessibleBusiness]
	available  *entry[[]domain.AccessibleBusiness]

	freshTTL time.Duration
	staleTTL time.Duration
	logger   *slog.Logger

	lifetime time.Duration
	reset    *time.Timer

	// now is swappable for TTL boundary tests.
	now func() time.Time
}

// NewAuthCache creates an auth cache. freshTTL bounds normal hits,
// staleTTL bounds degraded rate-limit fallback hits, and lifetime is
// the self-clear interval that bounds memory in long-lived processes.
func NewAuthCache(freshTTL, staleTTL, lifetime time.Duration, logger *slog.Logger) *AuthCache {
	c := &AuthCache{
		identities: make(map[string]*entry[domain.Identity]),
		users:      make(map[string]*entry[domain.AuthenticatedUser]),
		businesses: make(map[string]*entry[[]domain.AccessibleBusiness]),
		freshTTL:   freshTTL,
		staleTTL:   staleTTL,
		logger:     logger,
		lifetime:   lifetime,
		now:        time.Now,
	}
	if lifetime > 0 {
		c.reset = time.AfterFunc(lifetime, c.selfClear)
	}
	return c
}

// GetIdentity returns a fresh identity for the session, if any.
func (c *AuthCache) GetIdentity(sessionID string) (*domain.Identity, bool) {
	return c.getIdentity(sessionID, c.freshTTL)
}

// GetIdentityStale returns an identity within the degraded window.
// Callers must only use this while the identity provider is
// rate-limiting.
func (c *AuthCache) GetIdentityStale(sessionID string) (*domain.Identity, bool) {
	return c.getIdentity(sessionID, c.staleTTL)
}

func (c *AuthCache) getIdentity(sessionID string, ttl time.Duration) (*domain.Identity, bool) {
	c.mu.RLock()
	e, found := c.identities[sessionID]
	c.mu.RUnlock()
	if !found {
		return nil, false
	}
	if e.ownerID != sessionID {
		c.contaminated("identity", sessionID, e.ownerID)
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= ttl {
		return nil, false
	}
	identity := e.value
	return &identity, true
}

// SetIdentity stores the identity under its session id.
func (c *AuthCache) SetIdentity(sessionID string, identity domain.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identities[sessionID] = &entry[domain.Identity]{
		value:    identity,
		ownerID:  sessionID,
		storedAt: c.now(),
	}
}

// GetUser returns a fresh resolved user only when the cached entry is
// owned by the requesting user id.
func (c *AuthCache) GetUser(userID string) (*domain.AuthenticatedUser, bool) {
	return c.getUser(userID, c.freshTTL)
}

// GetUserStale returns a resolved user within the degraded window.
func (c *AuthCache) GetUserStale(userID string) (*domain.AuthenticatedUser, bool) {
	return c.getUser(userID, c.staleTTL)
}

func (c *AuthCache) getUser(userID string, ttl time.Duration) (*domain.AuthenticatedUser, bool) {
	c.mu.RLock()
	e, found := c.users[userID]
	c.mu.RUnlock()
	if !found {
		return nil, false
	}
	if e.ownerID != userID {
		c.contaminated("user", userID, e.ownerID)
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= ttl {
		return nil, false
	}
	user := e.value
	return &user, true
}

// SetUser stores the resolved user with the current timestamp.
func (c *AuthCache) SetUser(userID string, user domain.AuthenticatedUser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[userID] = &entry[domain.AuthenticatedUser]{
		value:    user,
		ownerID:  userID,
		storedAt: c.now(),
	}
}

// GetBusinesses returns the per-user business list if fresh.
func (c *AuthCache) GetBusinesses(userID string) ([]domain.AccessibleBusiness, bool) {
	return c.getBusinesses(userID, c.freshTTL)
}

// GetBusinessesStale returns the per-user business list within the
// degraded window.
func (c *AuthCache) GetBusinessesStale(userID string) ([]domain.AccessibleBusiness, bool) {
	return c.getBusinesses(userID, c.staleTTL)
}

func (c *AuthCache) getBusinesses(userID string, ttl time.Duration) ([]domain.AccessibleBusiness, bool) {
	c.mu.RLock()
	e, found := c.businesses[userID]
	c.mu.RUnlock()
	if !found {
		return nil, false
	}
	if e.ownerID != userID {
		c.contaminated("businesses", userID, e.ownerID)
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= ttl {
		return nil, false
	}
	return e.value, true
}

// SetBusinesses stores the business list for one user.
func (c *AuthCache) SetBusinesses(userID string, businesses []domain.AccessibleBusiness) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.businesses[userID] = &entry[[]domain.AccessibleBusiness]{
		value:    businesses,
		ownerID:  userID,
		storedAt: c.now(),
	}
}

// GetAvailableBusinesses returns the user-independent super-admin set.
// Its content is derived without per-user filtering, so sharing it
// across users is safe.
func (c *AuthCache) GetAvailableBusinesses() ([]domain.AccessibleBusiness, bool) {
	return c.getAvailable(c.freshTTL)
}

// GetAvailableBusinessesStale returns the shared set within the
// degraded window.
func (c *AuthCache) GetAvailableBusinessesStale() ([]domain.AccessibleBusiness, bool) {
	return c.getAvailable(c.staleTTL)
}

func (c *AuthCache) getAvailable(ttl time.Duration) ([]domain.AccessibleBusiness, bool) {
	c.mu.RLock()
	e := c.available
	c.mu.RUnlock()
	if e == nil {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= ttl {
		return nil, false
	}
	return e.value, true
}

// SetAvailableBusinesses stores the shared dashboard-enabled set.
func (c *AuthCache) SetAvailableBusinesses(businesses []domain.AccessibleBusiness) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.available = &entry[[]domain.AccessibleBusiness]{
		value:    businesses,
		storedAt: c.now(),
	}
}

// Invalidate drops every entry owned by one user.
func (c *AuthCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, userID)
	delete(c.businesses, userID)
	for sid, e := range c.identities {
		if e.value.UserID == userID {
			delete(c.identities, sid)
		}
	}
}

// Close stops the self-clear timer.
func (c *AuthCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reset != nil {
		c.reset.Stop()
		c.reset = nil
	}
}

// contaminated logs an owner mismatch and evicts the entry. Serving
// mismatched data is never an option; the caller sees a miss and
// refetches.
func (c *AuthCache) contaminated(slot, requested, owner string) {
	c.logger.Error("cache contamination detected",
		"slot", slot,
		"requested_id", requested,
		"owner_id", owner)
	c.mu.Lock()
	defer c.mu.Unlock()
	switch slot {
	case "identity":
		delete(c.identities, requested)
	case "user":
		delete(c.users, requested)
	case "businesses":
		delete(c.businesses, requested)
	}
}

// selfClear drops all entries and re-arms the timer. This bounds
// memory without coordinating eviction per entry.
func (c *AuthCache) selfClear() {
	c.mu.Lock()
	c.identities = make(map[string]*entry[domain.Identity])
	c.users = make(map[string]*entry[domain.AuthenticatedUser])
	c.businesses = make(map[string]*entry[[]domain.AccessibleBusiness])
	c.available = nil
	if c.reset != nil {
		c.reset.Reset(c.lifetime)
	}
	c.mu.Unlock()
}
