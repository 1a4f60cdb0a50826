package domain

import (
	"context"
	"time"
)

// IdentityProvider validates session cookies and manages sessions at
// the identity provider.
type IdentityProvider interface {
	ValidateSession(ctx context.Context, cookie string) (*Identity, error)
	TerminateSession(ctx context.Context, sessionID string) error
}

// AuthCache is the request-scoped cache guarding identity and business
// lookups. Implementations must fail closed on owner mismatch.
type AuthCache interface {
	GetIdentity(sessionID string) (*Identity, bool)
	GetIdentityStale(sessionID string) (*Identity, bool)
	SetIdentity(sessionID string, identity Identity)

	GetUser(userID string) (*AuthenticatedUser, bool)
	GetUserStale(userID string) (*AuthenticatedUser, bool)
	SetUser(userID string, user AuthenticatedUser)

	GetBusinesses(userID string) ([]AccessibleBusiness, bool)
	GetBusinessesStale(userID string) ([]AccessibleBusiness, bool)
	SetBusinesses(userID string, businesses []AccessibleBusiness)

	GetAvailableBusinesses() ([]AccessibleBusiness, bool)
	GetAvailableBusinessesStale() ([]AccessibleBusiness, bool)
	SetAvailableBusinesses(businesses []AccessibleBusiness)

	Invalidate(userID string)
}

// BackoffHandler tracks provider throttling per operation key.
type BackoffHandler interface {
	RecordRateLimit(op string, retryAfter time.Duration)
	RecordSuccess(op string)
	IsRateLimited(op string) bool
	Delay(op string) time.Duration
}

// AnomalyMonitor evaluates per-request session metadata against the
// sliding per-user history.
type AnomalyMonitor interface {
	Observe(sc SecurityContext) []Anomaly
}

// ProfileStore reads profile records. Implementations run with
// service-role privileges to sidestep row-level-security recursion on
// self lookups.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
}

// BusinessStore resolves tenant visibility.
type BusinessStore interface {
	ListDashboardBusinesses(ctx context.Context) ([]AccessibleBusiness, error)
	ListBusinessesForUser(ctx context.Context, userID string) ([]AccessibleBusiness, error)
}

// AssignmentStore manages profile-to-business grants (admin panel).
type AssignmentStore interface {
	ListProfiles(ctx context.Context) ([]Profile, error)
	AssignBusiness(ctx context.Context, profileID, businessID string) error
	UnassignBusiness(ctx context.Context, profileID, businessID string) error
}

// LeadStore reads lead records per business.
type LeadStore interface {
	ListLeads(ctx context.Context, businessID string, limit int) ([]Lead, error)
	GetLead(ctx context.Context, leadID string) (*Lead, error)
}

// BookingStore persists local booking records mirroring the automation
// platform's state.
type BookingStore interface {
	ListBookings(ctx context.Context, businessID string) ([]Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*Booking, error)
	CreateBooking(ctx context.Context, b Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID, status string, startTime time.Time) error
}

// MetricsStore aggregates dashboard numbers over a business set.
type MetricsStore interface {
	DashboardMetrics(ctx context.Context, businessIDs []string) (*DashboardMetrics, error)
}

// BookingGateway calls the external booking automation webhooks.
type BookingGateway interface {
	VerifyAddress(ctx context.Context, req AddressVerification) (*AddressResult, error)
	CreateBooking(ctx context.Context, req BookingRequest) (string, error)
	RescheduleBooking(ctx context.Context, bookingID string, startTime time.Time) error
	CancelBooking(ctx context.Context, bookingID string) error
	FreeSlots(ctx context.Context, businessID string, from, to time.Time) ([]FreeSlot, error)
}

// ColorStore is the server tier of the color cache.
type ColorStore interface {
	GetBusinessColors(ctx context.Context, businessID string) (*ColorCacheEntry, error)
	UpsertBusinessColors(ctx context.Context, entry ColorCacheEntry) error
}

// ColorTier is a keyed cache tier for extracted palettes.
type ColorTier interface {
	Get(ctx context.Context, key string) (*ColorCacheEntry, bool)
	Set(ctx context.Context, key string, entry ColorCacheEntry)
	Delete(ctx context.Context, key string)
	Purge(ctx context.Context)
	Clear(ctx context.Context)
}

// ColorExtractor derives a palette from a logo URL.
type ColorExtractor interface {
	Extract(ctx context.Context, logoURL string, priority int) (BusinessColors, error)
}

// TokenIssuer generates signed backend JWT tokens for downstream
// services.
type TokenIssuer interface {
	IssueBackendToken(identity *Identity, role Role) (string, error)
}
