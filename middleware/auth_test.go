package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadhub/internal/domain"
	"leadhub/internal/usecase"
)

type authTestIdentity struct {
	identity   *domain.Identity
	err        error
	terminated []string
}

func (s *authTestIdentity) ValidateSession(_ context.Context, _ string) (*domain.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func (s *authTestIdentity) TerminateSession(_ context.Context, sessionID string) error {
	s.terminated = append(s.terminated, sessionID)
	return nil
}

type authTestProfiles struct {
	profile *domain.Profile
}

func (s *authTestProfiles) GetProfile(_ context.Context, _ string) (*domain.Profile, error) {
	return s.profile, nil
}

type authTestBusinesses struct {
	assigned []domain.AccessibleBusiness
}

func (s *authTestBusinesses) ListDashboardBusinesses(_ context.Context) ([]domain.AccessibleBusiness, error) {
	return nil, nil
}

func (s *authTestBusinesses) ListBusinessesForUser(_ context.Context, _ string) ([]domain.AccessibleBusiness, error) {
	return s.assigned, nil
}

type authTestCache struct{}

func (authTestCache) GetIdentity(string) (*domain.Identity, bool)                  { return nil, false }
func (authTestCache) GetIdentityStale(string) (*domain.Identity, bool)             { return nil, false }
func (authTestCache) SetIdentity(string, domain.Identity)                          {}
func (authTestCache) GetUser(string) (*domain.AuthenticatedUser, bool)             { return nil, false }
func (authTestCache) GetUserStale(string) (*domain.AuthenticatedUser, bool)        { return nil, false }
func (authTestCache) SetUser(string, domain.AuthenticatedUser)                     {}
func (authTestCache) GetBusinesses(string) ([]domain.AccessibleBusiness, bool)     { return nil, false }
func (authTestCache) GetBusinessesStale(string) ([]domain.AccessibleBusiness, bool) {
	return nil, false
}
func (authTestCache) SetBusinesses(string, []domain.AccessibleBusiness)         {}
func (authTestCache) GetAvailableBusinesses() ([]domain.AccessibleBusiness, bool) { return nil, false }
func (authTestCache) GetAvailableBusinessesStale() ([]domain.AccessibleBusiness, bool) {
	return nil, false
}
func (authTestCache) SetAvailableBusinesses([]domain.AccessibleBusiness) {}
func (authTestCache) Invalidate(string)                                  {}

type authTestBackoff struct{}

func (authTestBackoff) RecordRateLimit(string, time.Duration) {}
func (authTestBackoff) RecordSuccess(string)                  {}
func (authTestBackoff) IsRateLimited(string) bool             { return false }
func (authTestBackoff) Delay(string) time.Duration            { return 0 }

type authTestMonitor struct {
	anomalies []domain.Anomaly
	observed  []domain.SecurityContext
}

func (s *authTestMonitor) Observe(sc domain.SecurityContext) []domain.Anomaly {
	s.observed = append(s.observed, sc)
	return s.anomalies
}

type authTestTokens struct {
	token string
	err   error
}

func (s *authTestTokens) IssueBackendToken(_ *domain.Identity, _ domain.Role) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

type authTestEnv struct {
	identity *authTestIdentity
	monitor  *authTestMonitor
	tokens   *authTestTokens
	server   *echo.Echo
	sawUser  *domain.AuthenticatedUser
}

func newAuthTestEnv(identity *authTestIdentity) *authTestEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &authTestEnv{
		identity: identity,
		monitor:  &authTestMonitor{},
		tokens:   &authTestTokens{token: "tok-123"},
	}

	profiles := &authTestProfiles{profile: &domain.Profile{ID: "user-1", Role: domain.RoleRegular}}
	businesses := &authTestBusinesses{assigned: []domain.AccessibleBusiness{{ID: "10", Name: "First"}}}
	access := usecase.NewResolveAccess(businesses, authTestCache{}, authTestBackoff{}, logger)
	resolver := usecase.NewResolveUser(identity, profiles, access, authTestCache{}, authTestBackoff{}, logger)

	e := echo.New()
	e.Use(Auth(AuthConfig{
		Resolver: resolver,
		Monitor:  env.monitor,
		Identity: identity,
		Tokens:   env.tokens,
		Logger:   logger,
	}))
	e.GET("/api/test", func(c echo.Context) error {
		if user, ok := UserFrom(c); ok {
			env.sawUser = user
		}
		return c.String(http.StatusOK, "ok")
	})
	env.server = e
	return env
}

func authRequest() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.AddCookie(&http.Cookie{Name: "ory_kratos_session", Value: "abc"})
	req.Header.Set("User-Agent", "test-agent/1.0")
	return req
}

func validIdentity() *authTestIdentity {
	return &authTestIdentity{identity: &domain.Identity{
		UserID:    "user-1",
		Email:     "user@example.com",
		SessionID: "sess-1",
	}}
}

func TestAuth_Success(t *testing.T) {
	env := newAuthTestEnv(validIdentity())

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, authRequest())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "sess-1", rec.Header().Get("X-Session-Id"))
	assert.Equal(t, "tok-123", rec.Header().Get("X-Backend-Token"))

	require.NotNil(t, env.sawUser)
	assert.Equal(t, "user-1", env.sawUser.Identity.UserID)
	require.Len(t, env.sawUser.Businesses, 1)
}

func TestAuth_PropagatesIncomingRequestID(t *testing.T) {
	env := newAuthTestEnv(validIdentity())

	req := authRequest()
	req.Header.Set("X-Request-Id", "req-abc")
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, "req-abc", rec.Header().Get("X-Request-Id"))
	require.Len(t, env.monitor.observed, 1)
	assert.Equal(t, "req-abc", env.monitor.observed[0].RequestID)
}

func TestAuth_NoCookie(t *testing.T) {
	env := newAuthTestEnv(validIdentity())

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, env.sawUser)
}

func TestAuth_InvalidSession(t *testing.T) {
	env := newAuthTestEnv(&authTestIdentity{err: domain.ErrAuthFailed})

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, authRequest())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RateLimited(t *testing.T) {
	env := newAuthTestEnv(&authTestIdentity{err: &domain.RateLimitedError{RetryAfter: 30 * time.Second}})

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, authRequest())

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAuth_TransientProviderFailure(t *testing.T) {
	env := newAuthTestEnv(&authTestIdentity{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, authRequest())

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuth_HighRiskAnomalySetsAlertHeader(t *testing.T) {
	env := newAuthTestEnv(validIdentity())
	env.monitor.anomalies = []domain.Anomaly{
		{Type: domain.AnomalyIPChange, Risk: domain.RiskHigh},
	}

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, authRequest())

	assert.Equal(t, http.StatusOK, rec.Code, "high risk alerts but does not block")
	assert.Equal(t, "ip_change", rec.Header().Get("X-Security-Alert"))
	assert.Empty(t, env.identity.terminated)
}

func TestAuth_MediumRiskAnomalyIsSilent(t *testing.T) {
	env := newAuthTestEnv(validIdentity())
	env.monitor.anomalies = []domain.Anomaly{
		{Type: domain.AnomalyConcurrentSessions, Risk: domain.RiskMedium},
	}

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, authRequest())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Security-Alert"))
}

func TestAuth_CriticalAnomalyTerminatesSession(t *testing.T) {
	env := newAuthTestEnv(validIdentity())
	env.monitor.anomalies = []domain.Anomaly{
		{Type: domain.AnomalyFingerprintMismatch, Risk: domain.RiskCritical},
	}

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, authRequest())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, []string{"sess-1"}, env.identity.terminated)
	assert.Nil(t, env.sawUser, "the handler never runs for a terminated session")

	var cleared bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "ory_kratos_session" && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "the session cookie is cleared on termination")
}

func TestAuth_TokenFailureDoesNotBlockRequest(t *testing.T) {
	env := newAuthTestEnv(validIdentity())
	env.tokens.err = domain.ErrTokenGeneration

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, authRequest())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Backend-Token"))
}

func TestAuth_MonitorSeesFingerprint(t *testing.T) {
	env := newAuthTestEnv(validIdentity())

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, authRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, env.monitor.observed, 1)
	sc := env.monitor.observed[0]
	assert.Equal(t, "user-1", sc.UserID)
	assert.Equal(t, "sess-1", sc.SessionID)
	assert.Equal(t, "test-agent/1.0", sc.UserAgent)
	assert.NotEmpty(t, sc.Fingerprint)
	assert.Equal(t, "/api/test", sc.Path)
}
