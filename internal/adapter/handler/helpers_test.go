package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"leadhub/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

// authenticate stores the auth result the way the session middleware
// does.
func authenticate(c echo.Context, user *domain.AuthenticatedUser) {
	c.Set("auth_result", domain.AuthResult{Status: domain.AuthOK, User: user})
}

func testUser(businesses ...domain.AccessibleBusiness) *domain.AuthenticatedUser {
	u := &domain.AuthenticatedUser{
		Identity: domain.Identity{
			UserID:    "user-1",
			Email:     "user@example.com",
			SessionID: "sess-1",
			CreatedAt: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		},
		Role:       domain.RoleRegular,
		Businesses: businesses,
	}
	if len(businesses) > 0 {
		u.CurrentBusiness = &businesses[0]
	}
	return u
}

func testAdmin(businesses ...domain.AccessibleBusiness) *domain.AuthenticatedUser {
	u := testUser(businesses...)
	u.Role = domain.RoleSuperAdmin
	return u
}

// decodeEnvelope unmarshals the uniform response shape.
type decodedEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) decodedEnvelope {
	t.Helper()
	var env decodedEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func assertHTTPError(t *testing.T, err error, status int) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, status, he.Code)
}

func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code)
	env := decodeEnvelope(t, rec)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	require.Equal(t, code, env.Error.Code)
}

// Shared port stubs for building real usecases under the handlers.

type stubLeadStore struct {
	leads  map[string]*domain.Lead
	listed []domain.Lead
}

func (s *stubLeadStore) ListLeads(_ context.Context, _ string, _ int) ([]domain.Lead, error) {
	return s.listed, nil
}

func (s *stubLeadStore) GetLead(_ context.Context, leadID string) (*domain.Lead, error) {
	return s.leads[leadID], nil
}

type stubMetricsStore struct {
	metrics domain.DashboardMetrics
	lastIDs []string
}

func (s *stubMetricsStore) DashboardMetrics(_ context.Context, businessIDs []string) (*domain.DashboardMetrics, error) {
	s.lastIDs = businessIDs
	m := s.metrics
	return &m, nil
}

type stubBookingStore struct {
	bookings map[string]*domain.Booking
	created  []domain.Booking
}

func (s *stubBookingStore) ListBookings(_ context.Context, businessID string) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range s.bookings {
		if b.BusinessID == businessID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubBookingStore) GetBooking(_ context.Context, bookingID string) (*domain.Booking, error) {
	if s.bookings == nil {
		return nil, nil
	}
	return s.bookings[bookingID], nil
}

func (s *stubBookingStore) CreateBooking(_ context.Context, b domain.Booking) error {
	s.created = append(s.created, b)
	return nil
}

func (s *stubBookingStore) UpdateBookingStatus(_ context.Context, _, _ string, _ time.Time) error {
	return nil
}

type stubBookingGateway struct {
	bookingID string
	createErr error
	slots     []domain.FreeSlot
}

func (s *stubBookingGateway) VerifyAddress(_ context.Context, req domain.AddressVerification) (*domain.AddressResult, error) {
	return &domain.AddressResult{Serviceable: true, Normalized: req.Address}, nil
}

func (s *stubBookingGateway) CreateBooking(_ context.Context, _ domain.BookingRequest) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	return s.bookingID, nil
}

func (s *stubBookingGateway) RescheduleBooking(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (s *stubBookingGateway) CancelBooking(_ context.Context, _ string) error { return nil }

func (s *stubBookingGateway) FreeSlots(_ context.Context, _ string, _, _ time.Time) ([]domain.FreeSlot, error) {
	return s.slots, nil
}
