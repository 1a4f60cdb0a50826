package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadhub/internal/domain"
	"leadhub/internal/usecase"
)

type stubAssignmentStore struct {
	profiles   []domain.Profile
	assigned   [][2]string
	unassigned [][2]string
}

func (s *stubAssignmentStore) ListProfiles(_ context.Context) ([]domain.Profile, error) {
	return s.profiles, nil
}

func (s *stubAssignmentStore) AssignBusiness(_ context.Context, profileID, businessID string) error {
	s.assigned = append(s.assigned, [2]string{profileID, businessID})
	return nil
}

func (s *stubAssignmentStore) UnassignBusiness(_ context.Context, profileID, businessID string) error {
	s.unassigned = append(s.unassigned, [2]string{profileID, businessID})
	return nil
}

type stubBusinessStore struct {
	dashboard []domain.AccessibleBusiness
	assigned  map[string][]domain.AccessibleBusiness
}

func (s *stubBusinessStore) ListDashboardBusinesses(_ context.Context) ([]domain.AccessibleBusiness, error) {
	return s.dashboard, nil
}

func (s *stubBusinessStore) ListBusinessesForUser(_ context.Context, userID string) ([]domain.AccessibleBusiness, error) {
	return s.assigned[userID], nil
}

// noopCache satisfies the auth cache port where the test only needs
// invalidation tracking.
type noopCache struct {
	invalidated []string
}

func (n *noopCache) GetIdentity(string) (*domain.Identity, bool)      { return nil, false }
func (n *noopCache) GetIdentityStale(string) (*domain.Identity, bool) { return nil, false }
func (n *noopCache) SetIdentity(string, domain.Identity)              {}
func (n *noopCache) GetUser(string) (*domain.AuthenticatedUser, bool) { return nil, false }
func (n *noopCache) GetUserStale(string) (*domain.AuthenticatedUser, bool) {
	return nil, false
}
func (n *noopCache) SetUser(string, domain.AuthenticatedUser) {}
func (n *noopCache) GetBusinesses(string) ([]domain.AccessibleBusiness, bool) {
	return nil, false
}
func (n *noopCache) GetBusinessesStale(string) ([]domain.AccessibleBusiness, bool) {
	return nil, false
}
func (n *noopCache) SetBusinesses(string, []domain.AccessibleBusiness) {}
func (n *noopCache) GetAvailableBusinesses() ([]domain.AccessibleBusiness, bool) {
	return nil, false
}
func (n *noopCache) GetAvailableBusinessesStale() ([]domain.AccessibleBusiness, bool) {
	return nil, false
}
func (n *noopCache) SetAvailableBusinesses([]domain.AccessibleBusiness) {}
func (n *noopCache) Invalidate(userID string) {
	n.invalidated = append(n.invalidated, userID)
}

func newAdminHandler(assignments *stubAssignmentStore, businesses *stubBusinessStore, cache *noopCache) *AdminHandler {
	uc := usecase.NewAdmin(assignments, businesses, cache, discardLogger())
	return NewAdminHandler(uc)
}

func TestAdminHandler_ListUsers(t *testing.T) {
	assignments := &stubAssignmentStore{profiles: []domain.Profile{
		{ID: "p1", Email: "a@example.com", Role: domain.RoleSuperAdmin},
		{ID: "p2", Email: "b@example.com", Role: domain.RoleRegular},
	}}
	h := newAdminHandler(assignments, &stubBusinessStore{}, &noopCache{})

	c, rec := newContext(t, http.MethodGet, "/api/admin/users", "")
	authenticate(c, testAdmin())

	require.NoError(t, h.ListUsers(c))
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var out []profileResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out, 2)
	assert.Equal(t, "super_admin", out[0].Role)
	assert.Equal(t, "regular", out[1].Role)
}

func TestAdminHandler_ListUsersDeniedForRegular(t *testing.T) {
	h := newAdminHandler(&stubAssignmentStore{}, &stubBusinessStore{}, &noopCache{})

	c, rec := newContext(t, http.MethodGet, "/api/admin/users", "")
	authenticate(c, testUser())

	require.NoError(t, h.ListUsers(c))
	requireErrorCode(t, rec, http.StatusForbidden, "access_denied")
}

func TestAdminHandler_Assign(t *testing.T) {
	assignments := &stubAssignmentStore{}
	cache := &noopCache{}
	h := newAdminHandler(assignments, &stubBusinessStore{}, cache)

	c, rec := newContext(t, http.MethodPost, "/api/admin/assignments", `{"profileId": "p1", "businessId": "b1"}`)
	authenticate(c, testAdmin())

	require.NoError(t, h.Assign(c))
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var resp assignmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "p1", resp.ProfileID)
	assert.Equal(t, "b1", resp.BusinessID)

	assert.Equal(t, [][2]string{{"p1", "b1"}}, assignments.assigned)
	assert.Equal(t, []string{"p1"}, cache.invalidated)
}

func TestAdminHandler_AssignMissingFields(t *testing.T) {
	h := newAdminHandler(&stubAssignmentStore{}, &stubBusinessStore{}, &noopCache{})

	c, rec := newContext(t, http.MethodPost, "/api/admin/assignments", `{"profileId": "p1"}`)
	authenticate(c, testAdmin())

	require.NoError(t, h.Assign(c))
	requireErrorCode(t, rec, http.StatusBadRequest, "invalid_request")
}

func TestAdminHandler_Unassign(t *testing.T) {
	assignments := &stubAssignmentStore{}
	h := newAdminHandler(assignments, &stubBusinessStore{}, &noopCache{})

	c, rec := newContext(t, http.MethodDelete, "/api/admin/assignments", `{"profileId": "p1", "businessId": "b1"}`)
	authenticate(c, testAdmin())

	require.NoError(t, h.Unassign(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [][2]string{{"p1", "b1"}}, assignments.unassigned)
}
