package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"leadhub/internal/domain"
	"leadhub/internal/usecase"
	"leadhub/middleware"
)

// AdminHandler serves the super-admin assignment panel.
type AdminHandler struct {
	uc *usecase.Admin
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(uc *usecase.Admin) *AdminHandler {
	return &AdminHandler{uc: uc}
}

type profileResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ListUsers processes GET /api/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	actor, ok := middleware.UserFrom(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")
	}

	profiles, err := h.uc.ListUsers(c.Request().Context(), actor)
	if err != nil {
		return mapDomainError(c, err)
	}

	out := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profileResponse{ID: p.ID, Email: p.Email, Role: p.Role.String()})
	}
	return respond(c, http.StatusOK, out)
}

// ListBusinesses processes GET /api/admin/businesses.
func (h *AdminHandler) ListBusinesses(c echo.Context) error {
	actor, ok := middleware.UserFrom(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")
	}

	businesses, err := h.uc.ListBusinesses(c.Request().Context(), actor)
	if err != nil {
		return mapDomainError(c, err)
	}
	return respond(c, http.StatusOK, businesses)
}

type assignmentRequest struct {
	ProfileID  string `json:"profileId"`
	BusinessID string `json:"businessId"`
}

type assignmentResponse struct {
	ProfileID  string    `json:"profileId"`
	BusinessID string    `json:"businessId"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Assign processes POST /api/admin/assignments.
func (h *AdminHandler) Assign(c echo.Context) error {
	return h.mutate(c, h.uc.Assign)
}

// Unassign processes DELETE /api/admin/assignments.
func (h *AdminHandler) Unassign(c echo.Context) error {
	return h.mutate(c, h.uc.Unassign)
}

func (h *AdminHandler) mutate(c echo.Context, op func(ctx context.Context, actor *domain.AuthenticatedUser, profileID, businessID string) error) error {
	actor, ok := middleware.UserFrom(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")
	}

	var req assignmentRequest
	if err := c.Bind(&req); err != nil || req.ProfileID == "" || req.BusinessID == "" {
		return respondError(c, http.StatusBadRequest, "invalid_request", "profileId and businessId are required")
	}

	if err := op(c.Request().Context(), actor, req.ProfileID, req.BusinessID); err != nil {
		return mapDomainError(c, err)
	}
	return respond(c, http.StatusOK, assignmentResponse{
		ProfileID:  req.ProfileID,
		BusinessID: req.BusinessID,
		UpdatedAt:  time.Now().UTC(),
	})
}
