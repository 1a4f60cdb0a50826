package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"leadhub/internal/usecase"
	"leadhub/middleware"
)

// DashboardHandler serves metric cards and lead views.
type DashboardHandler struct {
	uc     *usecase.Dashboard
	logger *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(uc *usecase.Dashboard, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{uc: uc, logger: logger}
}

// Metrics processes GET /api/metrics.
func (h *DashboardHandler) Metrics(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")
	}

	metrics, err := h.uc.Metrics(c.Request().Context(), user)
	if err != nil {
		h.logger.Error("dashboard metrics failed", "user_id", user.Identity.UserID, "error", err)
		return mapDomainError(c, err)
	}
	return respond(c, http.StatusOK, metrics)
}

// Leads processes GET /api/businesses/:businessID/leads.
func (h *DashboardHandler) Leads(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	leads, err := h.uc.Leads(c.Request().Context(), user, c.Param("businessID"), limit)
	if err != nil {
		return mapDomainError(c, err)
	}
	return respond(c, http.StatusOK, leads)
}

// Lead processes GET /api/leads/:leadID.
func (h *DashboardHandler) Lead(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")
	}

	lead, err := h.uc.Lead(c.Request().Context(), user, c.Param("leadID"))
	if err != nil {
		return mapDomainError(c, err)
	}
	return respond(c, http.StatusOK, lead)
}
