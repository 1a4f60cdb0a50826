package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"leadhub/internal/domain"
	"leadhub/internal/usecase"
	"leadhub/middleware"
)

// ColorHandler serves brand palette lookups for business theming.
type ColorHandler struct {
	pipeline *usecase.ColorPipeline
}

// NewColorHandler creates a new color handler.
func NewColorHandler(pipeline *usecase.ColorPipeline) *ColorHandler {
	return &ColorHandler{pipeline: pipeline}
}

type colorRequest struct {
	LogoURL    string `json:"logoUrl"`
	BusinessID string `json:"businessId,omitempty"`
	Priority   int    `json:"priority,omitempty"`
	All        bool   `json:"all,omitempty"`
}

// Get processes POST /api/colors. Extraction never fails the request:
// the pipeline degrades to the default palette.
func (h *ColorHandler) Get(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")
	}

	var req colorRequest
	if err := c.Bind(&req); err != nil || req.LogoURL == "" {
		return respondError(c, http.StatusBadRequest, "invalid_request", "logoUrl is required")
	}
	if req.BusinessID != "" && !user.HasBusiness(req.BusinessID) {
		return mapDomainError(c, domain.ErrAccessDenied)
	}

	colors := h.pipeline.Get(c.Request().Context(), req.LogoURL, req.BusinessID, req.Priority)
	return respond(c, http.StatusOK, colors)
}

// Invalidate processes POST /api/colors/invalidate.
func (h *ColorHandler) Invalidate(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")
	}
	if user.Role != domain.RoleSuperAdmin {
		return mapDomainError(c, domain.ErrAccessDenied)
	}

	var req colorRequest
	if err := c.Bind(&req); err != nil || (req.LogoURL == "" && !req.All) {
		return respondError(c, http.StatusBadRequest, "invalid_request", "logoUrl or all is required")
	}

	if req.All {
		h.pipeline.InvalidateAll(c.Request().Context())
	} else {
		h.pipeline.Invalidate(c.Request().Context(), req.LogoURL)
	}
	return respond(c, http.StatusOK, map[string]bool{"invalidated": true})
}
