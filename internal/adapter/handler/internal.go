package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"leadhub/internal/domain"
	"leadhub/internal/usecase"
)

// InternalHandler serves service-to-service endpoints guarded by the
// shared-secret middleware, not the session middleware.
type InternalHandler struct {
	resolver *usecase.ResolveUser
	cache    domain.AuthCache
	logger   *slog.Logger
}

// NewInternalHandler creates a new internal handler.
func NewInternalHandler(resolver *usecase.ResolveUser, cache domain.AuthCache, logger *slog.Logger) *InternalHandler {
	return &InternalHandler{resolver: resolver, cache: cache, logger: logger}
}

// Validate answers auth subrequests from the edge proxy: resolve the
// forwarded session cookie and expose the identity as headers.
func (h *InternalHandler) Validate(c echo.Context) error {
	cookie, err := c.Cookie("ory_kratos_session")
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "session cookie not found")
	}

	result := h.resolver.Execute(c.Request().Context(), cookie.Value)
	if !result.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, reasonHeader(result))
	}

	user := result.User
	c.Response().Header().Set("X-User-Id", user.Identity.UserID)
	c.Response().Header().Set("X-User-Email", user.Identity.Email)
	c.Response().Header().Set("X-User-Role", user.Role.String())
	return c.NoContent(http.StatusOK)
}

type invalidateRequest struct {
	UserID string `json:"userId"`
}

// InvalidateCache drops a user's cached auth state after an external
// permission change.
func (h *InternalHandler) InvalidateCache(c echo.Context) error {
	var req invalidateRequest
	if err := c.Bind(&req); err != nil || req.UserID == "" {
		return respondError(c, http.StatusBadRequest, "invalid_request", "userId is required")
	}

	h.cache.Invalidate(req.UserID)
	h.logger.Info("auth cache invalidated", "user_id", req.UserID, "remote_addr", c.RealIP())
	return respond(c, http.StatusOK, map[string]bool{"invalidated": true})
}

func reasonHeader(result domain.AuthResult) string {
	if result.Reason != "" {
		return result.Reason
	}
	return "authentication_required"
}
