package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"leadhub/internal/domain"
	"leadhub/middleware"
)

// SessionHandler serves the current-user endpoint the frontend boots
// from.
type SessionHandler struct{}

// NewSessionHandler creates a new session handler.
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

type sessionUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionResponse struct {
	User            sessionUser                 `json:"user"`
	Businesses      []domain.AccessibleBusiness `json:"businesses"`
	CurrentBusiness *domain.AccessibleBusiness  `json:"currentBusiness,omitempty"`
	Stale           bool                        `json:"stale"`
}

// Me returns the resolved user, their accessible businesses, and
// whether the data came from the degraded cache window.
func (h *SessionHandler) Me(c echo.Context) error {
	result, ok := middleware.AuthResultFrom(c)
	if !ok || result.User == nil {
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")
	}

	user := result.User
	return respond(c, http.StatusOK, sessionResponse{
		User: sessionUser{
			ID:        user.Identity.UserID,
			Email:     user.Identity.Email,
			Role:      user.Role.String(),
			CreatedAt: user.Identity.CreatedAt,
		},
		Businesses:      user.Businesses,
		CurrentBusiness: user.CurrentBusiness,
		Stale:           result.Stale,
	})
}
