package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"leadhub/internal/domain"
	"leadhub/internal/usecase"
	"leadhub/middleware"
)

// BookingHandler serves the appointment flow endpoints.
type BookingHandler struct {
	uc     *usecase.Bookings
	logger *slog.Logger
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(uc *usecase.Bookings, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{uc: uc, logger: logger}
}

// VerifyAddress processes POST /api/bookings/verify-address.
func (h *BookingHandler) VerifyAddress(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")
	}

	var req domain.AddressVerification
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid_request", "malformed request body")
	}

	result, err := h.uc.VerifyAddress(c.Request().Context(), user, req)
	if err != nil {
		return mapDomainError(c, err)
	}
	return respond(c, http.StatusOK, result)
}

// Create processes POST /api/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")
	}

	var req domain.BookingRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if req.LeadID == "" || req.BusinessID == "" || req.StartTime.IsZero() {
		return respondError(c, http.StatusBadRequest, "invalid_request", "leadId, businessId and startTime are required")
	}

	booking, err := h.uc.Book(c.Request().Context(), user, req)
	if err != nil {
		h.logger.Error("booking create failed", "lead_id", req.LeadID, "business_id", req.BusinessID, "error", err)
		return mapDomainError(c, err)
	}
	return respondCreated(c, booking)
}

type rescheduleRequest struct {
	StartTime time.Time `json:"startTime"`
}

// Reschedule processes POST /api/bookings/:bookingID/reschedule.
func (h *BookingHandler) Reschedule(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")
	}

	var req rescheduleRequest
	if err := c.Bind(&req); err != nil || req.StartTime.IsZero() {
		return respondError(c, http.StatusBadRequest, "invalid_request", "startTime is required")
	}

	if err := h.uc.Reschedule(c.Request().Context(), user, c.Param("bookingID"), req.StartTime); err != nil {
		return mapDomainError(c, err)
	}
	return respond(c, http.StatusOK, map[string]string{"status": domain.BookingStatusRescheduled})
}

// Cancel processes POST /api/bookings/:bookingID/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")
	}

	if err := h.uc.Cancel(c.Request().Context(), user, c.Param("bookingID")); err != nil {
		return mapDomainError(c, err)
	}
	return respond(c, http.StatusOK, map[string]string{"status": domain.BookingStatusCancelled})
}

// List processes GET /api/businesses/:businessID/bookings.
func (h *BookingHandler) List(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")
	}

	bookings, err := h.uc.List(c.Request().Context(), user, c.Param("businessID"))
	if err != nil {
		return mapDomainError(c, err)
	}
	return respond(c, http.StatusOK, bookings)
}

// FreeSlots processes GET /api/businesses/:businessID/slots.
func (h *BookingHandler) FreeSlots(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "authentication_required", "authentication required")
	}

	from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid_request", "from must be RFC3339")
	}
	to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid_request", "to must be RFC3339")
	}

	slots, err := h.uc.FreeSlots(c.Request().Context(), user, c.Param("businessID"), from, to)
	if err != nil {
		return mapDomainError(c, err)
	}
	return respond(c, http.StatusOK, slots)
}
