package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"leadhub/internal/domain"
)

// Bookings orchestrates the appointment flows against the automation
// platform and the local booking mirror. Every operation is gated on
// the caller's resolved business access.
type Bookings struct {
	gateway domain.BookingGateway
	store   domain.BookingStore
	leads   domain.LeadStore
	logger  *slog.Logger
}

// NewBookings creates the booking usecase.
func NewBookings(g domain.BookingGateway, s domain.BookingStore, l domain.LeadStore, logger *slog.Logger) *Bookings {
	return &Bookings{gateway: g, store: s, leads: l, logger: logger}
}

// VerifyAddress checks serviceability with the automation platform.
func (uc *Bookings) VerifyAddress(ctx context.Context, user *domain.AuthenticatedUser, req domain.AddressVerification) (*domain.AddressResult, error) {
	if !user.HasBusiness(req.BusinessID) {
		return nil, domain.ErrAccessDenied
	}
	return uc.gateway.VerifyAddress(ctx, req)
}

// Book creates the appointment on the platform, then mirrors it
// locally. The mirror write is best-effort: the platform booking is
// the source of truth.
func (uc *Bookings) Book(ctx context.Context, user *domain.AuthenticatedUser, req domain.BookingRequest) (*domain.Booking, error) {
	if !user.HasBusiness(req.BusinessID) {
		return nil, domain.ErrAccessDenied
	}

	lead, err := uc.leads.GetLead(ctx, req.LeadID)
	if err != nil {
		return nil, err
	}
	if lead == nil || lead.BusinessID != req.BusinessID {
		return nil, domain.ErrAccessDenied
	}

	bookingID, err := uc.gateway.CreateBooking(ctx, req)
	if err != nil {
		return nil, err
	}

	booking := domain.Booking{
		ID:         bookingID,
		LeadID:     req.LeadID,
		BusinessID: req.BusinessID,
		Address:    req.Address,
		StartTime:  req.StartTime,
		Status:     domain.BookingStatusScheduled,
	}
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if err := uc.store.CreateBooking(ctx, booking); err != nil {
		uc.logger.Error("booking mirror write failed", "booking_id", booking.ID, "error", err)
	}

	return &booking, nil
}

// Reschedule moves an appointment to a new start time.
func (uc *Bookings) Reschedule(ctx context.Context, user *domain.AuthenticatedUser, bookingID string, startTime time.Time) error {
	booking, err := uc.authorizedBooking(ctx, user, bookingID)
	if err != nil {
		return err
	}

	if err := uc.gateway.RescheduleBooking(ctx, booking.ID, startTime); err != nil {
		return err
	}
	if err := uc.store.UpdateBookingStatus(ctx, booking.ID, domain.BookingStatusRescheduled, startTime); err != nil {
		uc.logger.Error("booking mirror update failed", "booking_id", booking.ID, "error", err)
	}
	return nil
}

// Cancel cancels an appointment.
func (uc *Bookings) Cancel(ctx context.Context, user *domain.AuthenticatedUser, bookingID string) error {
	booking, err := uc.authorizedBooking(ctx, user, bookingID)
	if err != nil {
		return err
	}

	if err := uc.gateway.CancelBooking(ctx, booking.ID); err != nil {
		return err
	}
	if err := uc.store.UpdateBookingStatus(ctx, booking.ID, domain.BookingStatusCancelled, time.Time{}); err != nil {
		uc.logger.Error("booking mirror update failed", "booking_id", booking.ID, "error", err)
	}
	return nil
}

// List returns the bookings of one accessible business.
func (uc *Bookings) List(ctx context.Context, user *domain.AuthenticatedUser, businessID string) ([]domain.Booking, error) {
	if !user.HasBusiness(businessID) {
		return nil, domain.ErrAccessDenied
	}
	return uc.store.ListBookings(ctx, businessID)
}

// FreeSlots returns open calendar windows for one accessible business.
func (uc *Bookings) FreeSlots(ctx context.Context, user *domain.AuthenticatedUser, businessID string, from, to time.Time) ([]domain.FreeSlot, error) {
	if !user.HasBusiness(businessID) {
		return nil, domain.ErrAccessDenied
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: empty slot window", domain.ErrInvalidInput)
	}
	return uc.gateway.FreeSlots(ctx, businessID, from, to)
}

func (uc *Bookings) authorizedBooking(ctx context.Context, user *domain.AuthenticatedUser, bookingID string) (*domain.Booking, error) {
	booking, err := uc.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil || !user.HasBusiness(booking.BusinessID) {
		return nil, domain.ErrAccessDenied
	}
	return booking, nil
}
