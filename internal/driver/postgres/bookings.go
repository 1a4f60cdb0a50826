package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"leadhub/internal/domain"
)

// ListBookings returns bookings for one business, soonest first.
func (r *Repository) ListBookings(ctx context.Context, businessID string) ([]domain.Booking, error) {
	query := `
		SELECT id, lead_id, business_id, address_line1, address_line2, city, state, zip,
		       start_time, status, created_at, updated_at
		FROM bookings
		WHERE business_id = $1
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, businessID)
	if err != nil {
		r.logger.Error("error fetching bookings", "business_id", businessID, "error", err)
		return nil, fmt.Errorf("%w: list bookings: %w", domain.ErrDatabaseUnavailable, err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan booking: %w", domain.ErrDatabaseUnavailable, err)
		}
		bookings = append(bookings, *booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate bookings: %w", domain.ErrDatabaseUnavailable, err)
	}

	return bookings, nil
}

// GetBooking fetches one booking by id, nil when absent.
func (r *Repository) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	query := `
		SELECT id, lead_id, business_id, address_line1, address_line2, city, state, zip,
		       start_time, status, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("error fetching booking", "booking_id", bookingID, "error", err)
		return nil, fmt.Errorf("%w: fetch booking: %w", domain.ErrDatabaseUnavailable, err)
	}
	return booking, nil
}

// CreateBooking inserts the local mirror of an automation-platform
// booking.
func (r *Repository) CreateBooking(ctx context.Context, b domain.Booking) error {
	query := `
		INSERT INTO bookings (id, lead_id, business_id, address_line1, address_line2,
		                      city, state, zip, start_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`

	_, err := r.db.Exec(ctx, query,
		b.ID, b.LeadID, b.BusinessID,
		b.Address.Line1, b.Address.Line2, b.Address.City, b.Address.State, b.Address.Zip,
		b.StartTime, b.Status)
	if err != nil {
		r.logger.Error("error creating booking", "booking_id", b.ID, "error", err)
		return fmt.Errorf("%w: create booking: %w", domain.ErrDatabaseUnavailable, err)
	}
	return nil
}

// UpdateBookingStatus sets status and, when non-zero, the new start
// time (reschedule).
func (r *Repository) UpdateBookingStatus(ctx context.Context, bookingID, status string, startTime time.Time) error {
	query := `
		UPDATE bookings
		SET status = $2,
		    start_time = COALESCE($3, start_time),
		    updated_at = NOW()
		WHERE id = $1
	`

	var start *time.Time
	if !startTime.IsZero() {
		start = &startTime
	}
	if _, err := r.db.Exec(ctx, query, bookingID, status, start); err != nil {
		r.logger.Error("error updating booking", "booking_id", bookingID, "error", err)
		return fmt.Errorf("%w: update booking: %w", domain.ErrDatabaseUnavailable, err)
	}
	return nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b     domain.Booking
		line2 *string
	)
	err := row.Scan(&b.ID, &b.LeadID, &b.BusinessID,
		&b.Address.Line1, &line2, &b.Address.City, &b.Address.State, &b.Address.Zip,
		&b.StartTime, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if line2 != nil {
		b.Address.Line2 = *line2
	}
	return &b, nil
}
