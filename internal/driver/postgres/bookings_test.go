package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadhub/internal/domain"
)

func bookingRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "lead_id", "business_id", "address_line1", "address_line2",
		"city", "state", "zip", "start_time", "status", "created_at", "updated_at"})
}

func TestListBookings(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, lead_id, business_id.*FROM bookings.*WHERE business_id = \\$1.*ORDER BY start_time").
		WithArgs("b1").
		WillReturnRows(bookingRows().
			AddRow("bk-1", "l1", "b1", "123 Main St", strPtr("Apt 4"), "Austin", "TX", "78701", now, "confirmed", now, now).
			AddRow("bk-2", "l2", "b1", "456 Oak Ave", (*string)(nil), "Austin", "TX", "78702", now.Add(time.Hour), "confirmed", now, now))

	bookings, err := repo.ListBookings(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "Apt 4", bookings[0].Address.Line2)
	assert.Empty(t, bookings[1].Address.Line2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBooking_AbsentIsNil(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, lead_id, business_id.*FROM bookings.*WHERE id = \\$1").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	booking, err := repo.GetBooking(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, booking)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)
	start := time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC)

	booking := domain.Booking{
		ID:         "bk-1",
		LeadID:     "l1",
		BusinessID: "b1",
		Address: domain.Address{
			Line1: "123 Main St",
			City:  "Austin",
			State: "TX",
			Zip:   "78701",
		},
		StartTime: start,
		Status:    "confirmed",
	}

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs("bk-1", "l1", "b1", "123 Main St", "", "Austin", "TX", "78701", start, "confirmed").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.CreateBooking(ctx, booking))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStatus_Reschedule(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)
	start := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE bookings.*SET status = \\$2").
		WithArgs("bk-1", "rescheduled", &start).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateBookingStatus(ctx, "bk-1", "rescheduled", start))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStatus_CancelKeepsStartTime(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	// A zero start time means "leave start_time alone" via COALESCE.
	mock.ExpectExec("UPDATE bookings.*SET status = \\$2").
		WithArgs("bk-1", "cancelled", (*time.Time)(nil)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateBookingStatus(ctx, "bk-1", "cancelled", time.Time{}))
	require.NoError(t, mock.ExpectationsWereMet())
}
