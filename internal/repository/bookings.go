package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, booking_code, user_id, user_name, user_email, user_phone,
	event_id, event_title, event_date, event_location, event_banner,
	number_of_seats, price_per_seat, total_amount, payment_method, payment_status,
	status, ticket_code, is_cancelled, cancelled_at, cancelled_by, cancellation_reason,
	booked_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID, &b.BookingID, &b.User.ID, &b.User.Name, &b.User.Email, &b.User.Phone,
		&b.Event.ID, &b.Event.Title, &b.Event.EventDate, &b.Event.Location, &b.Event.BannerImage,
		&b.NumberOfSeats, &b.PricePerSeat, &b.TotalAmount, &b.Payment.Method, &b.Payment.Status,
		&b.Status, &b.TicketCode, &b.Cancellation.IsCancelled, &b.Cancellation.CancelledAt,
		&b.Cancellation.CancelledBy, &b.Cancellation.Reason,
		&b.BookedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func getBooking(ctx context.Context, q querier, id string, lock bool) (*model.Booking, error) {
	sql := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	b, err := scanBooking(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", classify(err))
	}
	return b, nil
}

func insertBooking(ctx context.Context, q querier, b *model.Booking) error {
	_, err := q.Exec(ctx,
		`INSERT INTO bookings (`+bookingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		         $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		b.ID, b.BookingID, b.User.ID, b.User.Name, b.User.Email, b.User.Phone,
		b.Event.ID, b.Event.Title, b.Event.EventDate, b.Event.Location, b.Event.BannerImage,
		b.NumberOfSeats, b.PricePerSeat, b.TotalAmount, b.Payment.Method, b.Payment.Status,
		b.Status, b.TicketCode, b.Cancellation.IsCancelled, b.Cancellation.CancelledAt,
		b.Cancellation.CancelledBy, b.Cancellation.Reason,
		b.BookedAt, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", classify(err))
	}
	return nil
}

func saveBookingStatus(ctx context.Context, q querier, b *model.Booking) error {
	tag, err := q.Exec(ctx,
		`UPDATE bookings SET status = $2, is_cancelled = $3, cancelled_at = $4,
		   cancelled_by = $5, cancellation_reason = $6, updated_at = $7
		 WHERE id = $1`,
		b.ID, b.Status, b.Cancellation.IsCancelled, b.Cancellation.CancelledAt,
		b.Cancellation.CancelledBy, b.Cancellation.Reason, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetBooking returns a single booking or ErrNotFound.
func (r *Postgres) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return getBooking(ctx, r.db, id, false)
}

// ListBookings returns bookings matching f, newest first.
func (r *Postgres) ListBookings(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, "user_id = $"+strconv.Itoa(len(args)))
	}
	if f.EventID != "" {
		args = append(args, f.EventID)
		where = append(where, "event_id = $"+strconv.Itoa(len(args)))
	}
	sql := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// DeleteBooking removes the booking record only. Seat inventory and stats
// are left as they are.
func (r *Postgres) DeleteBooking(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
