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

const eventColumns = `id, title, slug, description, short_description, category, tags,
	event_date, event_time, location, total_seats, available_seats, booked_seats,
	price, currency, banner_image, organizer_id, organizer_name, organizer_email,
	status, approved_by, approved_at, rejection_reason,
	total_bookings, total_revenue, average_rating, total_reviews,
	created_at, updated_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Slug, &e.Description, &e.ShortDescription, &e.Category, &e.Tags,
		&e.EventDate, &e.EventTime, &e.Location, &e.TotalSeats, &e.AvailableSeats, &e.BookedSeats,
		&e.Price, &e.Currency, &e.BannerImage, &e.Organizer.ID, &e.Organizer.Name, &e.Organizer.Email,
		&e.Status, &e.Approval.ApprovedBy, &e.Approval.ApprovedAt, &e.Approval.RejectionReason,
		&e.Stats.TotalBookings, &e.Stats.TotalRevenue, &e.Stats.AverageRating, &e.Stats.TotalReviews,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func getEvent(ctx context.Context, q querier, id string, lock bool) (*model.Event, error) {
	sql := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	e, err := scanEvent(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", classify(err))
	}
	return e, nil
}

func insertEvent(ctx context.Context, q querier, e *model.Event) error {
	if e.Tags == nil {
		e.Tags = []string{}
	}
	_, err := q.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		         $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)`,
		e.ID, e.Title, e.Slug, e.Description, e.ShortDescription, e.Category, e.Tags,
		e.EventDate, e.EventTime, e.Location, e.TotalSeats, e.AvailableSeats, e.BookedSeats,
		e.Price, e.Currency, e.BannerImage, e.Organizer.ID, e.Organizer.Name, e.Organizer.Email,
		e.Status, e.Approval.ApprovedBy, e.Approval.ApprovedAt, e.Approval.RejectionReason,
		e.Stats.TotalBookings, e.Stats.TotalRevenue, e.Stats.AverageRating, e.Stats.TotalReviews,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", classify(err))
	}
	return nil
}

// saveEvent writes every mutable column. Callers hold the row lock.
func saveEvent(ctx context.Context, q querier, e *model.Event) error {
	if e.Tags == nil {
		e.Tags = []string{}
	}
	tag, err := q.Exec(ctx,
		`UPDATE events SET
		   title = $2, slug = $3, description = $4, short_description = $5, category = $6,
		   tags = $7, event_date = $8, event_time = $9, location = $10,
		   total_seats = $11, available_seats = $12, booked_seats = $13,
		   price = $14, currency = $15, banner_image = $16, status = $17,
		   approved_by = $18, approved_at = $19, rejection_reason = $20,
		   total_bookings = $21, total_revenue = $22, average_rating = $23, total_reviews = $24,
		   updated_at = $25
		 WHERE id = $1`,
		e.ID, e.Title, e.Slug, e.Description, e.ShortDescription, e.Category,
		e.Tags, e.EventDate, e.EventTime, e.Location,
		e.TotalSeats, e.AvailableSeats, e.BookedSeats,
		e.Price, e.Currency, e.BannerImage, e.Status,
		e.Approval.ApprovedBy, e.Approval.ApprovedAt, e.Approval.RejectionReason,
		e.Stats.TotalBookings, e.Stats.TotalRevenue, e.Stats.AverageRating, e.Stats.TotalReviews,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetEvent returns a single event or ErrNotFound.
func (r *Postgres) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return getEvent(ctx, r.db, id, false)
}

// ListEvents returns events matching f, newest first.
func (r *Postgres) ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Query != "" {
		p := arg("%" + f.Query + "%")
		where = append(where, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if f.OrganizerID != "" {
		where = append(where, "organizer_id = "+arg(f.OrganizerID))
	}

	sql := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		sql += ` LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg(f.Offset())
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// DeleteEvent removes an event. Its bookings keep their snapshots.
func (r *Postgres) DeleteEvent(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
