package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgx shared by the pool and a transaction, so the
// same query helpers run inside and outside WithTx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is the Store backed by a pgx connection pool.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres constructs a Postgres store.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// WithTx runs fn inside a READ COMMITTED transaction.
//
// Every booking-critical read in fn goes through a ForUpdate method, which
// issues SELECT … FOR UPDATE. The row lock is held until COMMIT or ROLLBACK,
// so two transactions cannot both read the same seat count and write back a
// decrement computed from it: the second one blocks on the lock and then
// reads the first one's committed value.
//
// Lock order is event before user, and booking before event.
func (r *Postgres) WithTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	return nil
}

// Totals returns the admin dashboard counters.
func (r *Postgres) Totals(ctx context.Context) (model.Totals, error) {
	var t model.Totals
	err := r.db.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM users),
		   (SELECT COUNT(*) FROM events),
		   (SELECT COUNT(*) FROM bookings),
		   (SELECT COALESCE(SUM(total_amount), 0) FROM bookings WHERE status <> 'cancelled')`,
	).Scan(&t.Users, &t.Events, &t.Bookings, &t.Revenue)
	if err != nil {
		return model.Totals{}, fmt.Errorf("totals: %w", err)
	}
	return t, nil
}

// CompletePastEvents implements Store.
func (r *Postgres) CompletePastEvents(ctx context.Context, cutoff time.Time) (int64, int64, error) {
	var events, bookings int64
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		// event_date never trails the start, so it narrows the candidates
		// before StartsAt folds in event_time.
		rows, err := tx.Query(ctx,
			`SELECT id, event_date, event_time FROM events
			 WHERE status = 'approved' AND event_date < $1 FOR UPDATE`,
			cutoff,
		)
		if err != nil {
			return fmt.Errorf("find past events: %w", err)
		}
		var ids []string
		for rows.Next() {
			var e model.Event
			if err := rows.Scan(&e.ID, &e.EventDate, &e.EventTime); err != nil {
				rows.Close()
				return fmt.Errorf("scan past event: %w", err)
			}
			if e.StartsAt().Before(cutoff) {
				ids = append(ids, e.ID)
			}
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("find past events: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		tag, err := tx.Exec(ctx,
			`UPDATE bookings SET status = 'completed', updated_at = $2
			 WHERE status = 'confirmed' AND event_id = ANY($1::text[]::uuid[])`,
			ids, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("complete bookings: %w", err)
		}
		bookings = tag.RowsAffected()

		tag, err = tx.Exec(ctx,
			`UPDATE events SET status = 'completed', updated_at = $2
			 WHERE id = ANY($1::text[]::uuid[])`,
			ids, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("complete events: %w", err)
		}
		events = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, 0, classify(err)
	}
	return events, bookings, nil
}

// pgTx implements Tx on top of a pgx transaction.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) EventForUpdate(ctx context.Context, id string) (*model.Event, error) {
	return getEvent(ctx, t.tx, id, true)
}

func (t *pgTx) UserForUpdate(ctx context.Context, id string) (*model.User, error) {
	return getUser(ctx, t.tx, `WHERE id = $1 FOR UPDATE`, id)
}

func (t *pgTx) BookingForUpdate(ctx context.Context, id string) (*model.Booking, error) {
	return getBooking(ctx, t.tx, id, true)
}

func (t *pgTx) InsertEvent(ctx context.Context, e *model.Event) error {
	return insertEvent(ctx, t.tx, e)
}

func (t *pgTx) SaveEvent(ctx context.Context, e *model.Event) error {
	return saveEvent(ctx, t.tx, e)
}

func (t *pgTx) SaveUserStats(ctx context.Context, u *model.User) error {
	return saveUserStats(ctx, t.tx, u)
}

// InsertBooking runs the insert under a savepoint. A unique violation on the
// booking or ticket code rolls back to the savepoint only, leaving the outer
// transaction usable for another attempt with fresh codes.
func (t *pgTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	if err := insertBooking(ctx, sp, b); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}

func (t *pgTx) SaveBookingStatus(ctx context.Context, b *model.Booking) error {
	return saveBookingStatus(ctx, t.tx, b)
}

// classify maps PostgreSQL error codes onto the package's sentinel errors.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		switch pgErr.ConstraintName {
		case "bookings_booking_code_key", "bookings_ticket_code_key":
			return fmt.Errorf("%w: %s", ErrDuplicateCode, pgErr.ConstraintName)
		}
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return fmt.Errorf("%w: %s", ErrTransient, pgErr.Message)
	}
	return err
}
