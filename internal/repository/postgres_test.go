package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/database"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPostgres connects to TEST_DATABASE_URL, applies the schema and
// empties the tables. Tests are skipped when the variable is unset.
func newTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(ctx, pool, slog.New(slog.NewTextHandler(io.Discard, nil))))
	_, err = pool.Exec(ctx, `TRUNCATE bookings, events, users`)
	require.NoError(t, err)
	return NewPostgres(pool)
}

func TestPostgresEventRoundTrip(t *testing.T) {
	pg := newTestPostgres(t)
	ctx := context.Background()
	e := testEvent("round-trip", 50)
	mustInsertEvent(t, pg, e)

	got, err := pg.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Title, got.Title)
	assert.Equal(t, e.Location, got.Location)
	assert.Equal(t, []string{"live"}, got.Tags)
	assert.Equal(t, 10.0, got.Price)
	assert.Equal(t, e.Organizer, got.Organizer)

	err = pg.WithTx(ctx, func(tx Tx) error { return tx.InsertEvent(ctx, testEvent("round-trip", 5)) })
	assert.ErrorIs(t, err, ErrConflict)

	_, err = pg.GetEvent(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := pg.ListEvents(ctx, model.EventFilter{Query: "ROUND", Status: model.EventApproved, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPostgresDuplicateCodeKeepsTxUsable(t *testing.T) {
	pg := newTestPostgres(t)
	ctx := context.Background()
	e := testEvent("codes", 10)
	mustInsertEvent(t, pg, e)
	require.NoError(t, pg.WithTx(ctx, func(tx Tx) error {
		return tx.InsertBooking(ctx, testBooking(e.ID, "BK-DUP", "DUPCODE001"))
	}))

	err := pg.WithTx(ctx, func(tx Tx) error {
		err := tx.InsertBooking(ctx, testBooking(e.ID, "BK-DUP", "FRESH00001"))
		if !errors.Is(err, ErrDuplicateCode) {
			return err
		}
		return tx.InsertBooking(ctx, testBooking(e.ID, "BK-NEW", "FRESH00001"))
	})
	require.NoError(t, err)

	bookings, err := pg.ListBookings(ctx, model.BookingFilter{EventID: e.ID})
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
}

func TestPostgresConcurrentReservations(t *testing.T) {
	pg := newTestPostgres(t)
	ctx := context.Background()
	const seats, callers = 5, 25
	e := testEvent("concurrent", seats)
	mustInsertEvent(t, pg, e)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pg.WithTx(ctx, func(tx Tx) error {
				ev, err := tx.EventForUpdate(ctx, e.ID)
				if err != nil {
					return err
				}
				if !ev.Reserve(1) {
					return errSoldOut
				}
				if err := tx.SaveEvent(ctx, ev); err != nil {
					return err
				}
				b := testBooking(e.ID, "BK-"+uuid.NewString()[:8], uuid.NewString()[:10])
				b.NumberOfSeats, b.TotalAmount = 1, 10
				return tx.InsertBooking(ctx, b)
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				granted++
			} else {
				assert.ErrorIs(t, err, errSoldOut, "caller %d", i)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, seats, granted)
	got, err := pg.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableSeats)
	assert.Equal(t, seats, got.BookedSeats)

	totals, err := pg.Totals(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, seats, totals.Bookings)
}

var errSoldOut = errors.New("sold out")
