// Package repository implements persistence for users, events and bookings.
// Store is satisfied by a PostgreSQL implementation built on pgx and by an
// in-memory implementation with the same transactional guarantees.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint
// such as a duplicate email or event slug.
var ErrConflict = errors.New("conflict")

// ErrDuplicateCode is returned when a generated booking id or ticket code
// collides with an existing booking. The transaction stays usable.
var ErrDuplicateCode = errors.New("duplicate booking code")

// ErrTransient is returned when the store aborted a transaction because of
// a concurrent write (serialization failure or deadlock). Callers may retry.
var ErrTransient = errors.New("transaction conflict, please retry")

// Store is the persistent record store.
type Store interface {
	// WithTx runs fn in a single transaction. A non-nil error from fn rolls
	// everything back; otherwise all of fn's writes commit together.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error)
	DeleteEvent(ctx context.Context, id string) error

	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, u *model.User) error
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id string) error

	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	ListBookings(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
	DeleteBooking(ctx context.Context, id string) error

	Totals(ctx context.Context) (model.Totals, error)
	// CompletePastEvents marks approved events dated before cutoff as
	// completed, along with their confirmed bookings.
	CompletePastEvents(ctx context.Context, cutoff time.Time) (events, bookings int64, err error)
}

// Tx is the set of row-locking reads and writes available inside WithTx.
// The ForUpdate reads hold the row until the transaction ends.
type Tx interface {
	EventForUpdate(ctx context.Context, id string) (*model.Event, error)
	UserForUpdate(ctx context.Context, id string) (*model.User, error)
	BookingForUpdate(ctx context.Context, id string) (*model.Booking, error)

	InsertEvent(ctx context.Context, e *model.Event) error
	SaveEvent(ctx context.Context, e *model.Event) error
	SaveUserStats(ctx context.Context, u *model.User) error
	InsertBooking(ctx context.Context, b *model.Booking) error
	SaveBookingStatus(ctx context.Context, b *model.Booking) error
}
