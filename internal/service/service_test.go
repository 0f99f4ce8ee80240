package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/access"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/auth"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu  sync.Mutex
	got []model.Availability
}

func (r *recorder) Publish(a model.Availability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, a)
}

func (r *recorder) last() model.Availability {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.got) == 0 {
		return model.Availability{}
	}
	return r.got[len(r.got)-1]
}

type fixture struct {
	store    *repository.Memory
	pub      *recorder
	users    *UserService
	events   *EventService
	bookings *BookingService
	admin    *access.Principal
}

var titleSeq atomic.Int64

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemory()
	pub := &recorder{}
	f := &fixture{
		store:    store,
		pub:      pub,
		users:    NewUserService(store, auth.NewTokens("test-secret", time.Hour), nil, logger),
		events:   NewEventService(store, pub, logger),
		bookings: NewBookingService(store, pub, logger),
	}
	f.admin = f.user(t, model.RoleAdmin)
	return f
}

// user stores an account directly, skipping password hashing.
func (f *fixture) user(t *testing.T, role model.Role) *access.Principal {
	t.Helper()
	id := uuid.NewString()
	u := &model.User{
		ID:        id,
		Name:      "User " + id[:8],
		Email:     id[:8] + "@example.com",
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return &access.Principal{ID: u.ID, Name: u.Name, Email: u.Email, Role: role}
}

func eventRequest(seats int, price float64) model.CreateEventRequest {
	return model.CreateEventRequest{
		Title:       fmt.Sprintf("Go Meetup Number %d", titleSeq.Add(1)),
		Description: "An evening of talks about building services in Go.",
		Category:    "technology",
		Tags:        []string{"go", "backend"},
		EventDate:   time.Now().Add(30 * 24 * time.Hour),
		EventTime:   "18:30",
		Location: model.Location{
			Venue:   "Main Hall",
			Address: "1 Market Street",
			City:    "Bengaluru",
			Country: "India",
		},
		TotalSeats:  seats,
		Price:       price,
		BannerImage: "https://example.com/banner.png",
	}
}

// approvedEvent creates an event owned by organizer and approves it.
func (f *fixture) approvedEvent(t *testing.T, organizer *access.Principal, seats int, price float64) *model.Event {
	t.Helper()
	ctx := context.Background()
	e, err := f.events.Create(ctx, organizer, eventRequest(seats, price))
	require.NoError(t, err)
	e, err = f.events.Approve(ctx, f.admin, e.ID)
	require.NoError(t, err)
	return e
}

func (f *fixture) event(t *testing.T, id string) *model.Event {
	t.Helper()
	e, err := f.store.GetEvent(context.Background(), id)
	require.NoError(t, err)
	return e
}

func (f *fixture) account(t *testing.T, id string) *model.User {
	t.Helper()
	u, err := f.store.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (f *fixture) book(t *testing.T, p *access.Principal, eventID string, seats int) *model.Booking {
	t.Helper()
	b, err := f.bookings.Create(context.Background(), p, model.CreateBookingRequest{EventID: eventID, NumberOfSeats: seats})
	require.NoError(t, err)
	return b
}
