package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
)

// Memory is a Store held in process memory. Transactions are serialized by
// a single lock and buffer their writes until commit, so a failed WithTx
// leaves no trace. It backs local runs without PostgreSQL and the tests.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]model.User
	events   map[string]model.Event
	bookings map[string]model.Booking
}

// NewMemory constructs an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]model.User),
		events:   make(map[string]model.Event),
		bookings: make(map[string]model.Booking),
	}
}

func cloneEvent(e model.Event) model.Event {
	e.Tags = slices.Clone(e.Tags)
	return e
}

// WithTx implements Store.
func (m *Memory) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		m:        m,
		users:    make(map[string]model.User),
		events:   make(map[string]model.Event),
		bookings: make(map[string]model.Booking),
	}
	if err := fn(tx); err != nil {
		return err
	}
	for id, u := range tx.users {
		m.users[id] = u
	}
	for id, e := range tx.events {
		m.events[id] = e
	}
	for id, b := range tx.bookings {
		m.bookings[id] = b
	}
	return nil
}

// memTx buffers writes on top of the committed maps. The store lock is
// held for its whole lifetime.
type memTx struct {
	m        *Memory
	users    map[string]model.User
	events   map[string]model.Event
	bookings map[string]model.Booking
}

func (t *memTx) event(id string) (model.Event, bool) {
	if e, ok := t.events[id]; ok {
		return e, true
	}
	e, ok := t.m.events[id]
	return e, ok
}

func (t *memTx) user(id string) (model.User, bool) {
	if u, ok := t.users[id]; ok {
		return u, true
	}
	u, ok := t.m.users[id]
	return u, ok
}

func (t *memTx) booking(id string) (model.Booking, bool) {
	if b, ok := t.bookings[id]; ok {
		return b, true
	}
	b, ok := t.m.bookings[id]
	return b, ok
}

func (t *memTx) EventForUpdate(_ context.Context, id string) (*model.Event, error) {
	e, ok := t.event(id)
	if !ok {
		return nil, ErrNotFound
	}
	e = cloneEvent(e)
	return &e, nil
}

func (t *memTx) UserForUpdate(_ context.Context, id string) (*model.User, error) {
	u, ok := t.user(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (t *memTx) BookingForUpdate(_ context.Context, id string) (*model.Booking, error) {
	b, ok := t.booking(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (t *memTx) slugTaken(slug, exceptID string) bool {
	taken := func(id string) bool {
		if id == exceptID {
			return false
		}
		e, _ := t.event(id)
		return e.Slug == slug
	}
	for id := range t.events {
		if taken(id) {
			return true
		}
	}
	for id := range t.m.events {
		if taken(id) {
			return true
		}
	}
	return false
}

func (t *memTx) InsertEvent(_ context.Context, e *model.Event) error {
	if _, ok := t.event(e.ID); ok {
		return fmt.Errorf("insert event: %w: events_pkey", ErrConflict)
	}
	if t.slugTaken(e.Slug, e.ID) {
		return fmt.Errorf("insert event: %w: events_slug_key", ErrConflict)
	}
	t.events[e.ID] = cloneEvent(*e)
	return nil
}

func (t *memTx) SaveEvent(_ context.Context, e *model.Event) error {
	if _, ok := t.event(e.ID); !ok {
		return ErrNotFound
	}
	if t.slugTaken(e.Slug, e.ID) {
		return fmt.Errorf("update event: %w: events_slug_key", ErrConflict)
	}
	if e.AvailableSeats < 0 || e.AvailableSeats > e.TotalSeats {
		return fmt.Errorf("update event: available seats %d outside [0, %d]", e.AvailableSeats, e.TotalSeats)
	}
	t.events[e.ID] = cloneEvent(*e)
	return nil
}

func (t *memTx) SaveUserStats(_ context.Context, u *model.User) error {
	cur, ok := t.user(u.ID)
	if !ok {
		return ErrNotFound
	}
	cur.Stats = u.Stats
	cur.UpdatedAt = u.UpdatedAt
	t.users[u.ID] = cur
	return nil
}

func (t *memTx) InsertBooking(_ context.Context, b *model.Booking) error {
	if _, ok := t.booking(b.ID); ok {
		return fmt.Errorf("insert booking: %w: bookings_pkey", ErrConflict)
	}
	for _, bookings := range []map[string]model.Booking{t.m.bookings, t.bookings} {
		for _, other := range bookings {
			switch {
			case other.BookingID == b.BookingID:
				return fmt.Errorf("insert booking: %w: bookings_booking_code_key", ErrDuplicateCode)
			case other.TicketCode == b.TicketCode:
				return fmt.Errorf("insert booking: %w: bookings_ticket_code_key", ErrDuplicateCode)
			}
		}
	}
	t.bookings[b.ID] = *b
	return nil
}

func (t *memTx) SaveBookingStatus(_ context.Context, b *model.Booking) error {
	cur, ok := t.booking(b.ID)
	if !ok {
		return ErrNotFound
	}
	cur.Status = b.Status
	cur.Cancellation = b.Cancellation
	cur.UpdatedAt = b.UpdatedAt
	t.bookings[b.ID] = cur
	return nil
}

// GetEvent implements Store.
func (m *Memory) GetEvent(_ context.Context, id string) (*model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	e = cloneEvent(e)
	return &e, nil
}

// ListEvents implements Store.
func (m *Memory) ListEvents(_ context.Context, f model.EventFilter) ([]model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	query := strings.ToLower(f.Query)
	var events []model.Event
	for _, e := range m.events {
		switch {
		case query != "" &&
			!strings.Contains(strings.ToLower(e.Title), query) &&
			!strings.Contains(strings.ToLower(e.Description), query):
			continue
		case f.Category != "" && e.Category != f.Category:
			continue
		case f.Status != "" && e.Status != f.Status:
			continue
		case f.OrganizerID != "" && e.Organizer.ID != f.OrganizerID:
			continue
		}
		events = append(events, cloneEvent(e))
	}
	slices.SortFunc(events, func(a, b model.Event) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return page(events, f.Offset(), f.Limit), nil
}

func page[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		return items
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	return items[offset:min(offset+limit, len(items))]
}

// DeleteEvent implements Store.
func (m *Memory) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	return nil
}

// CreateUser implements Store.
func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return fmt.Errorf("insert user: %w: users_pkey", ErrConflict)
	}
	for _, other := range m.users {
		if other.Email == u.Email {
			return fmt.Errorf("insert user: %w: users_email_key", ErrConflict)
		}
	}
	m.users[u.ID] = *u
	return nil
}

// GetUser implements Store.
func (m *Memory) GetUser(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// GetUserByEmail implements Store.
func (m *Memory) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateProfile implements Store.
func (m *Memory) UpdateProfile(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name = u.Name
	cur.Phone = u.Phone
	cur.UpdatedAt = u.UpdatedAt
	m.users[u.ID] = cur
	return nil
}

// ListUsers implements Store.
func (m *Memory) ListUsers(_ context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var users []model.User
	for _, u := range m.users {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b model.User) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return users, nil
}

// DeleteUser implements Store.
func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// GetBooking implements Store.
func (m *Memory) GetBooking(_ context.Context, id string) (*model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

// ListBookings implements Store.
func (m *Memory) ListBookings(_ context.Context, f model.BookingFilter) ([]model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var bookings []model.Booking
	for _, b := range m.bookings {
		if f.UserID != "" && b.User.ID != f.UserID {
			continue
		}
		if f.EventID != "" && b.Event.ID != f.EventID {
			continue
		}
		bookings = append(bookings, b)
	}
	slices.SortFunc(bookings, func(a, b model.Booking) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return bookings, nil
}

// DeleteBooking implements Store. Seat inventory is not touched.
func (m *Memory) DeleteBooking(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(m.bookings, id)
	return nil
}

// Totals implements Store.
func (m *Memory) Totals(_ context.Context) (model.Totals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t := model.Totals{
		Users:    int64(len(m.users)),
		Events:   int64(len(m.events)),
		Bookings: int64(len(m.bookings)),
	}
	for _, b := range m.bookings {
		if !b.Cancelled() {
			t.Revenue += b.TotalAmount
		}
	}
	return t, nil
}

// CompletePastEvents implements Store.
func (m *Memory) CompletePastEvents(_ context.Context, cutoff time.Time) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	var events, bookings int64
	done := make(map[string]bool)
	for id, e := range m.events {
		if e.Status != model.EventApproved || !e.StartsAt().Before(cutoff) {
			continue
		}
		e.Status = model.EventCompleted
		e.UpdatedAt = now
		m.events[id] = e
		done[id] = true
		events++
	}
	for id, b := range m.bookings {
		if b.Status != model.BookingConfirmed || !done[b.Event.ID] {
			continue
		}
		b.Status = model.BookingCompleted
		b.UpdatedAt = now
		m.bookings[id] = b
		bookings++
	}
	return events, bookings, nil
}
