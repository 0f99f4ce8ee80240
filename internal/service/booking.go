// Package service holds the business rules for accounts, events and
// bookings. Every operation that touches more than one record runs inside a
// single store transaction.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/access"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/repository"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/ticket"
	"github.com/google/uuid"
)

// maxCodeAttempts bounds how many fresh booking/ticket code pairs are tried
// when the store reports a collision.
const maxCodeAttempts = 5

// Publisher receives the seat inventory of an event after it changes.
type Publisher interface {
	Publish(a model.Availability)
}

type nopPublisher struct{}

func (nopPublisher) Publish(model.Availability) {}

// BookingService is the booking engine: it reserves and releases seats and
// keeps event and user aggregates in step with the bookings.
type BookingService struct {
	store     repository.Store
	publisher Publisher
	logger    *slog.Logger
	newCodes  func() (ticket.Codes, error)
	now       func() time.Time
}

// NewBookingService constructs a BookingService. publisher may be nil.
func NewBookingService(store repository.Store, publisher Publisher, logger *slog.Logger) *BookingService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &BookingService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		newCodes:  ticket.NewCodes,
		now:       time.Now,
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Create books req.NumberOfSeats seats for the caller.
//
// The availability check, the seat decrement, the booking insert and both
// stats updates happen in one transaction that holds the event row lock, so
// concurrent calls against the same event cannot oversell it.
func (s *BookingService) Create(ctx context.Context, p *access.Principal, req model.CreateBookingRequest) (*model.Booking, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	payment := model.Payment{Method: model.PaymentStripe, Status: model.PaymentCompleted}
	if req.Payment != nil {
		if req.Payment.Method != "" {
			payment.Method = req.Payment.Method
		}
		if req.Payment.Status != "" {
			payment.Status = req.Payment.Status
		}
	}

	var (
		booking *model.Booking
		seats   model.Availability
	)
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		event, err := tx.EventForUpdate(ctx, req.EventID)
		if err != nil {
			return notFound(err, ErrEventNotFound)
		}
		user, err := tx.UserForUpdate(ctx, p.ID)
		if err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if !event.Reserve(req.NumberOfSeats) {
			return ErrInsufficientSeats
		}

		now := s.now().UTC()
		event.UpdatedAt = now
		if err := tx.SaveEvent(ctx, event); err != nil {
			return err
		}

		b := &model.Booking{
			ID: uuid.NewString(),
			User: model.BookingUser{
				ID:    user.ID,
				Name:  user.Name,
				Email: user.Email,
				Phone: user.Phone,
			},
			Event: model.BookingEvent{
				ID:          event.ID,
				Title:       event.Title,
				EventDate:   event.EventDate,
				Location:    bookingLocation(event),
				BannerImage: event.BannerImage,
			},
			NumberOfSeats: req.NumberOfSeats,
			PricePerSeat:  event.Price,
			Payment:       payment,
			Status:        model.BookingConfirmed,
			BookedAt:      now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		b.TotalAmount = b.Total()
		if err := s.insertWithFreshCodes(ctx, tx, b); err != nil {
			return err
		}

		user.Stats.TotalBookings += b.NumberOfSeats
		user.Stats.TotalSpent += b.TotalAmount
		user.UpdatedAt = now
		if err := tx.SaveUserStats(ctx, user); err != nil {
			return err
		}

		booking = b
		seats = model.AvailabilityOf(event)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(seats)
	s.logger.Info("booking created",
		"booking", booking.BookingID, "event", booking.Event.ID, "user", p.ID,
		"seats", booking.NumberOfSeats, "amount", booking.TotalAmount)
	return booking, nil
}

// insertWithFreshCodes inserts b, minting new codes whenever the store
// reports that a generated code is already taken.
func (s *BookingService) insertWithFreshCodes(ctx context.Context, tx repository.Tx, b *model.Booking) error {
	for attempt := 1; ; attempt++ {
		codes, err := s.newCodes()
		if err != nil {
			return err
		}
		b.BookingID, b.TicketCode = codes.BookingID, codes.TicketCode

		err = tx.InsertBooking(ctx, b)
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return err
		}
		if attempt == maxCodeAttempts {
			return fmt.Errorf("booking codes collided %d times: %w", attempt, err)
		}
		s.logger.Warn("booking code collision, retrying", "attempt", attempt, "err", err)
	}
}

func bookingLocation(e *model.Event) string {
	if e.Location.Venue != "" {
		return e.Location.Venue
	}
	return "Online/TBA"
}

// Cancel cancels a booking and returns its seats to the event.
//
// The user's lifetime stats are left unchanged: totalSpent and
// totalBookings count purchases, not currently held seats.
func (s *BookingService) Cancel(ctx context.Context, p *access.Principal, id string, req model.CancelBookingRequest) (*model.Booking, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	if !validID(id) {
		return nil, ErrBookingNotFound
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var (
		booking *model.Booking
		seats   *model.Availability
	)
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		b, err := tx.BookingForUpdate(ctx, id)
		if err != nil {
			return notFound(err, ErrBookingNotFound)
		}
		// The event may have been deleted since the booking was made.
		event, err := tx.EventForUpdate(ctx, b.Event.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		rule := access.AnyOf(access.Admin, access.Self(b.User.ID))
		if event != nil {
			rule = access.AnyOf(rule, access.OrganizerOf(event))
		}
		if err := access.Require(p, "cancel booking", rule); err != nil {
			return err
		}
		if b.Cancelled() {
			return ErrAlreadyCancelled
		}

		now := s.now().UTC()
		b.Status = model.BookingCancelled
		b.Cancellation = model.Cancellation{
			IsCancelled: true,
			CancelledAt: &now,
			CancelledBy: cancelledBy(p, b),
			Reason:      req.Reason,
		}
		b.UpdatedAt = now
		if err := tx.SaveBookingStatus(ctx, b); err != nil {
			return err
		}

		if event != nil {
			event.Release(b.NumberOfSeats, b.TotalAmount)
			event.UpdatedAt = now
			if err := tx.SaveEvent(ctx, event); err != nil {
				return err
			}
			a := model.AvailabilityOf(event)
			seats = &a
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if seats != nil {
		s.publisher.Publish(*seats)
	}
	s.logger.Info("booking cancelled",
		"booking", booking.BookingID, "event", booking.Event.ID,
		"by", booking.Cancellation.CancelledBy, "seats", booking.NumberOfSeats)
	return booking, nil
}

func cancelledBy(p *access.Principal, b *model.Booking) model.Role {
	switch {
	case p.ID == b.User.ID:
		return model.RoleUser
	case p.Role == model.RoleAdmin:
		return model.RoleAdmin
	default:
		return model.RoleOrganizer
	}
}

// Delete removes a booking record outright. Unlike Cancel it does not
// return seats to the event or touch any stats.
func (s *BookingService) Delete(ctx context.Context, p *access.Principal, id string) error {
	if err := access.Require(p, "delete booking", access.Admin); err != nil {
		return err
	}
	if !validID(id) {
		return ErrBookingNotFound
	}
	if err := s.store.DeleteBooking(ctx, id); err != nil {
		return notFound(err, ErrBookingNotFound)
	}
	s.logger.Info("booking deleted", "id", id, "by", p.ID)
	return nil
}

// Get returns one booking to its owner, the event's organizer or an admin.
func (s *BookingService) Get(ctx context.Context, p *access.Principal, id string) (*model.Booking, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	if !validID(id) {
		return nil, ErrBookingNotFound
	}
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrBookingNotFound)
	}

	rule := access.AnyOf(access.Admin, access.Self(b.User.ID))
	if !access.Allowed(p, rule) {
		event, err := s.store.GetEvent(ctx, b.Event.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if event != nil {
			rule = access.AnyOf(rule, access.OrganizerOf(event))
		}
	}
	if err := access.Require(p, "view booking", rule); err != nil {
		return nil, err
	}
	return b, nil
}

// Ticket returns a booking whose ticket may be rendered.
func (s *BookingService) Ticket(ctx context.Context, p *access.Principal, id string) (*model.Booking, error) {
	b, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if b.Cancelled() {
		return nil, ErrTicketUnavailable
	}
	return b, nil
}

// ListMine returns the caller's bookings, newest first.
func (s *BookingService) ListMine(ctx context.Context, p *access.Principal) ([]model.Booking, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	return s.store.ListBookings(ctx, model.BookingFilter{UserID: p.ID})
}

// ListAll returns every booking. Admin only.
func (s *BookingService) ListAll(ctx context.Context, p *access.Principal) ([]model.Booking, error) {
	if err := access.Require(p, "list all bookings", access.Admin); err != nil {
		return nil, err
	}
	return s.store.ListBookings(ctx, model.BookingFilter{})
}

// ListForEvent returns an event's bookings to its organizer or an admin.
func (s *BookingService) ListForEvent(ctx context.Context, p *access.Principal, eventID string) ([]model.Booking, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	if !validID(eventID) {
		return nil, ErrEventNotFound
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	if err := access.Require(p, "list event bookings", access.AnyOf(access.Admin, access.OrganizerOf(event))); err != nil {
		return nil, err
	}
	return s.store.ListBookings(ctx, model.BookingFilter{EventID: eventID})
}
