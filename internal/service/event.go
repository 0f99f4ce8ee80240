package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/access"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/repository"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxPage         = 10000
	maxSlugLength   = 200
	defaultCurrency = "USD"
)

// EventService implements event creation and moderation.
type EventService struct {
	store     repository.Store
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewEventService constructs an EventService. publisher may be nil.
func NewEventService(store repository.Store, publisher Publisher, logger *slog.Logger) *EventService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &EventService{store: store, publisher: publisher, logger: logger, now: time.Now}
}

func makeSlug(title string) (string, error) {
	s := slug.Make(title)
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	if s == "" {
		return "", invalidField("title", "title must contain letters or digits")
	}
	return s, nil
}

// Create stores a new event in pending status on behalf of an organizer
// or admin and counts it in the creator's stats.
func (s *EventService) Create(ctx context.Context, p *access.Principal, req model.CreateEventRequest) (*model.Event, error) {
	if err := access.Require(p, "create event", access.HasRole(model.RoleOrganizer, model.RoleAdmin)); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	eventSlug, err := makeSlug(req.Title)
	if err != nil {
		return nil, err
	}

	var event *model.Event
	err = s.store.WithTx(ctx, func(tx repository.Tx) error {
		user, err := tx.UserForUpdate(ctx, p.ID)
		if err != nil {
			return notFound(err, ErrUserNotFound)
		}

		now := s.now().UTC()
		e := &model.Event{
			ID:               uuid.NewString(),
			Title:            req.Title,
			Slug:             eventSlug,
			Description:      req.Description,
			ShortDescription: req.ShortDescription,
			Category:         req.Category,
			Tags:             req.Tags,
			EventDate:        req.EventDate.UTC(),
			EventTime:        req.EventTime,
			Location:         req.Location,
			TotalSeats:       req.TotalSeats,
			AvailableSeats:   req.TotalSeats,
			Price:            req.Price,
			Currency:         strings.ToUpper(req.Currency),
			BannerImage:      req.BannerImage,
			Organizer:        model.Organizer{ID: user.ID, Name: user.Name, Email: user.Email},
			Status:           model.EventPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if e.Currency == "" {
			e.Currency = defaultCurrency
		}
		if e.Tags == nil {
			e.Tags = []string{}
		}
		if err := tx.InsertEvent(ctx, e); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrDuplicateTitle
			}
			return err
		}

		user.Stats.EventsCreated++
		user.UpdatedAt = now
		if err := tx.SaveUserStats(ctx, user); err != nil {
			return err
		}
		event = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("event created", "id", event.ID, "slug", event.Slug, "organizer", p.ID)
	return event, nil
}

// Update applies a partial edit for the event's organizer or an admin.
// Status is never changed here.
func (s *EventService) Update(ctx context.Context, p *access.Principal, id string, req model.UpdateEventRequest) (*model.Event, error) {
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	if !validID(id) {
		return nil, ErrEventNotFound
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var (
		event        *model.Event
		seatsChanged bool
	)
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		e, err := tx.EventForUpdate(ctx, id)
		if err != nil {
			return notFound(err, ErrEventNotFound)
		}
		if err := access.Require(p, "update event", access.AnyOf(access.Admin, access.OrganizerOf(e))); err != nil {
			return err
		}

		if req.Title != nil && *req.Title != e.Title {
			eventSlug, err := makeSlug(*req.Title)
			if err != nil {
				return err
			}
			e.Title, e.Slug = *req.Title, eventSlug
		}
		if req.Description != nil {
			e.Description = *req.Description
		}
		if req.ShortDescription != nil {
			e.ShortDescription = *req.ShortDescription
		}
		if req.Category != nil {
			e.Category = *req.Category
		}
		if req.Tags != nil {
			e.Tags = req.Tags
		}
		if req.EventDate != nil {
			e.EventDate = req.EventDate.UTC()
		}
		if req.EventTime != nil {
			e.EventTime = *req.EventTime
		}
		if req.Location != nil {
			e.Location = *req.Location
		}
		if req.Price != nil {
			e.Price = *req.Price
		}
		if req.Currency != nil {
			e.Currency = strings.ToUpper(*req.Currency)
		}
		if req.BannerImage != nil {
			e.BannerImage = *req.BannerImage
		}
		if req.TotalSeats != nil && *req.TotalSeats != e.TotalSeats {
			held := e.TotalSeats - e.AvailableSeats
			if !e.Resize(*req.TotalSeats) {
				return invalidField("totalSeats",
					fmt.Sprintf("totalSeats cannot be less than the %d seats already booked", held))
			}
			seatsChanged = true
		}

		e.UpdatedAt = s.now().UTC()
		if err := tx.SaveEvent(ctx, e); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrDuplicateTitle
			}
			return err
		}
		event = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	if seatsChanged {
		s.publisher.Publish(model.AvailabilityOf(event))
	}
	s.logger.Info("event updated", "id", event.ID, "by", p.ID)
	return event, nil
}

// Delete removes an event at any status. Existing bookings keep their
// snapshot of it.
func (s *EventService) Delete(ctx context.Context, p *access.Principal, id string) error {
	if p == nil {
		return access.ErrUnauthenticated
	}
	if !validID(id) {
		return ErrEventNotFound
	}
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return notFound(err, ErrEventNotFound)
	}
	if err := access.Require(p, "delete event", access.AnyOf(access.Admin, access.OrganizerOf(e))); err != nil {
		return err
	}
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return notFound(err, ErrEventNotFound)
	}
	s.logger.Info("event deleted", "id", id, "by", p.ID)
	return nil
}

// moderatable reports whether an admin decision may be applied. Drafts,
// cancelled and completed events are outside moderation.
func moderatable(st model.EventStatus) bool {
	switch st {
	case model.EventPending, model.EventApproved, model.EventRejected:
		return true
	}
	return false
}

func (s *EventService) moderate(ctx context.Context, p *access.Principal, id, action string, apply func(e *model.Event, now time.Time)) (*model.Event, error) {
	if err := access.Require(p, action, access.Admin); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, ErrEventNotFound
	}

	var event *model.Event
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		e, err := tx.EventForUpdate(ctx, id)
		if err != nil {
			return notFound(err, ErrEventNotFound)
		}
		if !moderatable(e.Status) {
			return ErrInvalidTransition
		}
		now := s.now().UTC()
		apply(e, now)
		e.UpdatedAt = now
		if err := tx.SaveEvent(ctx, e); err != nil {
			return err
		}
		event = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("event moderated", "id", event.ID, "status", event.Status, "by", p.ID)
	return event, nil
}

// Approve opens the event for booking.
func (s *EventService) Approve(ctx context.Context, p *access.Principal, id string) (*model.Event, error) {
	return s.moderate(ctx, p, id, "approve event", func(e *model.Event, now time.Time) {
		e.Status = model.EventApproved
		e.Approval = model.Approval{ApprovedBy: p.ID, ApprovedAt: &now}
	})
}

// Reject closes the event to booking and records why.
func (s *EventService) Reject(ctx context.Context, p *access.Principal, id string, req model.RejectEventRequest) (*model.Event, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return s.moderate(ctx, p, id, "reject event", func(e *model.Event, _ time.Time) {
		e.Status = model.EventRejected
		e.Approval = model.Approval{RejectionReason: strings.TrimSpace(req.Reason)}
	})
}

// Get returns an event. Events that are not approved are visible only to
// their organizer and admins. p may be nil for anonymous callers.
func (s *EventService) Get(ctx context.Context, p *access.Principal, id string) (*model.Event, error) {
	if !validID(id) {
		return nil, ErrEventNotFound
	}
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	if e.Status != model.EventApproved &&
		!access.Allowed(p, access.AnyOf(access.Admin, access.OrganizerOf(e))) {
		return nil, &access.DeniedError{Action: "view event"}
	}
	return e, nil
}

// List returns a page of events matching f. Callers other than admins see
// approved events only, unless they list their own.
func (s *EventService) List(ctx context.Context, p *access.Principal, f model.EventFilter) ([]model.Event, model.EventFilter, error) {
	f.Page = min(max(f.Page, 1), maxPage)
	switch {
	case f.Limit <= 0:
		f.Limit = defaultPageSize
	case f.Limit > maxPageSize:
		f.Limit = maxPageSize
	}
	f.Query = strings.TrimSpace(f.Query)
	if f.OrganizerID != "" && !validID(f.OrganizerID) {
		return []model.Event{}, f, nil
	}

	own := f.OrganizerID != "" && access.Allowed(p, access.Self(f.OrganizerID))
	if !own && !access.Allowed(p, access.Admin) {
		if f.Status != "" && f.Status != model.EventApproved {
			return []model.Event{}, f, nil
		}
		f.Status = model.EventApproved
	}

	events, err := s.store.ListEvents(ctx, f)
	if err != nil {
		return nil, f, err
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, f, nil
}
