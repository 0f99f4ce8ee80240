package model

import (
	"math"
	"strings"
	"time"
)

// EventStatus is the moderation state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPending   EventStatus = "pending"
	EventApproved  EventStatus = "approved"
	EventRejected  EventStatus = "rejected"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

// Location is where an event takes place.
type Location struct {
	Venue   string `json:"venue" validate:"required"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state,omitempty"`
	Country string `json:"country" validate:"required"`
	ZipCode string `json:"zipCode,omitempty"`
}

// Organizer is the owning user as recorded on the event.
type Organizer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Approval records the last moderation decision.
type Approval struct {
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}

// EventStats are aggregate counters maintained alongside bookings.
type EventStats struct {
	TotalBookings int     `json:"totalBookings"`
	TotalRevenue  float64 `json:"totalRevenue"`
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}

// Event represents one bookable occurrence.
type Event struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Slug             string      `json:"slug"`
	Description      string      `json:"description"`
	ShortDescription string      `json:"shortDescription,omitempty"`
	Category         string      `json:"category"`
	Tags             []string    `json:"tags"`
	EventDate        time.Time   `json:"eventDate"`
	EventTime        string      `json:"eventTime"`
	Location         Location    `json:"location"`
	TotalSeats       int         `json:"totalSeats"`
	AvailableSeats   int         `json:"availableSeats"`
	BookedSeats      int         `json:"bookedSeats"`
	Price            float64     `json:"price"`
	Currency         string      `json:"currency"`
	BannerImage      string      `json:"bannerImage"`
	Organizer        Organizer   `json:"organizer"`
	Status           EventStatus `json:"status"`
	Approval         Approval    `json:"approval"`
	Stats            EventStats  `json:"stats"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// clockLayouts are the accepted spellings of EventTime.
var clockLayouts = []string{"15:04", "3:04 PM", "3:04PM"}

// StartsAt returns the instant the event begins. A date-only EventDate
// (midnight UTC) is combined with EventTime; otherwise EventDate already
// carries the start and is returned as is.
func (e *Event) StartsAt() time.Time {
	day := e.EventDate.UTC()
	if !day.Equal(day.Truncate(24 * time.Hour)) {
		return e.EventDate
	}
	for _, layout := range clockLayouts {
		clock, err := time.Parse(layout, strings.TrimSpace(e.EventTime))
		if err == nil {
			return day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
		}
	}
	return e.EventDate
}

// Reserve takes n seats out of the inventory and records the sale in the
// event stats. It reports false, leaving the event untouched, when fewer
// than n seats remain.
func (e *Event) Reserve(n int) bool {
	if n <= 0 || e.AvailableSeats < n {
		return false
	}
	e.AvailableSeats -= n
	e.BookedSeats += n
	e.Stats.TotalBookings += n
	e.Stats.TotalRevenue += float64(n) * e.Price
	return true
}

// Release returns the seats of a cancelled booking to the inventory.
// Seats never exceed capacity and counters never go negative.
func (e *Event) Release(seats int, amount float64) {
	e.AvailableSeats = min(e.TotalSeats, e.AvailableSeats+seats)
	e.BookedSeats = max(0, e.BookedSeats-seats)
	e.Stats.TotalRevenue = max(0, e.Stats.TotalRevenue-amount)
}

// Resize changes capacity, shifting the remaining seats by the same amount.
// It reports false when the new capacity cannot hold the seats already sold.
func (e *Event) Resize(total int) bool {
	available := e.AvailableSeats + (total - e.TotalSeats)
	if total < 1 || available < 0 {
		return false
	}
	e.TotalSeats = total
	e.AvailableSeats = min(available, total)
	return true
}

// EventFilter narrows an event listing.
type EventFilter struct {
	Query       string
	Category    string
	Status      EventStatus
	OrganizerID string
	Page        int
	Limit       int
}

// Offset returns the number of rows to skip for the filter's page.
func (f EventFilter) Offset() int {
	if f.Page < 1 || f.Limit < 1 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title            string    `json:"title" validate:"required,min=5,max=200"`
	Description      string    `json:"description" validate:"required,min=20,max=5000"`
	ShortDescription string    `json:"shortDescription" validate:"max=300"`
	Category         string    `json:"category" validate:"required"`
	Tags             []string  `json:"tags" validate:"max=10"`
	EventDate        time.Time `json:"eventDate" validate:"required"`
	EventTime        string    `json:"eventTime" validate:"required"`
	Location         Location  `json:"location"`
	TotalSeats       int       `json:"totalSeats" validate:"required,min=1,max=100000"`
	Price            float64   `json:"price" validate:"min=0,max=1000000"`
	Currency         string    `json:"currency" validate:"omitempty,len=3"`
	BannerImage      string    `json:"bannerImage" validate:"required"`
}

// UpdateEventRequest carries a partial edit; nil fields are left unchanged.
// Status is not editable here, moderation has its own operations.
type UpdateEventRequest struct {
	Title            *string    `json:"title" validate:"omitempty,min=5,max=200"`
	Description      *string    `json:"description" validate:"omitempty,min=20,max=5000"`
	ShortDescription *string    `json:"shortDescription" validate:"omitempty,max=300"`
	Category         *string    `json:"category" validate:"omitempty,min=1"`
	Tags             []string   `json:"tags" validate:"omitempty,max=10"`
	EventDate        *time.Time `json:"eventDate"`
	EventTime        *string    `json:"eventTime" validate:"omitempty,min=1"`
	Location         *Location  `json:"location"`
	TotalSeats       *int       `json:"totalSeats" validate:"omitempty,min=1,max=100000"`
	Price            *float64   `json:"price" validate:"omitempty,min=0,max=1000000"`
	Currency         *string    `json:"currency" validate:"omitempty,len=3"`
	BannerImage      *string    `json:"bannerImage" validate:"omitempty,min=1"`
}

// RejectEventRequest is the payload for rejecting an event.
type RejectEventRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// Availability is the seat inventory snapshot pushed to live subscribers.
type Availability struct {
	EventID        string `json:"eventId"`
	TotalSeats     int    `json:"totalSeats"`
	AvailableSeats int    `json:"availableSeats"`
	BookedSeats    int    `json:"bookedSeats"`
}

// AvailabilityOf snapshots an event's inventory.
func AvailabilityOf(e *Event) Availability {
	return Availability{
		EventID:        e.ID,
		TotalSeats:     e.TotalSeats,
		AvailableSeats: e.AvailableSeats,
		BookedSeats:    e.BookedSeats,
	}
}
