package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingPending   BookingStatus = "pending"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
	BookingNoShow    BookingStatus = "no_show"
)

// Payment defaults applied when a booking request carries no payment.
const (
	PaymentStripe    = "stripe"
	PaymentCompleted = "completed"
)

// BookingUser is the purchaser as they were at booking time.
type BookingUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// BookingEvent is the event as it was at booking time. It is never
// refreshed from the live event.
type BookingEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	EventDate   time.Time `json:"eventDate"`
	Location    string    `json:"location"`
	BannerImage string    `json:"bannerImage,omitempty"`
}

// Payment records how a booking was paid for.
type Payment struct {
	Method string `json:"method" validate:"omitempty,oneof=credit_card debit_card paypal google_pay stripe"`
	Status string `json:"status" validate:"omitempty,oneof=pending completed failed refunded"`
}

// Cancellation is set once, when a booking is cancelled.
type Cancellation struct {
	IsCancelled bool       `json:"isCancelled"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	CancelledBy Role       `json:"cancelledBy,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// Booking is a purchase of a fixed number of seats for one event.
type Booking struct {
	ID            string        `json:"id"`
	BookingID     string        `json:"bookingId"`
	User          BookingUser   `json:"user"`
	Event         BookingEvent  `json:"event"`
	NumberOfSeats int           `json:"numberOfSeats"`
	PricePerSeat  float64       `json:"pricePerSeat"`
	TotalAmount   float64       `json:"totalAmount"`
	Payment       Payment       `json:"payment"`
	Status        BookingStatus `json:"status"`
	TicketCode    string        `json:"ticketCode"`
	Cancellation  Cancellation  `json:"cancellation"`
	BookedAt      time.Time     `json:"bookedAt"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Total recomputes the amount due from the captured per-seat price.
func (b *Booking) Total() float64 {
	return float64(b.NumberOfSeats) * b.PricePerSeat
}

// Cancelled reports whether the booking has been cancelled.
func (b *Booking) Cancelled() bool {
	return b.Status == BookingCancelled
}

// BookingFilter narrows a booking listing. Zero fields match everything.
type BookingFilter struct {
	UserID  string
	EventID string
}

// CreateBookingRequest is the payload for booking seats.
type CreateBookingRequest struct {
	EventID       string   `json:"eventId" validate:"required,uuid"`
	NumberOfSeats int      `json:"numberOfSeats" validate:"required,min=1,max=10"`
	Payment       *Payment `json:"payment"`
}

// CancelBookingRequest is the optional payload for a cancellation.
type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
