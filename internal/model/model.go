// Package model defines the core domain types for the event booking system.
package model

import "time"

// Role is the access level of a user account.
type Role string

const (
	RoleGuest     Role = "guest"
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// User is an attendee, organizer or admin account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	IsActive     bool      `json:"isActive"`
	Stats        UserStats `json:"stats"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserStats are lifetime counters maintained by the booking engine.
type UserStats struct {
	TotalBookings int     `json:"totalBookings"`
	TotalSpent    float64 `json:"totalSpent"`
	EventsCreated int     `json:"eventsCreated"`
}

// Totals is the admin dashboard summary.
type Totals struct {
	Users    int64   `json:"users"`
	Events   int64   `json:"events"`
	Bookings int64   `json:"bookings"`
	Revenue  float64 `json:"revenue"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// MessageResponse acknowledges an operation that has no resource to return.
type MessageResponse struct {
	Message string `json:"message"`
}
