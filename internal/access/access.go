// Package access holds the authorization predicates evaluated before a
// mutating operation runs. A failed check yields a *DeniedError, which
// matches ErrPermissionDenied under errors.Is.
package access

import (
	"errors"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
)

// ErrPermissionDenied is the sentinel behind every authorization failure.
var ErrPermissionDenied = errors.New("permission denied")

// ErrUnauthenticated is returned when an operation needs a caller and has none.
var ErrUnauthenticated = errors.New("unauthorized")

// Principal is the authenticated caller.
type Principal struct {
	ID    string
	Name  string
	Email string
	Phone string
	Role  model.Role
}

// DeniedError explains which action was refused.
type DeniedError struct {
	Action string
}

func (e *DeniedError) Error() string {
	if e.Action == "" {
		return ErrPermissionDenied.Error()
	}
	return ErrPermissionDenied.Error() + ": " + e.Action
}

// Is makes errors.Is(err, ErrPermissionDenied) hold.
func (e *DeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// Rule is a predicate over the caller.
type Rule func(p *Principal) bool

// Admin allows admins.
func Admin(p *Principal) bool {
	return p.Role == model.RoleAdmin
}

// HasRole allows any of the listed roles.
func HasRole(roles ...model.Role) Rule {
	return func(p *Principal) bool {
		for _, r := range roles {
			if p.Role == r {
				return true
			}
		}
		return false
	}
}

// Self allows the caller whose id is userID. An empty userID never matches.
func Self(userID string) Rule {
	return func(p *Principal) bool {
		return userID != "" && p.ID == userID
	}
}

// OrganizerOf allows the organizer recorded on the event.
func OrganizerOf(e *model.Event) Rule {
	return Self(e.Organizer.ID)
}

// AnyOf allows the caller when at least one rule does.
func AnyOf(rules ...Rule) Rule {
	return func(p *Principal) bool {
		for _, r := range rules {
			if r(p) {
				return true
			}
		}
		return false
	}
}

// Require checks rule against p and names action in the failure.
func Require(p *Principal, action string, rule Rule) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if !rule(p) {
		return &DeniedError{Action: action}
	}
	return nil
}

// Allowed reports whether p passes rule. A nil principal is never allowed.
func Allowed(p *Principal, rule Rule) bool {
	return p != nil && rule(p)
}
