package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/repository"
	"github.com/go-playground/validator/v10"
)

// Domain errors. Their messages are safe to show to clients.
var (
	ErrEventNotFound   = errors.New("event not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrBookingNotFound = errors.New("booking not found")

	ErrInsufficientSeats  = errors.New("not enough seats available")
	ErrAlreadyCancelled   = errors.New("booking already cancelled")
	ErrTicketUnavailable  = errors.New("no ticket for a cancelled booking")
	ErrInvalidTransition  = errors.New("event status cannot change from its current state")
	ErrDuplicateTitle     = errors.New("an event with a similar title already exists, please choose a different title")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// notFound swaps a store-level ErrNotFound for the given domain error.
func notFound(err, domain error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain
	}
	return err
}

// ValidationError reports rejected input, optionally per field.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalidField(field, msg string) *ValidationError {
	return &ValidationError{Message: msg, Fields: map[string]string{field: msg}}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct's validate tags and converts failures into
// a *ValidationError keyed by JSON field path.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	ve := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		msg := fieldMessage(path, fe)
		ve.Fields[path] = msg
		msgs = append(msgs, msg)
	}
	ve.Message = strings.Join(msgs, ", ")
	return ve
}

func fieldMessage(field string, fe validator.FieldError) string {
	var unit string
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Map:
		unit = " items"
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if unit == "" {
			return field + " must be at least " + fe.Param()
		}
		return field + " must have at least " + fe.Param() + unit
	case "max":
		if unit == "" {
			return field + " must be at most " + fe.Param()
		}
		return field + " must have at most " + fe.Param() + unit
	case "len":
		return field + " must have exactly " + fe.Param() + unit
	case "email":
		return field + " must be a valid email address"
	case "uuid":
		return field + " is not a valid id"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	}
	return field + " is invalid"
}
