package handler

import (
	"errors"
	"net/http"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/access"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/auth"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/repository"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/service"
)

// statusOf maps a service error to its HTTP status. Anything unrecognised
// is an internal error.
func statusOf(err error) int {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, service.ErrInsufficientSeats):
		return http.StatusBadRequest
	case errors.Is(err, access.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, access.ErrPermissionDenied),
		errors.Is(err, service.ErrAccountDisabled):
		return http.StatusForbidden
	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyCancelled),
		errors.Is(err, service.ErrTicketUnavailable),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrDuplicateTitle),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, repository.ErrTransient):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders err as a {"message"} body. Internal errors are logged
// and replaced with an opaque message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	switch status {
	case http.StatusInternalServerError:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeMessage(w, status, "internal server error")
		return
	case http.StatusServiceUnavailable:
		h.logger.Warn("transaction conflict", "method", r.Method, "path", r.URL.Path, "err", err)
		writeMessage(w, status, repository.ErrTransient.Error())
		return
	case http.StatusUnauthorized:
		if errors.Is(err, auth.ErrInvalidToken) {
			writeMessage(w, status, "invalid or expired token")
			return
		}
	}

	var ve *service.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, status, model.ErrorResponse{Message: ve.Message, Fields: ve.Fields})
		return
	}
	writeMessage(w, status, err.Error())
}

func (h *Handler) badBody(w http.ResponseWriter, err error) {
	writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
}
