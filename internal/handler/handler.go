// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/live"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/service"
)

// Handler holds all HTTP handlers for the booking API.
type Handler struct {
	users    *service.UserService
	events   *service.EventService
	bookings *service.BookingService
	hub      *live.Hub
	logger   *slog.Logger
}

// New constructs a Handler. hub may be nil, which disables the live feed.
func New(
	users *service.UserService,
	events *service.EventService,
	bookings *service.BookingService,
	hub *live.Hub,
	logger *slog.Logger,
) *Handler {
	return &Handler{users: users, events: events, bookings: bookings, hub: hub, logger: logger}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Message: msg})
}

// decodeJSON reads a JSON body into dst. An empty body is accepted when
// optional is set, leaving dst at its zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
