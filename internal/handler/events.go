package handler

import (
	"net/http"
	"strconv"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/go-chi/chi/v5"
)

// EventPage is the response of a listing.
type EventPage struct {
	Events []model.Event `json:"events"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

// ListEvents handles GET /events
// Query parameters: q, category, status, organizerId, page, limit.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.EventFilter{
		Query:       q.Get("q"),
		Category:    q.Get("category"),
		Status:      model.EventStatus(q.Get("status")),
		OrganizerID: q.Get("organizerId"),
	}
	// Malformed numbers fall back to the defaults.
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))

	events, applied, err := h.events.List(r.Context(), principal(r), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EventPage{Events: events, Page: applied.Page, Limit: applied.Limit})
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// CreateEvent handles POST /events
// The event starts out pending until an admin approves it.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.badBody(w, err)
		return
	}
	event, err := h.events.Create(r.Context(), principal(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// UpdateEvent handles PUT /events/{id}
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.badBody(w, err)
		return
	}
	event, err := h.events.Update(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/{id}
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "event deleted"})
}

// ApproveEvent handles POST /events/{id}/approve
func (h *Handler) ApproveEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Approve(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// RejectEvent handles POST /events/{id}/reject
func (h *Handler) RejectEvent(w http.ResponseWriter, r *http.Request) {
	var req model.RejectEventRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		h.badBody(w, err)
		return
	}
	event, err := h.events.Reject(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// ListEventBookings handles GET /events/{id}/bookings
func (h *Handler) ListEventBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListForEvent(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeBookings(w, bookings)
}

// LiveAvailability handles GET /events/{id}/live
// It upgrades to a websocket that streams the event's seat counts.
func (h *Handler) LiveAvailability(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeMessage(w, http.StatusNotFound, "live updates are disabled")
		return
	}
	event, err := h.events.Get(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.hub.Serve(w, r, model.AvailabilityOf(event))
}
