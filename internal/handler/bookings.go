package handler

import (
	"net/http"
	"strconv"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/ticket"
	"github.com/go-chi/chi/v5"
)

const qrSize = 256

func writeBookings(w http.ResponseWriter, bookings []model.Booking) {
	// Return an empty array rather than null for better client compatibility.
	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// CreateBooking handles POST /bookings
// Reserves seats and returns the confirmed booking.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBookingRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.badBody(w, err)
		return
	}
	booking, err := h.bookings.Create(r.Context(), principal(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// MyBookings handles GET /bookings/me
func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListMine(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeBookings(w, bookings)
}

// ListBookings handles GET /bookings
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListAll(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeBookings(w, bookings)
}

// GetBooking handles GET /bookings/{id}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.Get(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// CancelBooking handles POST /bookings/{id}/cancel
// The body is optional and may carry a reason.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	var req model.CancelBookingRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		h.badBody(w, err)
		return
	}
	booking, err := h.bookings.Cancel(r.Context(), principal(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// DeleteBooking handles DELETE /bookings/{id}
func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.bookings.Delete(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "booking deleted"})
}

// BookingQR handles GET /bookings/{id}/qr
func (h *Handler) BookingQR(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.Ticket(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	png, err := ticket.QR(booking, qrSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// BookingTicket handles GET /bookings/{id}/ticket
func (h *Handler) BookingTicket(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.Ticket(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	pdf, err := ticket.PDF(booking)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="ticket-`+booking.BookingID+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
