package handler

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns the API router, to be mounted under /api. limiter guards
// the credential endpoints and may be nil.
func (h *Handler) Routes(limiter *RateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Limit)
		}
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(h.Authenticate).Post("/logout", h.Logout)
	})

	r.Route("/events", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.OptionalAuth)
			r.Get("/", h.ListEvents)
			r.Get("/{id}", h.GetEvent)
			r.Get("/{id}/live", h.LiveAvailability)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Post("/", h.CreateEvent)
			r.Put("/{id}", h.UpdateEvent)
			r.Delete("/{id}", h.DeleteEvent)
			r.Post("/{id}/approve", h.ApproveEvent)
			r.Post("/{id}/reject", h.RejectEvent)
			r.Get("/{id}/bookings", h.ListEventBookings)
		})
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Post("/", h.CreateBooking)
		r.Get("/", h.ListBookings)
		r.Get("/me", h.MyBookings)
		r.Get("/{id}", h.GetBooking)
		r.Post("/{id}/cancel", h.CancelBooking)
		r.Delete("/{id}", h.DeleteBooking)
		r.Get("/{id}/qr", h.BookingQR)
		r.Get("/{id}/ticket", h.BookingTicket)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Get("/", h.ListUsers)
		r.Get("/me", h.Profile)
		r.Put("/me", h.UpdateProfile)
		r.Get("/admin/stats", h.AdminStats)
		r.Delete("/{id}", h.DeleteUser)
	})

	return r
}
