package handler

import (
	"net/http"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
)

// Register handles POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.badBody(w, err)
		return
	}
	resp, err := h.users.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.badBody(w, err)
		return
	}
	resp, err := h.users.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /auth/logout
// The presented token stops authenticating once revoked.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Logout(r.Context(), claims(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "logged out"})
}
