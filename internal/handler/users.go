package handler

import (
	"net/http"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/go-chi/chi/v5"
)

// Profile handles GET /users/me
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Profile(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /users/me
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.badBody(w, err)
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), principal(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListUsers handles GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// DeleteUser handles DELETE /users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "user deleted"})
}

// AdminStats handles GET /users/admin/stats
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	totals, err := h.users.Stats(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}
