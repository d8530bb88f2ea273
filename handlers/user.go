package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"propmarket-go/models"
)

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}
	user, err := h.users.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}

	targetID := mux.Vars(r)["id"]
	user, err := h.users.UpdateProfile(r.Context(), targetID, requesterID, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.logAudit(r, requesterID, "UPDATE", "USER", targetID, "Profile updated")
	respondJSON(w, http.StatusOK, user)
}
