package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"propmarket-go/models"
)

func (h *Handlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	properties, err := h.favorites.List(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, properties)
}

func (h *Handlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req models.AddFavoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}

	if err := h.favorites.Add(r.Context(), userID, req.PropertyID); err != nil {
		h.handleError(w, r, err)
		return
	}
	respondMessage(w, http.StatusCreated, "Added to favorites")
}

func (h *Handlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.favorites.Remove(r.Context(), userID, mux.Vars(r)["propertyId"]); err != nil {
		h.handleError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Removed from favorites")
}
