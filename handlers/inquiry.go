package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"propmarket-go/models"
)

func (h *Handlers) CreateInquiry(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req models.CreateInquiryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}

	inquiry, err := h.inquiries.Create(r.Context(), userID, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, inquiry)
}

func (h *Handlers) ReceivedInquiries(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	inquiries, err := h.inquiries.Received(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, inquiries)
}

func (h *Handlers) SentInquiries(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	inquiries, err := h.inquiries.Sent(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, inquiries)
}

func (h *Handlers) MarkInquiryRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.inquiries.MarkRead(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		h.handleError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Inquiry marked as read")
}
