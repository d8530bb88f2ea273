package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"propmarket-go/models"
	"propmarket-go/utils"
)

func (h *Handlers) AdminStats(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.userID(w, r)
	if !ok {
		return
	}
	stats, err := h.properties.Stats(r.Context(), adminID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handlers) PendingListings(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.userID(w, r)
	if !ok {
		return
	}
	properties, err := h.properties.PendingListings(r.Context(), adminID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, properties)
}

func (h *Handlers) PendingVerifications(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.userID(w, r)
	if !ok {
		return
	}
	properties, err := h.verification.PendingVerifications(r.Context(), adminID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, properties)
}

func (h *Handlers) ApproveProperty(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	property, err := h.properties.Approve(r.Context(), id, adminID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.logAudit(r, adminID, "APPROVE", "PROPERTY", id, "Listing approved")
	respondJSON(w, http.StatusOK, property)
}

func (h *Handlers) RejectProperty(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req models.RejectPropertyRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.badRequest(w, "Invalid request body")
			return
		}
	}

	id := mux.Vars(r)["id"]
	property, err := h.properties.Reject(r.Context(), id, adminID, req.Reason)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.logAudit(r, adminID, "REJECT", "PROPERTY", id, "Listing rejected: "+req.Reason)
	respondJSON(w, http.StatusOK, property)
}

func (h *Handlers) VerifyProperty(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req models.VerifyPropertyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}

	id := mux.Vars(r)["id"]
	property, err := h.verification.DecideVerification(r.Context(), id, adminID, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.logAudit(r, adminID, "VERIFY", "PROPERTY", id, "Verification decided: "+req.Status)
	respondJSON(w, http.StatusOK, property)
}

func (h *Handlers) FeatureProperty(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req models.FeaturePropertyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}

	property, err := h.properties.SetFeatured(r.Context(), mux.Vars(r)["id"], adminID, req.IsFeatured)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.userID(w, r)
	if !ok {
		return
	}
	page, err := h.users.List(r.Context(), adminID, queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handlers) RecentUsers(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.userID(w, r)
	if !ok {
		return
	}
	users, err := h.users.Recent(r.Context(), adminID, queryInt(r, "limit"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handlers) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req models.UserStatusRequest
	if err := decodeJSON(r, &req); err != nil || req.IsActive == nil {
		h.badRequest(w, "isActive is required")
		return
	}

	id := mux.Vars(r)["id"]
	user, err := h.users.SetActive(r.Context(), id, adminID, *req.IsActive)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.logAudit(r, adminID, "UPDATE", "USER", id, "Account active="+strconv.FormatBool(*req.IsActive))
	respondJSON(w, http.StatusOK, user)
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.users.Delete(r.Context(), id, adminID); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.logAudit(r, adminID, "DELETE", "USER", id, "Account deleted")
	respondMessage(w, http.StatusOK, "User deleted")
}

func (h *Handlers) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req models.CreateAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}

	user, err := h.users.CreateAdmin(r.Context(), requesterID, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.logAudit(r, requesterID, "CREATE", "USER", user.ID, "Admin account created")
	respondJSON(w, http.StatusCreated, user)
}

func (h *Handlers) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if _, err := h.users.RequireAdmin(r.Context(), adminID); err != nil {
		h.handleError(w, r, err)
		return
	}

	page := queryInt(r, "page")
	if page <= 0 {
		page = 1
	}
	limit := queryInt(r, "limit")
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	entries, err := h.audit.List(r.Context(), (page-1)*limit, limit)
	if err != nil {
		h.handleError(w, r, utils.NewInternalError("Failed to fetch audit logs", err))
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
