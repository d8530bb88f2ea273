package handlers

import (
	"net/http"

	"propmarket-go/models"
)

func (h *Handlers) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req models.RequestOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}

	if err := h.auth.RequestCode(r.Context(), req.Email); err != nil {
		h.handleError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "A login code has been sent to your email")
}

func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}

	result, err := h.auth.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	details := "User logged in"
	if result.User.IsAdmin() {
		details = "Admin user logged in"
	}
	h.logAudit(r, result.User.ID, "LOGIN", "AUTH", result.User.ID, details)

	respondJSON(w, http.StatusOK, models.VerifyOTPResponse{
		User:      *result.User,
		IsNewUser: result.IsNewUser,
		Token:     result.Token,
	})
}

func (h *Handlers) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req models.CompleteProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}

	user, token, err := h.auth.CompleteOnboarding(r.Context(), userID, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.logAudit(r, user.ID, "UPDATE", "USER", user.ID, "Onboarding completed as "+user.Role)

	respondJSON(w, http.StatusOK, models.AuthResponse{User: *user, Token: token})
}

// Me returns the directory record of the caller, not the token claims.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
