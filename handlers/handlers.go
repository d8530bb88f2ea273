package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"propmarket-go/middleware"
	"propmarket-go/models"
	"propmarket-go/repositories"
	"propmarket-go/services"
	"propmarket-go/utils"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status    int         `json:"status"`
	Code      string      `json:"code"`
	Error     string      `json:"error"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func sendError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	respondJSON(w, status, ErrorResponse{
		Status:    status,
		Code:      code,
		Error:     message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		utils.Logger.WithError(err).Warn("Failed to encode response")
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// Services groups the application services the handlers delegate to.
type Services struct {
	Auth         *services.AuthService
	Users        *services.UserService
	Properties   *services.PropertyService
	Verification *services.VerificationService
	Inquiries    *services.InquiryService
	Favorites    *services.FavoriteService
}

type Handlers struct {
	auth           *services.AuthService
	users          *services.UserService
	properties     *services.PropertyService
	verification   *services.VerificationService
	inquiries      *services.InquiryService
	favorites      *services.FavoriteService
	audit          repositories.AuditRepository
	maxUploadBytes int64
}

func NewHandlers(svc Services, audit repositories.AuditRepository, maxUploadBytes int64) *Handlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Handlers{
		auth:           svc.Auth,
		users:          svc.Users,
		properties:     svc.Properties,
		verification:   svc.Verification,
		inquiries:      svc.Inquiries,
		favorites:      svc.Favorites,
		audit:          audit,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "PropMarket",
		"version":   "1.0.0",
	})
}

// handleError writes err as a JSON error. Causes wrapped inside an AppError
// are logged and never sent to the client.
func (h *Handlers) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		appErr = utils.NewInternalError("Internal server error", err)
	}

	entry := utils.Logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": appErr.StatusCode,
		"code":   appErr.Code,
	})
	if appErr.Err != nil {
		entry = entry.WithError(appErr.Err)
	}
	if appErr.StatusCode >= http.StatusInternalServerError {
		entry.Error(appErr.Message)
	} else {
		entry.Debug(appErr.Message)
	}

	sendError(w, appErr.StatusCode, appErr.Code, appErr.Message, appErr.Details)
}

func (h *Handlers) badRequest(w http.ResponseWriter, message string) {
	sendError(w, http.StatusBadRequest, utils.ErrCodeValidation, message, nil)
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// userID returns the authenticated caller, writing a 401 when there is none.
func (h *Handlers) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or missing token", nil)
		return "", false
	}
	return claims.UserID, true
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func (h *Handlers) logAudit(r *http.Request, userID, action, resource, resourceID, details string) {
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
		IPAddress:  middleware.ClientIP(r),
		UserAgent:  r.UserAgent(),
	}
	if userID != "" {
		entry.UserID = &userID
	}
	if err := h.audit.Create(r.Context(), entry); err != nil {
		utils.Logger.WithError(err).WithField("action", action).Warn("Failed to write audit log")
	}
}
