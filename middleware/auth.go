package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"propmarket-go/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

// writeError mirrors the error body the handlers produce.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"code":      code,
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}

func JWTAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authorization header required")
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := utils.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			utils.Logger.WithFields(logrus.Fields{
				"path": r.URL.Path,
				"ip":   ClientIP(r),
			}).WithError(err).Debug("Token validation failed")
			writeError(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminAuth rejects tokens without the admin role. Services still check
// the account itself, so a demoted or suspended admin holding an old token
// is refused there.
func AdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserFromContext(r)
		if claims == nil {
			writeError(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if !claims.IsAdmin {
			utils.Logger.WithFields(logrus.Fields{
				"user_id": claims.UserID,
				"path":    r.URL.Path,
			}).Warn("Non-admin attempted to access admin endpoint")
			writeError(w, http.StatusForbidden, utils.ErrCodeForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserFromContext(r *http.Request) *utils.Claims {
	if claims, ok := r.Context().Value(UserContextKey).(*utils.Claims); ok {
		return claims
	}
	return nil
}
