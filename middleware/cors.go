package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows browser clients from origins. Sessions travel in the
// Authorization header, so cookies are never allowed.
func CORS(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}
	return cors.New(opts).Handler
}
