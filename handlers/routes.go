package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"propmarket-go/metrics"
	"propmarket-go/middleware"
	"propmarket-go/utils"
)

// RouterOptions carries the cross-cutting pieces of the router. Nil fields
// are skipped.
type RouterOptions struct {
	Metrics     *metrics.Manager
	Limiter     *middleware.RateLimiter
	AuthLimiter *middleware.RateLimiter
}

func NewRouter(h *Handlers, opts RouterOptions) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, http.StatusNotFound, utils.ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, http.StatusMethodNotAllowed, utils.ErrCodeValidation, "Method not allowed", nil)
	})

	r.Use(middleware.RequestLogger)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Limit)
	}

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	authed := func(f http.HandlerFunc) http.Handler {
		return middleware.JWTAuth(f)
	}

	// Auth
	authRoutes := api.PathPrefix("/auth").Subrouter()
	if opts.AuthLimiter != nil {
		authRoutes.Use(opts.AuthLimiter.Limit)
	}
	authRoutes.HandleFunc("/request-otp", h.RequestOTP).Methods(http.MethodPost)
	authRoutes.HandleFunc("/verify-otp", h.VerifyOTP).Methods(http.MethodPost)
	authRoutes.Handle("/complete-profile", authed(h.CompleteProfile)).Methods(http.MethodPost)
	authRoutes.Handle("/me", authed(h.Me)).Methods(http.MethodGet)

	// Users
	api.Handle("/users/{id}", authed(h.GetUser)).Methods(http.MethodGet)
	api.Handle("/users/{id}/profile", authed(h.UpdateProfile)).Methods(http.MethodPatch)

	// Listings
	api.HandleFunc("/properties", h.SearchProperties).Methods(http.MethodGet)
	api.Handle("/properties", authed(h.CreateProperty)).Methods(http.MethodPost)
	api.HandleFunc("/properties/featured", h.FeaturedProperties).Methods(http.MethodGet)
	api.HandleFunc("/properties/{id}", h.GetProperty).Methods(http.MethodGet)
	api.Handle("/properties/{id}", authed(h.UpdateProperty)).Methods(http.MethodPatch)
	api.Handle("/properties/{id}", authed(h.DeleteProperty)).Methods(http.MethodDelete)
	api.Handle("/properties/{id}/status", authed(h.UpdatePropertyStatus)).Methods(http.MethodPatch)
	api.Handle("/my-listings", authed(h.MyListings)).Methods(http.MethodGet)

	// Documents and verification
	api.Handle("/properties/{id}/documents", authed(h.UploadDocument)).Methods(http.MethodPost)
	api.Handle("/properties/{id}/documents", authed(h.ListDocuments)).Methods(http.MethodGet)
	api.Handle("/properties/{id}/request-verification", authed(h.RequestVerification)).Methods(http.MethodPost)
	api.Handle("/documents/{id}/url", authed(h.DocumentURL)).Methods(http.MethodGet)
	api.Handle("/documents/{id}", authed(h.DeleteDocument)).Methods(http.MethodDelete)
	api.HandleFunc("/config/storage-status", h.StorageStatus).Methods(http.MethodGet)

	// Favorites and inquiries
	api.Handle("/favorites", authed(h.ListFavorites)).Methods(http.MethodGet)
	api.Handle("/favorites", authed(h.AddFavorite)).Methods(http.MethodPost)
	api.Handle("/favorites/{propertyId}", authed(h.RemoveFavorite)).Methods(http.MethodDelete)
	api.Handle("/inquiries", authed(h.CreateInquiry)).Methods(http.MethodPost)
	api.Handle("/inquiries/received", authed(h.ReceivedInquiries)).Methods(http.MethodGet)
	api.Handle("/inquiries/sent", authed(h.SentInquiries)).Methods(http.MethodGet)
	api.Handle("/inquiries/{id}/read", authed(h.MarkInquiryRead)).Methods(http.MethodPatch)

	// Admin
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.JWTAuth, middleware.AdminAuth)
	admin.HandleFunc("/stats", h.AdminStats).Methods(http.MethodGet)
	admin.HandleFunc("/pending-listings", h.PendingListings).Methods(http.MethodGet)
	admin.HandleFunc("/pending-verifications", h.PendingVerifications).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/recent", h.RecentUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/status", h.SetUserStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/users/{id}", h.DeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/audit-logs", h.GetAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/properties/{id}/approve", h.ApproveProperty).Methods(http.MethodPatch)
	admin.HandleFunc("/properties/{id}/reject", h.RejectProperty).Methods(http.MethodPatch)
	admin.HandleFunc("/properties/{id}/verify", h.VerifyProperty).Methods(http.MethodPatch)
	admin.HandleFunc("/properties/{id}/featured", h.FeatureProperty).Methods(http.MethodPatch)
	admin.HandleFunc("/create-admin", h.CreateAdmin).Methods(http.MethodPost)

	return r
}
