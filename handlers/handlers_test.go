package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"propmarket-go/config"
	"propmarket-go/database"
	"propmarket-go/metrics"
	"propmarket-go/models"
	"propmarket-go/repositories"
	"propmarket-go/services"
	"propmarket-go/utils"
)

const superAdminEmail = "root@propmarket.test"

func TestMain(m *testing.M) {
	if err := utils.InitializeJWT("handlers-test-secret-0123456789abcdef", time.Hour); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type captureNotifier struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (n *captureNotifier) SendLoginCode(ctx context.Context, email, code string, ttl time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[email] = code
	return n.err
}

func (n *captureNotifier) code(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[email]
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memoryStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return "https://storage.test/" + key, nil
}

func (s *memoryStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryStorage) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://storage.test/signed/" + key, nil
}

type testServer struct {
	router   *mux.Router
	notifier *captureNotifier
	storage  *memoryStorage
	users    repositories.UserRepository
}

func newTestServer(t *testing.T, notifier services.Notifier) *testServer {
	t.Helper()
	db, err := database.Initialize(":memory:", logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	capture := &captureNotifier{codes: make(map[string]string)}
	if notifier == nil {
		notifier = capture
	}
	store := &memoryStorage{objects: make(map[string][]byte)}
	m := metrics.NewManager("test")

	users := repositories.NewUserRepository(db)
	props := repositories.NewPropertyRepository(db)
	docs := repositories.NewDocumentRepository(db)

	h := NewHandlers(Services{
		Auth: services.NewAuthService(repositories.NewOTPRepository(db), users, notifier,
			services.AuthConfig{SuperAdminEmail: superAdminEmail}, m),
		Users:        services.NewUserService(users),
		Properties:   services.NewPropertyService(props, docs, users, store, nil, nil),
		Verification: services.NewVerificationService(props, docs, users, store, nil, nil, m, 1<<20),
		Inquiries:    services.NewInquiryService(repositories.NewInquiryRepository(db), props, users, nil),
		Favorites:    services.NewFavoriteService(repositories.NewFavoriteRepository(db), props, users),
	}, repositories.NewAuditRepository(db), 1<<20)

	return &testServer{
		router:   NewRouter(h, RouterOptions{Metrics: m}),
		notifier: capture,
		storage:  store,
		users:    users,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// seedUser stores an onboarded account and returns it with a session token.
func (s *testServer) seedUser(t *testing.T, email, role string) (*models.User, string) {
	t.Helper()
	name, phone := "Seed User", "5550001111"
	user := &models.User{
		Email:              email,
		FullName:           &name,
		Phone:              &phone,
		Role:               role,
		IsActive:           true,
		OnboardingComplete: true,
	}
	require.NoError(t, s.users.Create(context.Background(), user))
	token, err := utils.GenerateToken(user.ID, user.Email, user.Role)
	require.NoError(t, err)
	return user, token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, status, body.Status)
	assert.Equal(t, code, body.Code)
	assert.NotEmpty(t, body.Error)
}

func listingBody() models.PropertyInput {
	return models.PropertyInput{
		Title:        "Bright corner apartment",
		Description:  "Two bedrooms with city views and a renovated kitchen.",
		ListingType:  models.ListingTypeSale,
		PropertyType: "apartment",
		Price:        250000,
		Address:      "100 Main Street",
		City:         "Denver",
		State:        "CO",
		ZipCode:      "80202",
		Bedrooms:     2,
		Bathrooms:    1,
		SquareFeet:   950,
	}
}

func TestLoginOnboardingAndListingFlow(t *testing.T) {
	s := newTestServer(t, nil)
	email := "seller@example.com"

	rec := s.do(t, http.MethodPost, "/api/auth/request-otp", "", map[string]string{"email": email})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	code := s.notifier.code(email)
	require.Len(t, code, 6)

	rec = s.do(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]string{"email": email, "code": code})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[models.VerifyOTPResponse](t, rec)
	assert.True(t, login.IsNewUser)
	assert.Equal(t, models.RoleBuyer, login.User.Role)
	require.NotEmpty(t, login.Token)

	rec = s.do(t, http.MethodPost, "/api/properties", login.Token, listingBody())
	requireError(t, rec, http.StatusForbidden, utils.ErrCodeForbidden)

	rec = s.do(t, http.MethodPost, "/api/auth/complete-profile", login.Token, models.CompleteProfileRequest{
		FullName: "Sam Seller", Phone: "5551234567", Role: models.RoleSeller,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	onboarded := decode[models.AuthResponse](t, rec)
	assert.True(t, onboarded.User.OnboardingComplete)
	assert.Equal(t, models.RoleSeller, onboarded.User.Role)

	rec = s.do(t, http.MethodGet, "/api/auth/me", onboarded.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, email, decode[models.User](t, rec).Email)

	rec = s.do(t, http.MethodPost, "/api/properties", onboarded.Token, listingBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	listing := decode[models.Property](t, rec)
	assert.Equal(t, models.StatusPending, listing.Status)

	rec = s.do(t, http.MethodGet, "/api/properties", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.PropertyPage](t, rec).Properties)

	_, adminToken := s.seedUser(t, "admin@example.com", models.RoleAdmin)
	rec = s.do(t, http.MethodPatch, "/api/admin/properties/"+listing.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/properties?city=denver&minPrice=100000", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[models.PropertyPage](t, rec)
	require.Len(t, page.Properties, 1)
	assert.Equal(t, listing.ID, page.Properties[0].ID)

	rec = s.do(t, http.MethodGet, "/api/properties/"+listing.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[models.PropertyWithOwner](t, rec)
	assert.Equal(t, 1, detail.Views)
	require.NotNil(t, detail.Owner)
	assert.Equal(t, email, detail.Owner.Email)
}

func uploadRequest(t *testing.T, path, token, docType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("documentType", docType))
	part, err := w.CreateFormFile("file", "deed.pdf")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestDocumentVerificationFlow(t *testing.T) {
	s := newTestServer(t, nil)
	_, sellerToken := s.seedUser(t, "seller@example.com", models.RoleSeller)
	_, adminToken := s.seedUser(t, "admin@example.com", models.RoleAdmin)
	_, buyerToken := s.seedUser(t, "buyer@example.com", models.RoleBuyer)

	rec := s.do(t, http.MethodPost, "/api/properties", sellerToken, listingBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	listing := decode[models.Property](t, rec)
	base := "/api/properties/" + listing.ID

	rec = s.do(t, http.MethodPost, base+"/request-verification", sellerToken, nil)
	requireError(t, rec, http.StatusBadRequest, utils.ErrCodePreconditionFailed)

	pdf := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, uploadRequest(t, base+"/documents", buyerToken, "sale_deed", pdf))
	requireError(t, rec, http.StatusForbidden, utils.ErrCodeForbidden)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, uploadRequest(t, base+"/documents", sellerToken, "ownership_proof", pdf))
	requireError(t, rec, http.StatusBadRequest, utils.ErrCodeValidation)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, uploadRequest(t, base+"/documents", sellerToken, "sale_deed", pdf))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[models.PropertyDocument](t, rec)
	assert.Equal(t, "application/pdf", doc.MimeType)
	assert.Len(t, s.storage.objects, 1)

	rec = s.do(t, http.MethodGet, "/api/admin/pending-verifications", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Property](t, rec), 1)

	rec = s.do(t, http.MethodPatch, "/api/admin/properties/"+listing.ID+"/verify", sellerToken,
		models.VerifyPropertyRequest{Status: models.VerificationVerified})
	requireError(t, rec, http.StatusForbidden, utils.ErrCodeForbidden)

	rec = s.do(t, http.MethodPatch, "/api/admin/properties/"+listing.ID+"/verify", adminToken,
		models.VerifyPropertyRequest{Status: models.VerificationVerified, Notes: "deed matches"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	verified := decode[models.Property](t, rec)
	assert.Equal(t, models.VerificationVerified, verified.VerificationStatus)
	assert.Equal(t, models.StatusPending, verified.Status)

	rec = s.do(t, http.MethodPatch, "/api/admin/properties/"+listing.ID+"/verify", adminToken,
		models.VerifyPropertyRequest{Status: models.VerificationRejected})
	requireError(t, rec, http.StatusBadRequest, utils.ErrCodePreconditionFailed)

	rec = s.do(t, http.MethodGet, "/api/documents/"+doc.ID+"/url", sellerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["url"], "signed")

	rec = s.do(t, http.MethodGet, "/api/config/storage-status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[map[string]bool](t, rec)["configured"])

	rec = s.do(t, http.MethodGet, "/api/admin/audit-logs", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[[]models.AuditLog](t, rec))
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t, nil)
	seller, sellerToken := s.seedUser(t, "seller@example.com", models.RoleSeller)
	_, buyerToken := s.seedUser(t, "buyer@example.com", models.RoleBuyer)
	_, adminToken := s.seedUser(t, "admin@example.com", models.RoleAdmin)
	_, rootToken := s.seedUser(t, superAdminEmail, models.RoleAdmin)
	root, err := s.users.GetByEmail(context.Background(), superAdminEmail)
	require.NoError(t, err)
	root.IsSuperAdmin = true
	require.NoError(t, s.users.Update(context.Background(), root))

	suspended, suspendedToken := s.seedUser(t, "gone@example.com", models.RoleBuyer)
	suspended.IsActive = false
	require.NoError(t, s.users.Update(context.Background(), suspended))

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
		code   string
	}{
		{"missing token", http.MethodGet, "/api/my-listings", "", nil, http.StatusUnauthorized, utils.ErrCodeUnauthorized},
		{"garbage token", http.MethodGet, "/api/my-listings", "not-a-jwt", nil, http.StatusUnauthorized, utils.ErrCodeUnauthorized},
		{"invalid email", http.MethodPost, "/api/auth/request-otp", "", map[string]string{"email": "nope"}, http.StatusBadRequest, utils.ErrCodeValidation},
		{"wrong code", http.MethodPost, "/api/auth/verify-otp", "", map[string]string{"email": "x@example.com", "code": "123456"}, http.StatusUnauthorized, utils.ErrCodeInvalidCode},
		{"non-admin on admin route", http.MethodGet, "/api/admin/stats", buyerToken, nil, http.StatusForbidden, utils.ErrCodeForbidden},
		{"suspended account", http.MethodGet, "/api/favorites", suspendedToken, nil, http.StatusForbidden, utils.ErrCodeAccountSuspended},
		{"unknown listing", http.MethodGet, "/api/properties/missing", "", nil, http.StatusNotFound, utils.ErrCodeNotFound},
		{"unknown route", http.MethodGet, "/api/nowhere", "", nil, http.StatusNotFound, utils.ErrCodeNotFound},
		{"bad filter", http.MethodGet, "/api/properties?minPrice=cheap", "", nil, http.StatusBadRequest, utils.ErrCodeValidation},
		{"admin not super-admin", http.MethodPost, "/api/admin/create-admin", adminToken,
			models.CreateAdminRequest{Email: "new@example.com", FullName: "New Admin", Phone: "5550009999"}, http.StatusForbidden, utils.ErrCodeForbidden},
		{"duplicate admin email", http.MethodPost, "/api/admin/create-admin", rootToken,
			models.CreateAdminRequest{Email: seller.Email, FullName: "New Admin", Phone: "5550009999"}, http.StatusBadRequest, utils.ErrCodeConflict},
		{"super-admin cannot be deleted", http.MethodDelete, "/api/admin/users/" + root.ID, adminToken, nil, http.StatusForbidden, utils.ErrCodeForbidden},
		{"status without isActive", http.MethodPatch, "/api/admin/users/" + seller.ID + "/status", adminToken, map[string]string{}, http.StatusBadRequest, utils.ErrCodeValidation},
		{"closing an unknown listing", http.MethodPatch, "/api/properties/missing/status", sellerToken,
			models.PropertyStatusRequest{Status: models.StatusSold}, http.StatusNotFound, utils.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.token, tt.body)
			requireError(t, rec, tt.status, tt.code)
		})
	}
}

func TestValidationErrorsListFields(t *testing.T) {
	s := newTestServer(t, nil)
	_, sellerToken := s.seedUser(t, "seller@example.com", models.RoleSeller)

	body := listingBody()
	body.Title = "Loft"
	body.Price = 0
	rec := s.do(t, http.MethodPost, "/api/properties", sellerToken, body)
	requireError(t, rec, http.StatusBadRequest, utils.ErrCodeValidation)

	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "title must be at least 5 characters", resp.Error)
	details, ok := resp.Details.(map[string]interface{})
	require.True(t, ok, "details: %v", resp.Details)
	assert.Contains(t, details, "title")
	assert.Contains(t, details, "price")
}

func TestNotifierFailures(t *testing.T) {
	unconfigured := newTestServer(t, services.NewNotifier(config.EmailConfig{}))
	rec := unconfigured.do(t, http.MethodPost, "/api/auth/request-otp", "", map[string]string{"email": "a@example.com"})
	requireError(t, rec, http.StatusServiceUnavailable, utils.ErrCodeDependencyUnavailable)

	failing := &captureNotifier{codes: make(map[string]string), err: errors.New("smtp: connection refused")}
	s := newTestServer(t, failing)
	rec = s.do(t, http.MethodPost, "/api/auth/request-otp", "", map[string]string{"email": "a@example.com"})
	requireError(t, rec, http.StatusInternalServerError, utils.ErrCodeDeliveryFailed)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHandleErrorHidesInternalCauses(t *testing.T) {
	h := &Handlers{}
	req := httptest.NewRequest(http.MethodGet, "/api/anything", nil)
	rec := httptest.NewRecorder()

	h.handleError(rec, req, errors.New("pq: relation \"users\" does not exist"))

	requireError(t, rec, http.StatusInternalServerError, utils.ErrCodeInternal)
	assert.NotContains(t, rec.Body.String(), "relation")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]interface{}](t, rec)["status"])

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}
