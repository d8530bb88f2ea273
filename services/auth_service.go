package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"propmarket-go/metrics"
	"propmarket-go/models"
	"propmarket-go/repositories"
	"propmarket-go/utils"
)

type AuthConfig struct {
	SuperAdminEmail string
	CodeLength      int
	CodeTTL         time.Duration
	MaxAttempts     int
}

// LoginResult is returned after a code is accepted.
type LoginResult struct {
	User      *models.User
	IsNewUser bool
	Token     string
}

// AuthService implements passwordless login by emailed one-time code and
// the onboarding step that follows a first login.
type AuthService struct {
	otps     repositories.OTPRepository
	users    repositories.UserRepository
	notifier Notifier
	metrics  *metrics.Manager
	cfg      AuthConfig
	now      func() time.Time
}

func NewAuthService(
	otps repositories.OTPRepository,
	users repositories.UserRepository,
	notifier Notifier,
	cfg AuthConfig,
	m *metrics.Manager,
) *AuthService {
	if cfg.CodeLength == 0 {
		cfg.CodeLength = 6
	}
	if cfg.CodeTTL == 0 {
		cfg.CodeTTL = 5 * time.Minute
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 5
	}
	cfg.SuperAdminEmail = utils.NormalizeEmail(cfg.SuperAdminEmail)
	return &AuthService{
		otps:     otps,
		users:    users,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

// RequestCode issues a fresh code for email, retiring any earlier one, and
// sends it. When sending fails the stored code stays valid.
func (s *AuthService) RequestCode(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	if err := utils.ValidateStruct(models.RequestOTPRequest{Email: email}); err != nil {
		return validationError(err)
	}

	code, err := utils.GenerateNumericCode(s.cfg.CodeLength)
	if err != nil {
		return utils.NewInternalError("Failed to generate code", err)
	}
	hash, err := utils.HashCode(code)
	if err != nil {
		return utils.NewInternalError("Failed to generate code", err)
	}

	cred := &models.OTPCredential{
		Email:     email,
		CodeHash:  hash,
		ExpiresAt: s.now().Add(s.cfg.CodeTTL),
	}
	if err := s.otps.Replace(ctx, cred); err != nil {
		return utils.NewInternalError("Failed to store code", err)
	}
	if s.metrics != nil {
		s.metrics.OTPRequestsTotal.Inc()
	}

	if err := s.notifier.SendLoginCode(ctx, email, code, s.cfg.CodeTTL); err != nil {
		if errors.Is(err, ErrNotifierUnavailable) {
			return ErrNotifierUnavailable
		}
		utils.Logger.WithError(err).WithField("email", email).Error("Failed to deliver login code")
		return newDeliveryError(err)
	}

	utils.Logger.WithField("email", email).Info("Login code issued")
	return nil
}

// VerifyCode accepts a code at most once and resolves the identity for the
// address, creating it on first login.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) (*LoginResult, error) {
	email = utils.NormalizeEmail(email)
	if err := utils.ValidateStruct(models.VerifyOTPRequest{Email: email, Code: code}); err != nil {
		return nil, validationError(err)
	}

	cred, err := s.otps.GetActive(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, s.rejectCode(email, "no_code")
		}
		return nil, utils.NewInternalError("Database error", err)
	}

	now := s.now()
	if !cred.Usable(now, s.cfg.MaxAttempts) {
		return nil, s.rejectCode(email, "unusable")
	}

	// an attempt is spent before the comparison so concurrent guesses
	// cannot exceed the limit
	claimed, err := s.otps.ClaimAttempt(ctx, cred.ID, s.cfg.MaxAttempts, now)
	if err != nil {
		return nil, utils.NewInternalError("Database error", err)
	}
	if !claimed {
		return nil, s.rejectCode(email, "unusable")
	}

	if !utils.CheckCodeHash(code, cred.CodeHash) {
		return nil, s.rejectCode(email, "mismatch")
	}

	consumed, err := s.otps.Consume(ctx, cred.ID)
	if err != nil {
		return nil, utils.NewInternalError("Database error", err)
	}
	if !consumed {
		return nil, s.rejectCode(email, "already_used")
	}

	user, err := s.resolveIdentity(ctx, email)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		s.recordVerification("suspended")
		utils.Logger.WithField("user_id", user.ID).Warn("Login attempt by suspended account")
		return nil, ErrAccountSuspended
	}

	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, utils.NewInternalError("Failed to update user", err)
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, utils.NewInternalError("Failed to issue session", err)
	}

	s.recordVerification("success")
	utils.Logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User logged in")

	return &LoginResult{User: user, IsNewUser: !user.OnboardingComplete, Token: token}, nil
}

func (s *AuthService) rejectCode(email, reason string) error {
	s.recordVerification("rejected")
	utils.Logger.WithFields(logrus.Fields{
		"email":  email,
		"reason": reason,
	}).Info("Login code rejected")
	return ErrInvalidOrExpiredCode
}

func (s *AuthService) recordVerification(result string) {
	if s.metrics != nil {
		s.metrics.OTPVerificationsTotal.WithLabelValues(result).Inc()
	}
}

func (s *AuthService) isSuperAdminEmail(email string) bool {
	return s.cfg.SuperAdminEmail != "" && email == s.cfg.SuperAdminEmail
}

func (s *AuthService) resolveIdentity(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return s.elevateIfSuperAdmin(ctx, user)
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, utils.NewInternalError("Database error", err)
	}

	user = &models.User{
		Email:    email,
		Role:     models.RoleBuyer,
		IsActive: true,
	}
	if s.isSuperAdminEmail(email) {
		user.Role = models.RoleAdmin
		user.IsSuperAdmin = true
		user.OnboardingComplete = true
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// lost a race with a concurrent first login
			existing, getErr := s.users.GetByEmail(ctx, email)
			if getErr != nil {
				return nil, utils.NewInternalError("Database error", getErr)
			}
			return s.elevateIfSuperAdmin(ctx, existing)
		}
		return nil, utils.NewInternalError("Failed to create user", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("Created user on first login")
	return user, nil
}

func (s *AuthService) elevateIfSuperAdmin(ctx context.Context, user *models.User) (*models.User, error) {
	if !s.isSuperAdminEmail(user.Email) {
		return user, nil
	}
	if user.IsSuperAdmin && user.Role == models.RoleAdmin && user.OnboardingComplete {
		return user, nil
	}

	user.Role = models.RoleAdmin
	user.IsSuperAdmin = true
	user.OnboardingComplete = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, utils.NewInternalError("Failed to update user", err)
	}
	utils.Logger.WithField("user_id", user.ID).Warn("Elevated existing account to super-admin")
	return user, nil
}

// CompleteOnboarding records the profile chosen after a first login and
// returns a session reflecting the new role. It runs once per account.
func (s *AuthService) CompleteOnboarding(ctx context.Context, userID string, req models.CompleteProfileRequest) (*models.User, string, error) {
	req.FullName = utils.SanitizeString(req.FullName)
	req.Phone = utils.SanitizeString(req.Phone)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, "", validationError(err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", notFoundOr(err, "User not found")
	}
	if !user.IsActive {
		return nil, "", ErrAccountSuspended
	}
	if user.OnboardingComplete {
		return nil, "", utils.NewPreconditionFailedError("Onboarding is already complete")
	}

	user.FullName = &req.FullName
	user.Phone = &req.Phone
	if !user.IsAdmin() {
		user.Role = req.Role
	}
	user.OnboardingComplete = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, "", utils.NewInternalError("Failed to update user", err)
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", utils.NewInternalError("Failed to issue session", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("Onboarding completed")
	return user, token, nil
}

// CleanupExpired removes used and expired codes.
func (s *AuthService) CleanupExpired(ctx context.Context) (int64, error) {
	removed, err := s.otps.CleanupExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	utils.Logger.WithField("removed", removed).Debug("Cleaned up login codes")
	return removed, nil
}
