package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propmarket-go/models"
	"propmarket-go/utils"
)

// otherCode returns a six digit code different from code.
func otherCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestRequestCodeStoresSingleActiveCredential(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.auth.RequestCode(ctx, "  A@X.com "))

	assert.Equal(t, 1, env.notifier.sent("a@x.com"))
	assert.Regexp(t, `^[0-9]{6}$`, env.notifier.last("a@x.com"))

	cred, err := env.otps.GetActive(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Zero(t, cred.Attempts)
	assert.False(t, cred.Consumed)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), cred.ExpiresAt, 5*time.Second)
	assert.NotEqual(t, env.notifier.last("a@x.com"), cred.CodeHash)
}

func TestRequestCodeRejectsInvalidEmail(t *testing.T) {
	env := newTestEnv(t)
	err := env.auth.RequestCode(context.Background(), "not-an-email")
	requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)
	assert.Equal(t, 0, env.notifier.sent("not-an-email"))
}

func TestSecondRequestInvalidatesFirstCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.auth.RequestCode(ctx, "a@x.com"))
	first := env.notifier.last("a@x.com")
	require.NoError(t, env.auth.RequestCode(ctx, "a@x.com"))
	for env.notifier.last("a@x.com") == first {
		require.NoError(t, env.auth.RequestCode(ctx, "a@x.com"))
	}

	_, err := env.auth.VerifyCode(ctx, "a@x.com", first)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestCodeValidatesAtMostOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.auth.RequestCode(ctx, "a@x.com"))
	code := env.notifier.last("a@x.com")

	_, err := env.auth.VerifyCode(ctx, "a@x.com", code)
	require.NoError(t, err)

	_, err = env.auth.VerifyCode(ctx, "a@x.com", code)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestExpiredCodeIsRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	start := time.Now()
	env.auth.now = func() time.Time { return start }
	require.NoError(t, env.auth.RequestCode(ctx, "a@x.com"))
	code := env.notifier.last("a@x.com")

	env.auth.now = func() time.Time { return start.Add(5*time.Minute + time.Second) }
	_, err := env.auth.VerifyCode(ctx, "a@x.com", code)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestFailedAttemptsExhaustCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.auth.RequestCode(ctx, "a@x.com"))
	code := env.notifier.last("a@x.com")
	wrong := otherCode(code)

	for i := 0; i < 5; i++ {
		_, err := env.auth.VerifyCode(ctx, "a@x.com", wrong)
		require.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	}

	cred, err := env.otps.GetActive(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 5, cred.Attempts)

	_, err = env.auth.VerifyCode(ctx, "a@x.com", code)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestConcurrentGuessesRespectAttemptLimit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.auth.RequestCode(ctx, "a@x.com"))
	code := env.notifier.last("a@x.com")
	wrong := otherCode(code)

	var wg sync.WaitGroup
	errs := make([]error, 40)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.auth.VerifyCode(ctx, "a@x.com", wrong)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	}

	cred, err := env.otps.GetActive(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 5, cred.Attempts, "only five guesses may be compared")

	_, err = env.auth.VerifyCode(ctx, "a@x.com", code)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestVerifyCodeCreatesBuyerForNewEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.auth.RequestCode(ctx, "a@x.com"))
	code := env.notifier.last("a@x.com")
	for code == "000000" {
		require.NoError(t, env.auth.RequestCode(ctx, "a@x.com"))
		code = env.notifier.last("a@x.com")
	}

	_, err := env.auth.VerifyCode(ctx, "a@x.com", "000000")
	require.ErrorIs(t, err, ErrInvalidOrExpiredCode)

	res, err := env.auth.VerifyCode(ctx, "a@x.com", code)
	require.NoError(t, err)
	assert.True(t, res.IsNewUser)
	assert.Equal(t, models.RoleBuyer, res.User.Role)
	assert.False(t, res.User.OnboardingComplete)
	assert.True(t, res.User.IsActive)
	assert.NotNil(t, res.User.LastLoginAt)

	claims, err := utils.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	total, err := env.users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestVerifyCodeReturnsExistingUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	existing := env.createUser(t, "seller@x.com", models.RoleSeller)

	require.NoError(t, env.auth.RequestCode(ctx, "Seller@X.com"))
	res, err := env.auth.VerifyCode(ctx, "seller@x.com", env.notifier.last("seller@x.com"))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, res.User.ID)
	assert.False(t, res.IsNewUser)
}

func TestVerifyCodeBootstrapsSuperAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.auth.RequestCode(ctx, testSuperAdmin))
	res, err := env.auth.VerifyCode(ctx, testSuperAdmin, env.notifier.last(testSuperAdmin))
	require.NoError(t, err)

	assert.Equal(t, models.RoleAdmin, res.User.Role)
	assert.True(t, res.User.IsSuperAdmin)
	assert.True(t, res.User.OnboardingComplete)
	assert.False(t, res.IsNewUser)
}

func TestVerifyCodeUpgradesExistingSuperAdminAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.users.Create(ctx, &models.User{Email: testSuperAdmin, Role: models.RoleBuyer, IsActive: true}))

	require.NoError(t, env.auth.RequestCode(ctx, testSuperAdmin))
	res, err := env.auth.VerifyCode(ctx, testSuperAdmin, env.notifier.last(testSuperAdmin))
	require.NoError(t, err)
	assert.False(t, res.IsNewUser)

	stored, err := env.users.GetByEmail(ctx, testSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, stored.Role)
	assert.True(t, stored.IsSuperAdmin)
	assert.True(t, stored.OnboardingComplete)
}

func TestVerifyCodeRejectsSuspendedAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.createUser(t, "a@x.com", models.RoleBuyer)
	user.IsActive = false
	require.NoError(t, env.users.Update(ctx, user))

	require.NoError(t, env.auth.RequestCode(ctx, "a@x.com"))
	_, err := env.auth.VerifyCode(ctx, "a@x.com", env.notifier.last("a@x.com"))
	assert.ErrorIs(t, err, ErrAccountSuspended)
	requireAppError(t, err, http.StatusForbidden, utils.ErrCodeAccountSuspended)
}

func TestVerifyCodeRejectsMalformedInput(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.VerifyCode(context.Background(), "a@x.com", "12ab56")
	requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)

	_, err = env.auth.VerifyCode(context.Background(), "a@x.com", "12345")
	requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)
}

func TestVerifyCodeWithoutRequest(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.VerifyCode(context.Background(), "nobody@x.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	requireAppError(t, err, http.StatusUnauthorized, utils.ErrCodeInvalidCode)
}

func TestRequestCodeDeliveryFailureKeepsCredential(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.notifier.err = errors.New("smtp down")

	err := env.auth.RequestCode(ctx, "a@x.com")
	requireAppError(t, err, http.StatusInternalServerError, utils.ErrCodeDeliveryFailed)

	_, err = env.auth.VerifyCode(ctx, "a@x.com", env.notifier.last("a@x.com"))
	assert.NoError(t, err)
}

func TestRequestCodeWithoutNotifierConfigured(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuthService(env.otps, env.users, unconfiguredNotifier{}, AuthConfig{}, nil)

	err := svc.RequestCode(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, ErrNotifierUnavailable)
	requireAppError(t, err, http.StatusServiceUnavailable, utils.ErrCodeDependencyUnavailable)
}

func TestCompleteOnboarding(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.users.Create(ctx, &models.User{Email: "a@x.com", Role: models.RoleBuyer, IsActive: true}))
	user, err := env.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	updated, token, err := env.auth.CompleteOnboarding(ctx, user.ID, models.CompleteProfileRequest{
		FullName: " Ada Lovelace ",
		Phone:    "5550001111",
		Role:     models.RoleSeller,
	})
	require.NoError(t, err)
	assert.True(t, updated.OnboardingComplete)
	assert.Equal(t, models.RoleSeller, updated.Role)
	assert.Equal(t, "Ada Lovelace", *updated.FullName)

	claims, err := utils.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, claims.Role)

	_, _, err = env.auth.CompleteOnboarding(ctx, user.ID, models.CompleteProfileRequest{
		FullName: "Ada Lovelace",
		Phone:    "5550001111",
		Role:     models.RoleBuyer,
	})
	requireAppError(t, err, http.StatusBadRequest, utils.ErrCodePreconditionFailed)

	stored, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, stored.Role)
}

func TestCompleteOnboardingValidationLeavesUserUnchanged(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.users.Create(ctx, &models.User{Email: "a@x.com", Role: models.RoleBuyer, IsActive: true}))
	user, err := env.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	cases := []models.CompleteProfileRequest{
		{FullName: "A", Phone: "5550001111", Role: models.RoleBuyer},
		{FullName: "Ada", Phone: "555", Role: models.RoleBuyer},
		{FullName: "Ada", Phone: "5550001111", Role: models.RoleAdmin},
	}
	for _, req := range cases {
		_, _, err := env.auth.CompleteOnboarding(ctx, user.ID, req)
		requireAppError(t, err, http.StatusBadRequest, utils.ErrCodeValidation)
	}

	stored, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FullName)
	assert.Nil(t, stored.Phone)
	assert.Equal(t, models.RoleBuyer, stored.Role)
	assert.False(t, stored.OnboardingComplete)
}

func TestCompleteOnboardingUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.auth.CompleteOnboarding(context.Background(), "missing", models.CompleteProfileRequest{
		FullName: "Ada", Phone: "5550001111", Role: models.RoleBuyer,
	})
	requireAppError(t, err, http.StatusNotFound, utils.ErrCodeNotFound)
}

func TestCleanupExpiredJob(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	start := time.Now()
	env.auth.now = func() time.Time { return start }
	require.NoError(t, env.auth.RequestCode(ctx, "old@x.com"))
	env.auth.now = func() time.Time { return start.Add(10 * time.Minute) }
	require.NoError(t, env.auth.RequestCode(ctx, "new@x.com"))

	c := cron.New()
	id, err := ScheduleCodeCleanup(c, "@hourly", env.auth)
	require.NoError(t, err)
	c.Entry(id).Job.Run()

	_, err = env.otps.GetActive(ctx, "old@x.com")
	assert.Error(t, err)
	_, err = env.otps.GetActive(ctx, "new@x.com")
	assert.NoError(t, err)
}
