package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SUPER_ADMIN_EMAIL", "")
	t.Setenv("OTP_TTL", "")
	t.Setenv("S3_ACCESS_KEY", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 5, cfg.OTPMaxAttempts)
	assert.Equal(t, 6, cfg.OTPLength)
	assert.Equal(t, int64(10<<20), cfg.Storage.MaxUploadBytes)
	assert.False(t, cfg.Storage.Configured())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SUPER_ADMIN_EMAIL", "  Root@Example.COM ")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("S3_ACCESS_KEY", "key")
	t.Setenv("S3_SECRET_KEY", "secret")
	t.Setenv("S3_BUCKET", "docs")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()
	assert.Equal(t, "root@example.com", cfg.SuperAdminEmail)
	assert.Equal(t, 90*time.Second, cfg.OTPTTL)
	assert.True(t, cfg.Storage.Configured())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestValidateConfig(t *testing.T) {
	cfg := Load()
	cfg.Environment = "development"
	require.NoError(t, ValidateConfig(cfg))

	cfg.Environment = "production"
	cfg.JWTSecret = defaultJWTSecret
	assert.Error(t, ValidateConfig(cfg))

	cfg.JWTSecret = "a-production-secret-that-is-long-enough"
	cfg.Email.LogCodes = true
	assert.Error(t, ValidateConfig(cfg))

	cfg.Email.LogCodes = false
	cfg.OTPTTL = 0
	assert.Error(t, ValidateConfig(cfg))
}
