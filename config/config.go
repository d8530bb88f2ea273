package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"propmarket-go/utils"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Port        string
	Environment string
	DatabaseURL string

	JWTSecret string
	JWTExpiry time.Duration

	SuperAdminEmail    string
	OTPLength          int
	OTPTTL             time.Duration
	OTPMaxAttempts     int
	OTPCleanupSchedule string

	Email   EmailConfig
	Storage StorageConfig
	Redis   RedisConfig
	NATSURL string

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
}

type EmailConfig struct {
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	FromAddress    string
	FromName       string
	SendGridAPIKey string
	// LogCodes writes codes to the log instead of sending them. Development only.
	LogCodes bool
}

type StorageConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	UseSSL         bool
	MaxUploadBytes int64
}

// Configured reports whether document uploads can be served.
func (s StorageConfig) Configured() bool {
	return s.AccessKey != "" && s.SecretKey != "" && s.Bucket != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: getEnv("DATABASE_URL", "propmarket.db"),

		JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		SuperAdminEmail:    utils.NormalizeEmail(getEnv("SUPER_ADMIN_EMAIL", "")),
		OTPLength:          6,
		OTPTTL:             getEnvDuration("OTP_TTL", 5*time.Minute),
		OTPMaxAttempts:     getEnvInt("OTP_MAX_ATTEMPTS", 5),
		OTPCleanupSchedule: getEnv("OTP_CLEANUP_SCHEDULE", "0 * * * *"),

		Email: EmailConfig{
			SMTPHost:       getEnv("SMTP_HOST", ""),
			SMTPPort:       getEnvInt("SMTP_PORT", 587),
			SMTPUser:       getEnv("SMTP_USER", ""),
			SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
			FromAddress:    getEnv("EMAIL_FROM", "no-reply@propmarket.local"),
			FromName:       getEnv("EMAIL_FROM_NAME", "PropMarket"),
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			LogCodes:       getEnvBool("LOG_OTP_CODES", false),
		},
		Storage: StorageConfig{
			Endpoint:       getEnv("S3_ENDPOINT", "s3.amazonaws.com"),
			AccessKey:      getEnv("S3_ACCESS_KEY", ""),
			SecretKey:      getEnv("S3_SECRET_KEY", ""),
			Bucket:         getEnv("S3_BUCKET", ""),
			Region:         getEnv("S3_REGION", "us-east-1"),
			UseSSL:         getEnvBool("S3_USE_SSL", true),
			MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("CACHE_TTL", 5*time.Minute),
		},
		NATSURL: getEnv("NATS_URL", ""),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:       getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 50),
		AuthRateLimitRPS:   getEnvFloat("AUTH_RATE_LIMIT_RPS", 0.5),
		AuthRateLimitBurst: getEnvInt("AUTH_RATE_LIMIT_BURST", 5),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		utils.Logger.Warnf("Invalid integer for %s: %q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		utils.Logger.Warnf("Invalid number for %s: %q, using %v", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		utils.Logger.Warnf("Invalid boolean for %s: %q, using %v", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		utils.Logger.Warnf("Invalid duration for %s: %q, using %s", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig returns an error for settings the service cannot run with
// and logs a warning for each optional integration that is switched off.
func ValidateConfig(cfg *Config) error {
	if cfg.IsProduction() && cfg.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if len(cfg.JWTSecret) < 32 {
		utils.Logger.Warn("JWT_SECRET should be at least 32 characters")
	}
	if cfg.OTPTTL <= 0 {
		return fmt.Errorf("OTP_TTL must be positive, got %s", cfg.OTPTTL)
	}
	if cfg.OTPMaxAttempts <= 0 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be positive, got %d", cfg.OTPMaxAttempts)
	}
	if cfg.IsProduction() && cfg.Email.LogCodes {
		return fmt.Errorf("LOG_OTP_CODES cannot be enabled in production")
	}

	if cfg.SuperAdminEmail == "" {
		utils.Logger.Warn("SUPER_ADMIN_EMAIL not set, no account will be bootstrapped as super-admin")
	}
	if cfg.Email.SendGridAPIKey == "" && cfg.Email.SMTPHost == "" && !cfg.Email.LogCodes {
		utils.Logger.Warn("No email provider configured, login codes cannot be delivered")
	}
	if !cfg.Storage.Configured() {
		utils.Logger.Warn("Document storage not configured, document uploads are disabled")
	}
	if cfg.Redis.Addr == "" {
		utils.Logger.Info("REDIS_ADDR not set, search results are not cached")
	}
	if cfg.NATSURL == "" {
		utils.Logger.Info("NATS_URL not set, domain events are not published")
	}
	return nil
}
