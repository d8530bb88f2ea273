package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"propmarket-go/cache"
	"propmarket-go/config"
	"propmarket-go/database"
	"propmarket-go/events"
	"propmarket-go/handlers"
	"propmarket-go/metrics"
	"propmarket-go/middleware"
	"propmarket-go/repositories"
	"propmarket-go/services"
	"propmarket-go/storage"
	"propmarket-go/utils"
)

func main() {
	envErr := godotenv.Load()
	utils.InitLogger("propmarket")
	if envErr != nil {
		utils.Logger.Info("No .env file found")
	}

	cfg := config.Load()
	if err := config.ValidateConfig(cfg); err != nil {
		utils.Logger.WithError(err).Fatal("Invalid configuration")
	}

	if err := utils.InitializeJWT(cfg.JWTSecret, cfg.JWTExpiry); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to initialize JWT")
	}

	db, err := database.Initialize(cfg.DatabaseURL, database.LogLevelFor(cfg.Environment))
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to initialize database")
	}

	ctx := context.Background()

	// Optional integrations. Each one degrades to a disabled feature.
	var docStore services.DocumentStorage
	if cfg.Storage.Configured() {
		s3, err := storage.NewS3Storage(ctx, cfg.Storage)
		if err != nil {
			utils.Logger.WithError(err).Warn("Document storage unavailable, uploads disabled")
		} else {
			docStore = s3
		}
	}

	var searchCache services.SearchCache
	if cfg.Redis.Addr != "" {
		pc, err := cache.NewPropertyCache(ctx, cfg.Redis)
		if err != nil {
			utils.Logger.WithError(err).Warn("Redis unavailable, search cache disabled")
		} else {
			defer pc.Close()
			searchCache = pc
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		np, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			utils.Logger.WithError(err).Warn("NATS unavailable, events disabled")
		} else {
			defer np.Close()
			publisher = np
		}
	}

	m := metrics.NewManager("propmarket")

	userRepo := repositories.NewUserRepository(db)
	propertyRepo := repositories.NewPropertyRepository(db)
	documentRepo := repositories.NewDocumentRepository(db)

	auth := services.NewAuthService(
		repositories.NewOTPRepository(db),
		userRepo,
		services.NewNotifier(cfg.Email),
		services.AuthConfig{
			SuperAdminEmail: cfg.SuperAdminEmail,
			CodeLength:      cfg.OTPLength,
			CodeTTL:         cfg.OTPTTL,
			MaxAttempts:     cfg.OTPMaxAttempts,
		},
		m,
	)

	h := handlers.NewHandlers(handlers.Services{
		Auth:         auth,
		Users:        services.NewUserService(userRepo),
		Properties:   services.NewPropertyService(propertyRepo, documentRepo, userRepo, docStore, searchCache, publisher),
		Verification: services.NewVerificationService(propertyRepo, documentRepo, userRepo, docStore, searchCache, publisher, m, cfg.Storage.MaxUploadBytes),
		Inquiries:    services.NewInquiryService(repositories.NewInquiryRepository(db), propertyRepo, userRepo, publisher),
		Favorites:    services.NewFavoriteService(repositories.NewFavoriteRepository(db), propertyRepo, userRepo),
	}, repositories.NewAuditRepository(db), cfg.Storage.MaxUploadBytes)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)
	defer authLimiter.Stop()

	router := handlers.NewRouter(h, handlers.RouterOptions{
		Metrics:     m,
		Limiter:     limiter,
		AuthLimiter: authLimiter,
	})

	scheduler := cron.New()
	if _, err := services.ScheduleCodeCleanup(scheduler, cfg.OTPCleanupSchedule, auth); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule code cleanup")
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.CORS(cfg.CORSAllowedOrigins)(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		utils.Logger.WithFields(logrus.Fields{
			"port":        cfg.Port,
			"environment": cfg.Environment,
			"storage":     docStore != nil,
			"cache":       searchCache != nil,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.Logger.Info("Shutting down")

	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Logger.WithError(err).Error("Graceful shutdown failed")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
