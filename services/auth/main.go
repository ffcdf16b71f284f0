package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/propertyapp/property-listing/pkg/auth"
	"github.com/propertyapp/property-listing/pkg/cache"
	"github.com/propertyapp/property-listing/pkg/config"
	"github.com/propertyapp/property-listing/pkg/database"
	"github.com/propertyapp/property-listing/pkg/logger"
	mw "github.com/propertyapp/property-listing/pkg/middleware"
	"github.com/propertyapp/property-listing/pkg/ratelimit"
	"github.com/propertyapp/property-listing/pkg/scheduler"
	"github.com/propertyapp/property-listing/pkg/sms"
	"github.com/propertyapp/property-listing/services/auth/internal/handlers"
	"github.com/propertyapp/property-listing/services/auth/internal/repository"
	"github.com/propertyapp/property-listing/services/auth/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	gateway, err := sms.New(cfg.SMS)
	if err != nil {
		logger.Error("Failed to configure SMS gateway", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	otpRepo := repository.NewOTPRepository(pool)
	rateLimitRepo := repository.NewRateLimitRepository(pool)

	// Redis backs the OTP send limits; without it the limits fall back to Postgres
	var limiter ratelimit.Limiter = rateLimitRepo
	healthChecks := []mw.HealthCheck{{Name: "database", Ping: pool.Ping}}
	if rdb, err := cache.NewRedisClient(ctx, cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, using database rate limiter", "error", err)
	} else {
		defer rdb.Close()
		limiter = ratelimit.NewRedisLimiter(rdb, "otp")
		healthChecks = append(healthChecks, mw.HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	// Initialize services
	signer := auth.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.Audience, cfg.Auth.AccessTokenTTL)
	otpService := service.NewOTPService(otpRepo, gateway, cfg.OTP.TTL)
	authService := service.NewAuthService(userRepo, otpService, signer)

	// Background jobs
	jobs := scheduler.New(
		scheduler.Job{Name: "otp_cleanup", Interval: cfg.OTP.CleanupInterval, Timeout: time.Minute, Run: otpService.CleanupExpired},
		scheduler.Job{Name: "rate_limit_cleanup", Interval: time.Hour, Timeout: time.Minute, Run: rateLimitRepo.CleanupExpired},
	)
	jobs.Start()

	// Initialize handlers
	h := handlers.New(authService, ratelimit.NewGuard(limiter), cfg.OTP)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("auth"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.Health(healthChecks...))
	r.Use(mw.Metrics("auth"))

	// Routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/send-otp", h.SendOTP)
		r.Post("/login", h.Login)
	})

	// Start server
	addr := cfg.Server.Addr("8081")
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down auth service...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Auth service shutdown error", "error", err)
		}
		jobs.Stop()
	}()

	logger.Info("Starting auth service", "addr", addr, "sms_provider", cfg.SMS.Provider)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Auth service error", "error", err)
		os.Exit(1)
	}
	<-done
}
