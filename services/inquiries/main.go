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
	"github.com/propertyapp/property-listing/pkg/events"
	"github.com/propertyapp/property-listing/pkg/logger"
	mw "github.com/propertyapp/property-listing/pkg/middleware"
	"github.com/propertyapp/property-listing/pkg/notify"
	"github.com/propertyapp/property-listing/pkg/scheduler"
	"github.com/propertyapp/property-listing/pkg/sms"
	"github.com/propertyapp/property-listing/services/inquiries/internal/handlers"
	"github.com/propertyapp/property-listing/services/inquiries/internal/repository"
	"github.com/propertyapp/property-listing/services/inquiries/internal/service"
)

const idempotencyTTL = 24 * time.Hour

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

	healthChecks := []mw.HealthCheck{{Name: "database", Ping: pool.Ping}}

	// Connect to event bus. Only notification dispatch in nats mode depends on it.
	var publisher events.Publisher
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL, "inquiries")
	if err != nil {
		if cfg.Notify.Mode == config.NotifyModeNATS {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		logger.Warn("NATS unavailable, inquiry events disabled", "error", err)
	} else {
		defer eventBus.Close()
		publisher = eventBus
		healthChecks = append(healthChecks, mw.HealthCheck{Name: "nats", Ping: eventBus.Ping})
	}

	// Notification dispatch
	var dispatcher notify.Dispatcher
	var queue *notify.Queue
	switch cfg.Notify.Mode {
	case config.NotifyModeNATS:
		dispatcher = notify.NewBusDispatcher(eventBus, cfg.Notify.SendTimeout)
	default:
		gateway, err := sms.New(cfg.SMS)
		if err != nil {
			logger.Error("Failed to configure SMS gateway", "error", err)
			os.Exit(1)
		}
		queue = notify.NewQueue(gateway, notify.QueueOptions{
			Size:        cfg.Notify.QueueSize,
			Workers:     cfg.Notify.Workers,
			SendTimeout: cfg.Notify.SendTimeout,
			RatePerSec:  cfg.Notify.RatePerSec,
		})
		queue.Start()
		dispatcher = queue
	}

	// Initialize repositories
	inquiryRepo := repository.NewInquiryRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	propertyRepo := repository.NewPropertyRepository(pool)
	idempotencyRepo := repository.NewIdempotencyRepository(pool)

	var idempotencyStore mw.IdempotencyStore = idempotencyRepo
	if rdb, err := cache.NewRedisClient(ctx, cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, using database idempotency store", "error", err)
	} else {
		defer rdb.Close()
		idempotencyStore = cache.NewIdempotencyStore(rdb)
	}

	// Initialize services
	inquiryService := service.NewInquiryService(inquiryRepo, userRepo, propertyRepo, dispatcher,
		cfg.Inquiry.ValidityMonths, service.WithPublisher(publisher))

	// Background jobs
	jobs := scheduler.New(
		scheduler.Job{Name: "inquiry_sweep", Interval: cfg.Inquiry.SweepInterval, Timeout: 5 * time.Minute, Run: func(ctx context.Context) (int64, error) {
			return inquiryService.SweepExpired(ctx, time.Now())
		}},
		scheduler.Job{Name: "idempotency_cleanup", Interval: time.Hour, Timeout: time.Minute, Run: idempotencyRepo.CleanupExpired},
	)
	jobs.Start()

	// Initialize handlers
	h := handlers.New(inquiryService)
	signer := auth.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.Audience, cfg.Auth.AccessTokenTTL)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("inquiries"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.Health(healthChecks...))
	r.Use(mw.Metrics("inquiries"))

	// Routes
	r.Route("/inquiries", func(r chi.Router) {
		r.Use(auth.RequireJWT(signer))

		r.With(mw.Idempotency(idempotencyStore, idempotencyTTL)).Post("/create/{customerId}", h.CreateInquiry)
		r.Get("/{inquiryId}", h.GetInquiry)
		r.Get("/customer/{customerId}", h.ListByCustomer)
		r.Get("/seller/{sellerId}", h.ListBySeller)
		r.Get("/property/{propertyId}", h.ListByProperty)
		r.Put("/update-status/{inquiryId}/{sellerId}", h.UpdateStatus)
		r.Get("/count/open/{sellerId}", h.CountOpenBySeller)
		r.Get("/count/customer/{customerId}", h.CountByCustomer)
	})

	r.Route("/admin/inquiries", func(r chi.Router) {
		r.Use(auth.RequireJWT(signer, auth.RoleAdmin))

		r.Get("/closed-report", h.ClosedReport)
		r.Get("/all-report", h.StatusReport)
	})

	// Start server
	addr := cfg.Server.Addr("8082")
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

		logger.Info("Shutting down inquiries service...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Inquiries service shutdown error", "error", err)
		}
		jobs.Stop()
		if queue != nil {
			if err := queue.Close(ctx); err != nil {
				logger.Warn("Notification queue did not drain", "error", err)
			}
		}
	}()

	logger.Info("Starting inquiries service", "addr", addr, "notify_mode", cfg.Notify.Mode)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Inquiries service error", "error", err)
		os.Exit(1)
	}
	<-done
}
