package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/propertyapp/property-listing/pkg/config"
	"github.com/propertyapp/property-listing/pkg/events"
	"github.com/propertyapp/property-listing/pkg/logger"
	mw "github.com/propertyapp/property-listing/pkg/middleware"
	"github.com/propertyapp/property-listing/pkg/notify"
	"github.com/propertyapp/property-listing/pkg/sms"
	"github.com/propertyapp/property-listing/services/notify/internal/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	gateway, err := sms.New(cfg.SMS)
	if err != nil {
		logger.Error("Failed to configure SMS gateway", "error", err)
		os.Exit(1)
	}

	queue := notify.NewQueue(gateway, notify.QueueOptions{
		Size:        cfg.Notify.QueueSize,
		Workers:     cfg.Notify.Workers,
		SendTimeout: cfg.Notify.SendTimeout,
		RatePerSec:  cfg.Notify.RatePerSec,
	})
	queue.Start()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL, "notify")
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}

	if err := notify.Consume(eventBus, cfg.NATS.Queue, queue); err != nil {
		logger.Error("Failed to subscribe to notifications", "error", err)
		os.Exit(1)
	}

	h := handlers.New(queue)
	r := NewRouter(h, cfg.Notify.APIKey, mw.HealthCheck{Name: "nats", Ping: eventBus.Ping})

	addr := cfg.Server.Addr("8086")
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down notify service...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Notify service shutdown error", "error", err)
		}
		// Stop intake from the bus before draining the queue
		if err := eventBus.Close(); err != nil {
			logger.Warn("NATS drain failed", "error", err)
		}
		if err := queue.Close(ctx); err != nil {
			logger.Warn("Notification queue did not drain", "error", err)
		}
	}()

	logger.Info("Starting notify service", "addr", addr, "queue", cfg.NATS.Queue, "sms_provider", cfg.SMS.Provider)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Notify service error", "error", err)
		os.Exit(1)
	}
	<-done
}

// NewRouter exposes POST /send to callers holding the internal API key.
func NewRouter(h *handlers.Handlers, apiKey string, checks ...mw.HealthCheck) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("notify"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.Health(checks...))
	r.Use(mw.Metrics("notify"))

	r.With(mw.RequireAPIKey(apiKey)).Post("/send", h.Send)

	return r
}
