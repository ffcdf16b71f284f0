package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/propertyapp/property-listing/pkg/auth"
	"github.com/propertyapp/property-listing/pkg/config"
	"github.com/propertyapp/property-listing/pkg/logger"
	mw "github.com/propertyapp/property-listing/pkg/middleware"
	"github.com/propertyapp/property-listing/pkg/ratelimit"
	"github.com/propertyapp/property-listing/services/gateway/internal/handlers"
	"github.com/propertyapp/property-listing/services/gateway/internal/proxy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	authProxy := proxy.NewServiceProxy("auth", cfg.Services.AuthURL, 30*time.Second)
	inquiriesProxy := proxy.NewServiceProxy("inquiries", cfg.Services.InquiriesURL, 30*time.Second)

	h := handlers.New(authProxy, inquiriesProxy)
	signer := auth.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.Audience, cfg.Auth.AccessTokenTTL)

	// Each gateway instance keeps its own per-IP window in front of the auth service.
	authLimit := ratelimit.Rule{Name: "gateway_auth_ip", Limit: cfg.Gateway.AuthIPLimit, Window: cfg.Gateway.AuthIPWindow}
	guard := ratelimit.NewGuard(ratelimit.NewMemoryLimiter())

	r := NewRouter(h, signer, guard, authLimit)

	addr := cfg.Server.Addr("8080")
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

		logger.Info("Shutting down gateway service...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Gateway shutdown error", "error", err)
		}
	}()

	logger.Info("Starting gateway service", "addr", addr, "auth_url", cfg.Services.AuthURL, "inquiries_url", cfg.Services.InquiriesURL, "auth_ip_limit", authLimit.Limit)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Gateway server error", "error", err)
		os.Exit(1)
	}
	<-done
}

// NewRouter wires the public /v1 API onto the backend proxies.
func NewRouter(h *handlers.Handlers, signer *auth.Signer, guard *ratelimit.Guard, authLimit ratelimit.Rule) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("gateway"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Idempotent-Replay"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(mw.Health())
	r.Use(mw.Metrics("gateway"))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(mw.RateLimitByIP(guard, authLimit))
			r.Post("/send-otp", h.Auth)
			r.Post("/login", h.Auth)
		})

		// Tokens are checked here to reject bad requests early; the
		// inquiries service checks them again.
		r.Route("/inquiries", func(r chi.Router) {
			r.Use(auth.RequireJWT(signer))
			r.Handle("/*", http.HandlerFunc(h.Inquiries))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireJWT(signer, auth.RoleAdmin))
			r.Handle("/*", http.HandlerFunc(h.Inquiries))
		})
	})

	return r
}
