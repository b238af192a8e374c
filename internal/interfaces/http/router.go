package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ipede/account-trust-service/internal/application"
	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/ipede/account-trust-service/internal/infrastructure/config"
	"github.com/ipede/account-trust-service/internal/interfaces/http/handlers"
	"github.com/ipede/account-trust-service/internal/interfaces/http/middleware/auth"
	"github.com/ipede/account-trust-service/internal/interfaces/http/middleware/ratelimit"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the application components the router exposes.
type Services struct {
	Auth         *application.AuthService
	Verification *application.VerificationService
	Devices      *application.DeviceTrustTracker
	Issuer       domain.CredentialIssuer
	// Store is checked by /health/ready; nil means always ready.
	Store Pinger
	// OtpThrottle limits OTP requests per IP; nil disables it.
	OtpThrottle *ratelimit.OtpThrottle
}

type Router struct {
	router *chi.Mux
}

func NewRouter(services Services, cfg *config.Config, logger *zap.Logger) *Router {
	authMiddleware := auth.NewAuthMiddleware(services.Issuer, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, logger)
	otpHandler := handlers.NewOtpHandler(services.Verification, services.Auth, logger)
	deviceHandler := handlers.NewDeviceHandler(services.Devices, logger)

	// Create router with middleware
	router := createRouter(cfg.RequestTimeout)

	rateLimiter := ratelimit.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 3*time.Minute)
	router.Use(rateLimiter.Middleware)

	// Health check endpoints
	router.Group(func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		})

		r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
			if services.Store != nil {
				if err := services.Store.Ping(r.Context()); err != nil {
					logger.Error("Database health check failed", zap.Error(err))
					w.WriteHeader(http.StatusServiceUnavailable)
					_, _ = w.Write([]byte("Database connection failed"))
					return
				}
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("Ready"))
		})

		r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("Alive"))
		})
	})

	// Swagger UI configuration
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
		httpSwagger.DeepLinking(true),
		httpSwagger.PersistAuthorization(true),
	))

	// Serve Swagger JSON with CORS headers
	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "docs/swagger.json")
	})

	router.Route("/api/auth", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Post("/register", authHandler.RegisterHandler)
			r.Post("/login", authHandler.LoginHandler)
			r.Post("/refresh", authHandler.RefreshHandler)
			r.Post("/otp/verify", otpHandler.UnifiedVerifyHandler)
			r.Post("/otp/{channel}/verify", otpHandler.VerifyHandler)
		})

		// OTP dispatch is additionally throttled per IP when Redis is configured
		r.Group(func(r chi.Router) {
			if services.OtpThrottle != nil {
				r.Use(services.OtpThrottle.Middleware)
			}
			r.Post("/otp/{channel}/request", otpHandler.RequestHandler)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticator)
			r.Get("/me", authHandler.MeHandler)
			r.Get("/devices", deviceHandler.ListHandler)
			r.Patch("/devices/{deviceId}/trust", deviceHandler.TrustHandler)
			r.Delete("/devices/{deviceId}", deviceHandler.RemoveHandler)
		})
	})

	return &Router{router: router}
}

func createRouter(timeout time.Duration) *chi.Mux {
	router := chi.NewRouter()

	// Add middleware
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Timeout(timeout))

	return router
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
