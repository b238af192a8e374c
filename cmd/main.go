package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ipede/account-trust-service/internal/application"
	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/ipede/account-trust-service/internal/infrastructure/config"
	"github.com/ipede/account-trust-service/internal/infrastructure/database"
	"github.com/ipede/account-trust-service/internal/infrastructure/email"
	"github.com/ipede/account-trust-service/internal/infrastructure/jwt"
	"github.com/ipede/account-trust-service/internal/infrastructure/notification"
	"github.com/ipede/account-trust-service/internal/infrastructure/otp"
	"github.com/ipede/account-trust-service/internal/infrastructure/password"
	"github.com/ipede/account-trust-service/internal/infrastructure/repository"
	"github.com/ipede/account-trust-service/internal/infrastructure/sms"
	httprouter "github.com/ipede/account-trust-service/internal/interfaces/http"
	"github.com/ipede/account-trust-service/internal/interfaces/http/middleware/ratelimit"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// @title Account Trust Service API
// @version 1.0
// @description Account registration with email/phone OTP verification, login and trusted devices
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Load configuration
	cfg, err := config.LoadConfig(logger)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	repo, store, closeStore, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer closeStore()

	issuer, err := jwt.NewIssuer(jwt.Config{
		AccessSecret:    cfg.JWTAccessSecret,
		RefreshSecret:   cfg.JWTRefreshSecret,
		AccessDuration:  cfg.JWTAccessDuration,
		RefreshDuration: cfg.JWTRefreshDuration,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize credential issuer", zap.Error(err))
	}

	// Initialize services
	gateway := newNotificationGateway(cfg, logger)
	verification := application.NewVerificationService(repo, gateway, otp.NewCodec(logger), application.OtpConfig{
		TTL:                cfg.OTPTTL,
		MaxRequests:        cfg.OTPMaxRequests,
		RequestWindow:      cfg.OTPRequestWindow,
		Digits:             cfg.OTPDigits,
		DefaultCountryCode: cfg.DefaultCountryCode,
		AppName:            cfg.AppName,
	}, logger)
	devices := application.NewDeviceTrustTracker(repo, logger)
	authService := application.NewAuthService(
		repo,
		verification,
		devices,
		issuer,
		password.NewHasher(cfg.BcryptCost),
		cfg.DefaultCountryCode,
		logger,
	)

	services := httprouter.Services{
		Auth:         authService,
		Verification: verification,
		Devices:      devices,
		Issuer:       issuer,
		Store:        store,
	}

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer func() { _ = redisClient.Close() }()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, OTP throttle will fail open", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		services.OtpThrottle = ratelimit.NewOtpThrottle(redisClient, cfg.OTPIPLimit, cfg.OTPIPWindow, logger)
	}

	// Create router
	router := httprouter.NewRouter(services, cfg, logger)

	// Start server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.Int("port", cfg.ServerPort), zap.String("storage", cfg.StorageDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("Server exited properly")
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.AccountRepository, httprouter.Pinger, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("Using in-memory storage, accounts are lost on restart")
		return repository.NewMemoryAccountRepository(logger), nil, func() {}, nil
	}

	db, err := database.NewPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.MigrateOnStart {
		if err := db.RunMigrations("migrations"); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
	}
	return repository.NewAccountRepository(db, logger), db, db.Close, nil
}

// newNotificationGateway wires only the transports that are configured; the
// gateway reports the others as transport failures.
func newNotificationGateway(cfg *config.Config, logger *zap.Logger) *notification.Gateway {
	var (
		emailSender notification.EmailSender
		smsSender   notification.SmsSender
	)

	smtpSender := email.NewSender(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, logger)
	if smtpSender.Configured() {
		emailSender = smtpSender
	} else {
		logger.Warn("SMTP is not configured, email OTPs will not be delivered")
	}

	smsClient := sms.NewClient(cfg.SMSAPIKey, cfg.SMSBaseURL, cfg.SMSSender, logger)
	if smsClient.Configured() {
		smsSender = smsClient
	} else {
		logger.Warn("SMS gateway is not configured, phone OTPs will not be delivered")
	}

	return notification.NewGateway(emailSender, smsSender, logger)
}
