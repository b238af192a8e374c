package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ipede/account-trust-service/internal/domain"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds the application configuration
type Config struct {
	// Database configuration
	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	StorageDriver  string
	MigrateOnStart bool

	// JWT configuration
	JWTAccessSecret    string
	JWTRefreshSecret   string
	JWTAccessDuration  time.Duration
	JWTRefreshDuration time.Duration

	// OTP configuration
	OTPTTL             time.Duration
	OTPMaxRequests     int
	OTPRequestWindow   time.Duration
	OTPDigits          int
	DefaultCountryCode string
	AppName            string

	// Password hashing
	BcryptCost int

	// SMTP configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// SMS gateway configuration
	SMSAPIKey  string
	SMSBaseURL string
	SMSSender  string

	// Redis-backed per-IP OTP throttle; disabled when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	OTPIPLimit    int
	OTPIPWindow   time.Duration

	// Server configuration
	ServerPort      int
	RateLimitRPS    float64
	RateLimitBurst  int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		DBPort:        5432,
		StorageDriver: StorageDriverPostgres,

		JWTAccessDuration:  domain.DefaultAccessTokenDuration,
		JWTRefreshDuration: domain.DefaultRefreshTokenDuration,

		OTPTTL:             5 * time.Minute,
		OTPMaxRequests:     5,
		OTPRequestWindow:   time.Hour,
		OTPDigits:          6,
		DefaultCountryCode: domain.DefaultCountryCode,
		AppName:            "Account Trust",

		BcryptCost: 10,

		SMTPPort: 587,

		SMSBaseURL: "https://www.smslocal.com/dev/bulkV2",

		OTPIPLimit:  20,
		OTPIPWindow: time.Hour,

		ServerPort:      8080,
		RateLimitRPS:    10,
		RateLimitBurst:  20,
		RequestTimeout:  60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig(logger *zap.Logger) (*Config, error) {
	// Load .env from project root
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	cfg := NewConfig()
	l := &loader{}

	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBPort = l.int("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", "postgres")
	cfg.DBPassword = getEnv("DB_PASSWORD", "postgres")
	cfg.DBName = getEnv("DB_NAME", "accounts")
	cfg.StorageDriver = getEnv("STORAGE_DRIVER", cfg.StorageDriver)
	cfg.MigrateOnStart = l.bool("MIGRATE_ON_START", false)

	cfg.JWTAccessSecret = getEnv("JWT_ACCESS_SECRET", "")
	cfg.JWTRefreshSecret = getEnv("JWT_REFRESH_SECRET", "")
	cfg.JWTAccessDuration = l.duration("JWT_ACCESS_TOKEN_DURATION", cfg.JWTAccessDuration)
	cfg.JWTRefreshDuration = l.duration("JWT_REFRESH_TOKEN_DURATION", cfg.JWTRefreshDuration)

	cfg.OTPTTL = l.duration("OTP_TTL", cfg.OTPTTL)
	cfg.OTPMaxRequests = l.int("OTP_MAX_REQUESTS", cfg.OTPMaxRequests)
	cfg.OTPRequestWindow = l.duration("OTP_REQUEST_WINDOW", cfg.OTPRequestWindow)
	cfg.OTPDigits = l.int("OTP_DIGITS", cfg.OTPDigits)
	cfg.DefaultCountryCode = getEnv("DEFAULT_COUNTRY_CODE", cfg.DefaultCountryCode)
	cfg.AppName = getEnv("APP_NAME", cfg.AppName)

	cfg.BcryptCost = l.int("BCRYPT_COST", cfg.BcryptCost)

	cfg.SMTPHost = getEnv("SMTP_HOST", "")
	cfg.SMTPPort = l.int("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUsername = getEnv("SMTP_USERNAME", "")
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SMTPFrom = getEnv("SMTP_FROM", "")

	cfg.SMSAPIKey = getEnv("SMS_API_KEY", "")
	cfg.SMSBaseURL = getEnv("SMS_BASE_URL", cfg.SMSBaseURL)
	cfg.SMSSender = getEnv("SMS_SENDER", "")

	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.OTPIPLimit = l.int("OTP_IP_LIMIT", cfg.OTPIPLimit)
	cfg.OTPIPWindow = l.duration("OTP_IP_WINDOW", cfg.OTPIPWindow)

	cfg.ServerPort = l.int("PORT", cfg.ServerPort)
	cfg.RateLimitRPS = l.float("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = l.int("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.RequestTimeout = l.duration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.ShutdownTimeout = l.duration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	if l.err != nil {
		return nil, l.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that parsing alone cannot catch.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.StorageDriver)
	}
	if c.OTPMaxRequests <= 0 {
		return fmt.Errorf("OTP_MAX_REQUESTS must be positive")
	}
	if c.OTPDigits < 4 || c.OTPDigits > 10 {
		return fmt.Errorf("OTP_DIGITS must be between 4 and 10")
	}
	if c.OTPTTL <= 0 || c.OTPRequestWindow <= 0 {
		return fmt.Errorf("OTP_TTL and OTP_REQUEST_WINDOW must be positive")
	}
	return nil
}

// DatabaseURL returns the connection URL used by migrations.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// loader keeps the first parse error so LoadConfig can report it once.
type loader struct {
	err error
}

func (l *loader) int(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		l.fail(key, err)
		return defaultValue
	}
	return intValue
}

func (l *loader) float(key string, defaultValue float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		l.fail(key, err)
		return defaultValue
	}
	return f
}

func (l *loader) bool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		l.fail(key, err)
		return defaultValue
	}
	return b
}

func (l *loader) duration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		l.fail(key, err)
		return defaultValue
	}
	return d
}

func (l *loader) fail(key string, err error) {
	if l.err == nil {
		l.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
