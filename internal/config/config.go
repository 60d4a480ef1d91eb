package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// Donation platform settings.
	Currency          string
	FrontendBaseURL   string
	DonationsTestMode bool

	// Stripe credentials. Both are required by the payment components,
	// which fail at construction when they are blank.
	StripeSecretKey     string
	StripeWebhookSecret string

	AdminJWTSecret string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RedisAddr         string
	DonationRateLimit float64
	DonationRateBurst int
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	return Config{
		AppName:     getenv("APP_SERVICE", "dunamis"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		Currency:          strings.ToUpper(getenv("PLATFORM_CURRENCY", "INR")),
		FrontendBaseURL:   strings.TrimRight(getenv("FRONTEND_BASE_URL", "http://localhost:5173"), "/"),
		DonationsTestMode: getenvBool("DONATIONS_TEST_MODE", false),

		StripeSecretKey:     strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
		StripeWebhookSecret: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),

		AdminJWTSecret: strings.TrimSpace(getenv("ADMIN_JWT_SECRET", "")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "dunamis"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		RedisAddr:         strings.TrimSpace(getenv("REDIS_ADDR", "")),
		DonationRateLimit: getenvFloat("DONATION_RATE_LIMIT", 1),
		DonationRateBurst: getenvInt("DONATION_RATE_BURST", 5),
	}
}

var (
	ErrMissingStripeSecretKey     = errors.New("STRIPE_SECRET_KEY is required")
	ErrMissingStripeWebhookSecret = errors.New("STRIPE_WEBHOOK_SECRET is required")
)

// ValidateStripe reports whether the processor credentials are usable.
// Payment components call this at construction so a misconfigured
// deployment fails at startup instead of issuing unsigned calls.
func (c Config) ValidateStripe() error {
	if c.StripeSecretKey == "" {
		return ErrMissingStripeSecretKey
	}
	if c.StripeWebhookSecret == "" {
		return ErrMissingStripeWebhookSecret
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
