package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

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

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Razorpay RazorpayConfig
	Checkout CheckoutConfig
}

// RazorpayConfig carries the webhook shared secret and the API key pair used
// for the order re-fetch fallback.
type RazorpayConfig struct {
	WebhookSecret   string
	KeyID           string
	KeySecret       string
	APIBaseURL      string
	FetchTimeoutSec int
}

// CheckoutConfig carries the merchant credentials for the outbound
// order-creation flow and its callback verification.
type CheckoutConfig struct {
	MerchantID      string
	MerchantSecret  string
	MaxSkewSeconds  int
	FutureSkewAllow int
	MinAmountMajor  int64
	MaxAmountMajor  int64
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "walletd"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "walletd"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
		RedisDB:       getenvInt("REDIS_DB", 0),

		Razorpay: RazorpayConfig{
			WebhookSecret:   strings.TrimSpace(getenv("RAZORPAY_WEBHOOK_SECRET", "")),
			KeyID:           strings.TrimSpace(getenv("RAZORPAY_KEY_ID", "")),
			KeySecret:       strings.TrimSpace(getenv("RAZORPAY_KEY_SECRET", "")),
			APIBaseURL:      getenv("RAZORPAY_API_BASE_URL", "https://api.razorpay.com"),
			FetchTimeoutSec: getenvInt("RAZORPAY_FETCH_TIMEOUT_SECONDS", 5),
		},
		Checkout: CheckoutConfig{
			MerchantID:      strings.TrimSpace(getenv("CHECKOUT_MERCHANT_ID", "")),
			MerchantSecret:  strings.TrimSpace(getenv("CHECKOUT_MERCHANT_SECRET", "")),
			MaxSkewSeconds:  getenvInt("CHECKOUT_MAX_SKEW_SECONDS", 300),
			FutureSkewAllow: getenvInt("CHECKOUT_FUTURE_SKEW_SECONDS", 30),
			MinAmountMajor:  getenvInt64("CHECKOUT_MIN_AMOUNT", 1),
			MaxAmountMajor:  getenvInt64("CHECKOUT_MAX_AMOUNT", 1_000_000),
		},
	}
}

// SecretPreview returns a truncated form of a secret safe to log.
func SecretPreview(secret string) string {
	secret = strings.TrimSpace(secret)
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
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

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
