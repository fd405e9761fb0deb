package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	AppURL      string
	LogLevel    string

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

	Gemini GeminiConfig
	Stripe StripeConfig
	R2     R2Config

	RedisAddr          string
	GenerateRatePerMin int
	GenerateBurst      int
}

// GeminiConfig configures the image-generation provider.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// StripeConfig configures the payment provider.
type StripeConfig struct {
	SecretKey       string
	WebhookSecret   string
	PriceIDStarter  string
	PriceIDPro      string
	PriceIDBusiness string
}

// R2Config configures the S3-compatible artifact store.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
	UploadTimeout   time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "adcraft"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		AppURL:      strings.TrimRight(getenv("APP_URL", "http://localhost:3000"), "/"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "adcraft"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		Gemini: GeminiConfig{
			APIKey:  strings.TrimSpace(getenv("GEMINI_API_KEY", "")),
			Model:   getenv("GEMINI_MODEL", "gemini-3-pro-image-preview"),
			Timeout: getenvDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		Stripe: StripeConfig{
			SecretKey:       strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			WebhookSecret:   strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
			PriceIDStarter:  strings.TrimSpace(getenv("STRIPE_PRICE_STARTER", "")),
			PriceIDPro:      strings.TrimSpace(getenv("STRIPE_PRICE_PRO", "")),
			PriceIDBusiness: strings.TrimSpace(getenv("STRIPE_PRICE_BUSINESS", "")),
		},
		R2: R2Config{
			AccountID:       strings.TrimSpace(getenv("R2_ACCOUNT_ID", "")),
			AccessKeyID:     strings.TrimSpace(getenv("R2_ACCESS_KEY_ID", "")),
			SecretAccessKey: strings.TrimSpace(getenv("R2_SECRET_ACCESS_KEY", "")),
			Bucket:          strings.TrimSpace(getenv("R2_BUCKET_NAME", "")),
			PublicBaseURL:   strings.TrimSpace(getenv("R2_PUBLIC_URL", "")),
			UploadTimeout:   getenvDuration("R2_UPLOAD_TIMEOUT", 30*time.Second),
		},

		RedisAddr:          strings.TrimSpace(getenv("REDIS_ADDR", "")),
		GenerateRatePerMin: getenvInt("GENERATE_RATE_PER_MIN", 10),
		GenerateBurst:      getenvInt("GENERATE_BURST", 5),
	}
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

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
