package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string
	AppPort string

	// REST backend that owns orders and signature verification.
	APIBaseURL    string
	RazorpayKeyID string
	Currency      string
	MaxAmount     int64

	OrgName           string
	OrgDisplayName    string
	OrgLogoURL        string
	ThemeColor        string
	CheckoutScriptURL string
	ReceiptPath       string
	SupportEmail      string
	SupportPhone      string

	HTTPTimeout     time.Duration
	SessionCapacity int
	AllowedOrigin   string
	SecretKey       string

	// Optional reconciliation journal; disabled when DBHost is empty.
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "8080"),

		APIBaseURL:    strings.TrimRight(os.Getenv("API_BASE_URL"), "/"),
		RazorpayKeyID: os.Getenv("RAZORPAY_KEY_ID"),
		Currency:      getEnv("PAYMENT_CURRENCY", "INR"),
		MaxAmount:     getEnvInt64("MAX_DONATION_AMOUNT", 500000),

		OrgName:           getEnv("ORG_NAME", "Rashtriya Seva Sangh"),
		OrgDisplayName:    getEnv("ORG_DISPLAY_NAME", "राष्ट्रीय सेवा संघ"),
		OrgLogoURL:        getEnv("ORG_LOGO_URL", "/logo/logo.png"),
		ThemeColor:        getEnv("THEME_COLOR", "#FF9933"),
		CheckoutScriptURL: getEnv("CHECKOUT_SCRIPT_URL", "https://checkout.razorpay.com/v1/checkout.js"),
		ReceiptPath:       getEnv("RECEIPT_PATH", "/receipt"),
		SupportEmail:      getEnv("SUPPORT_EMAIL", "help@joinrss.org.in"),
		SupportPhone:      getEnv("SUPPORT_PHONE", "9429693593"),

		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
		SessionCapacity: int(getEnvInt64("SESSION_CAPACITY", 1024)),
		AllowedOrigin:   getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		SecretKey:       os.Getenv("SECRET_KEY"),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getEnv("DB_PORT", "5432"),
	}

	if cfg.APIBaseURL == "" {
		log.Fatal("API_BASE_URL is not set")
	}

	return cfg
}

// JournalEnabled reports whether verification failures are persisted.
func (c *Config) JournalEnabled() bool {
	return c.DBHost != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
