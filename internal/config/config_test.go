package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		// t.Setenv sets the environment variable for the duration of the test
		// and automatically restores it afterwards.
		t.Setenv("APP_ENV", "test")
		t.Setenv("APP_PORT", "9090")
		t.Setenv("API_BASE_URL", "https://api.example.org/api/")
		t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
		t.Setenv("MAX_DONATION_AMOUNT", "250000")
		t.Setenv("HTTP_TIMEOUT", "5s")
		t.Setenv("SESSION_CAPACITY", "16")
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USER", "testuser")
		t.Setenv("DB_PASSWORD", "testpass")
		t.Setenv("DB_NAME", "testdb")
		t.Setenv("DB_PORT", "5433")

		cfg := LoadConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, "9090", cfg.AppPort)
		assert.Equal(t, "https://api.example.org/api", cfg.APIBaseURL, "trailing slash is trimmed")
		assert.Equal(t, "rzp_test_key", cfg.RazorpayKeyID)
		assert.Equal(t, int64(250000), cfg.MaxAmount)
		assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
		assert.Equal(t, 16, cfg.SessionCapacity)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "testuser", cfg.DBUser)
		assert.Equal(t, "testpass", cfg.DBPassword)
		assert.Equal(t, "testdb", cfg.DBName)
		assert.Equal(t, "5433", cfg.DBPort)
		assert.True(t, cfg.JournalEnabled())
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("API_BASE_URL", "http://localhost:8000/api")
		t.Setenv("APP_ENV", "")
		t.Setenv("MAX_DONATION_AMOUNT", "not-a-number")
		t.Setenv("HTTP_TIMEOUT", "soon")
		t.Setenv("DB_HOST", "")

		cfg := LoadConfig()

		assert.Equal(t, "development", cfg.AppEnv)
		assert.Equal(t, "INR", cfg.Currency)
		assert.Equal(t, int64(500000), cfg.MaxAmount)
		assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
		assert.Equal(t, "#FF9933", cfg.ThemeColor)
		assert.Equal(t, "/receipt", cfg.ReceiptPath)
		assert.Equal(t, "https://checkout.razorpay.com/v1/checkout.js", cfg.CheckoutScriptURL)
		assert.False(t, cfg.JournalEnabled())
	})
}
