package main

import (
	"database/sql"
	"database/sql/driver"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sevapay/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(backendURL string) *config.Config {
	return &config.Config{
		AppPort:           "8080",
		AppEnv:            "test",
		APIBaseURL:        backendURL,
		RazorpayKeyID:     "rzp_test_key",
		Currency:          "INR",
		MaxAmount:         500000,
		OrgName:           "Seva Test Trust",
		ThemeColor:        "#FF9933",
		CheckoutScriptURL: "http://checkout.invalid/v1/checkout.js",
		ReceiptPath:       "/receipt",
		HTTPTimeout:       2 * time.Second,
		SessionCapacity:   8,
		AllowedOrigin:     "http://localhost:3000",
		SecretKey:         "test-secret",
	}
}

func TestNewServer(t *testing.T) {
	db, err := sql.Open("mock_driver_main", "")
	require.NoError(t, err)

	router, err := newServer(testConfig("http://backend.invalid/api"), db)
	require.NoError(t, err)
	require.NotNil(t, router)

	t.Run("Health Check", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "OK", rr.Body.String())
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Metrics", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "http_requests_total")
	})

	t.Run("Preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/donations", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("Bad token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/abc", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Unknown session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/abc", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Manual payment needs staff", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/manual", strings.NewReader(`{}`))
		req.RemoteAddr = "192.0.2.10:1234"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Journal routes are live with a database", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/payments/failures", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		// anonymous callers are turned away before the journal is touched
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestNewServer_WithoutJournal(t *testing.T) {
	router, err := newServer(testConfig("http://backend.invalid/api"), nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDonationFlowThroughServer(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/payment/init/":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"order_id":"order_srv","amount":"50000.00","currency":"INR"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer backend.Close()

	script := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("// checkout"))
	}))
	defer script.Close()

	cfg := testConfig(backend.URL + "/api")
	cfg.CheckoutScriptURL = script.URL + "/checkout.js"

	router, err := newServer(cfg, nil)
	require.NoError(t, err)

	body := `{"name":"Asha Rao","email":"asha@example.com","phone":"9123456789","amount":500,"payment_for":"donation"}`
	req := httptest.NewRequest(http.MethodPost, "/api/donations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "198.51.100.7:5555"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"state":"waiting-payment"`)
	assert.Contains(t, rr.Body.String(), `"checkout_url":"/checkout/`)
}

// --- Mock Driver for Testing ---
type mockDriver struct{}

func (m *mockDriver) Open(name string) (driver.Conn, error)         { return &mockConn{}, nil }
func (c *mockConn) Prepare(query string) (driver.Stmt, error)       { return &mockStmt{}, nil }
func (c *mockConn) Close() error                                    { return nil }
func (c *mockConn) Begin() (driver.Tx, error)                       { return nil, nil }
func (s *mockStmt) Close() error                                    { return nil }
func (s *mockStmt) NumInput() int                                   { return 0 }
func (s *mockStmt) Exec(args []driver.Value) (driver.Result, error) { return nil, nil }
func (s *mockStmt) Query(args []driver.Value) (driver.Rows, error)  { return nil, nil }

type mockConn struct{}
type mockStmt struct{}

func init() {
	sql.Register("mock_driver_main", &mockDriver{})
}

func TestRun(t *testing.T) {
	origInitDB := initDBFunc
	defer func() { initDBFunc = origInitDB }()
	dbOpened := false
	initDBFunc = func(cfg *config.Config) *sql.DB {
		dbOpened = true
		db, _ := sql.Open("mock_driver_main", "")
		return db
	}

	origStartServer := startServerFunc
	defer func() { startServerFunc = origStartServer }()
	var gotAddr string
	startServerFunc = func(addr string, handler http.Handler) error {
		gotAddr = addr
		assert.NotNil(t, handler)
		return nil
	}

	t.Setenv("APP_PORT", "8080")
	t.Setenv("APP_ENV", "test")
	t.Setenv("API_BASE_URL", "http://backend.invalid/api")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "user")
	t.Setenv("DB_PASSWORD", "pass")
	t.Setenv("DB_NAME", "db")

	assert.NoError(t, run())
	assert.True(t, dbOpened)
	assert.Equal(t, ":8080", gotAddr)
}

func TestRun_WithoutDatabase(t *testing.T) {
	origInitDB := initDBFunc
	defer func() { initDBFunc = origInitDB }()
	initDBFunc = func(cfg *config.Config) *sql.DB {
		t.Fatal("journal database must not be opened without DB_HOST")
		return nil
	}

	origStartServer := startServerFunc
	defer func() { startServerFunc = origStartServer }()
	startServerFunc = func(addr string, handler http.Handler) error { return nil }

	t.Setenv("API_BASE_URL", "http://backend.invalid/api")
	t.Setenv("DB_HOST", "")

	assert.NoError(t, run())
}
