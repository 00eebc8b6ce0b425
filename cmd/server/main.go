package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sevapay/internal/api"
	"sevapay/internal/checkout"
	"sevapay/internal/config"
	"sevapay/internal/db"
	"sevapay/internal/donation"
	"sevapay/internal/logger"
	"sevapay/internal/metrics"
	"sevapay/internal/middleware"
	"sevapay/internal/payment"
	"sevapay/internal/receipt"
	"sevapay/internal/session"
	"sevapay/internal/utils"
	"sevapay/internal/workflow"

	"go.uber.org/zap"
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = startServer
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	var database *sql.DB
	if cfg.JournalEnabled() {
		database = initDBFunc(cfg)
		defer database.Close()
	} else {
		logger.L().Warn("DB_HOST is not set, verification failures will only be logged")
	}

	handler, err := newServer(cfg, database)
	if err != nil {
		return err
	}

	logger.L().Info("🚀 payment server running", zap.String("addr", ":"+cfg.AppPort))
	return startServerFunc(":"+cfg.AppPort, handler)
}

// newServer wires every collaborator. database may be nil, which disables
// the reconciliation journal.
func newServer(cfg *config.Config, database *sql.DB) (http.Handler, error) {
	client := payment.NewClient(cfg)
	loader := checkout.NewScriptLoader(cfg.CheckoutScriptURL, &http.Client{Timeout: cfg.HTTPTimeout})
	hosted := checkout.NewHosted(loader)
	dispatcher := receipt.NewDispatcher(cfg.ReceiptPath)

	store, err := session.NewStore(cfg.SessionCapacity)
	if err != nil {
		return nil, err
	}

	var journal payment.Repository
	if database != nil {
		journal = payment.NewRepository(database)
	}

	rules := donation.Rules{MaxAmount: cfg.MaxAmount, Purposes: donation.DefaultRules.Purposes}
	branding := checkout.Branding{
		DisplayName: cfg.OrgName,
		LogoURL:     cfg.OrgLogoURL,
		ThemeColor:  cfg.ThemeColor,
	}

	factory := func(ctx context.Context, purpose donation.Purpose) *workflow.Controller {
		opts := []workflow.Option{
			workflow.WithValidator(rules.ValidateRequest),
			workflow.WithBranding(branding),
			workflow.WithManualRecorder(client),
			workflow.WithObserver(func(from, to workflow.State) {
				logger.L().Debug("payment state changed",
					zap.String("from", string(from)),
					zap.String("to", string(to)),
				)
			}),
		}
		if journal != nil {
			opts = append(opts, workflow.WithJournal(journal))
		}
		// Membership receipts always carry the address block.
		if loc, ok := utils.GetLocationFromContext(ctx); ok || purpose == donation.PurposeMember {
			opts = append(opts, workflow.WithLocation(loc))
		}
		return workflow.NewController(client, client, hosted, dispatcher, opts...)
	}

	h, err := api.NewHandler(api.Deps{
		Config:        cfg,
		Store:         store,
		Hosted:        hosted,
		Journal:       journal,
		NewController: factory,
		Rules:         rules,
	})
	if err != nil {
		return nil, err
	}

	router := setupRouter(h)

	var chain http.Handler = middleware.MetricsMiddleware(router)
	chain = middleware.RateLimitMiddleware(chain)
	chain = middleware.AuthMiddleware(cfg.SecretKey)(chain)
	chain = middleware.CORS(cfg.AllowedOrigin)(chain)
	chain = logger.LoggingMiddleware(chain)
	chain = logger.RequestIDMiddleware(chain)

	return chain, nil
}

func setupRouter(h *api.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	h.Register(mux)
	return mux
}

// startServer serves until SIGINT or SIGTERM, then drains in-flight requests.
func startServer(addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down payment server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
