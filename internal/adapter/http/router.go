package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/http/handler"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/http/middleware"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/metrics"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler        *handler.AuthHandler
	AccountHandler     *handler.AccountHandler
	TransactionHandler *handler.TransactionHandler
	TransferHandler    *handler.TransferHandler
	LedgerHandler      *handler.LedgerHandler
	AuditHandler       *handler.AuditHandler
	HealthHandler      *handler.HealthHandler

	TokenVerifier    middleware.TokenVerifier
	TokenDenylist    usecase.TokenDenylist
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	// MetricsGatherer backs /metrics. Nil means the default Prometheus registry.
	MetricsGatherer prometheus.Gatherer
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	gatherer := cfg.MetricsGatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.AllowContentType("application/json"))

		r.Post("/auth/register", cfg.AuthHandler.Register)
		r.Post("/auth/login", cfg.AuthHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier, cfg.TokenDenylist, cfg.Logger))

			// Idempotency keys are scoped per caller, so this runs after auth.
			if cfg.IdempotencyStore != nil {
				r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.Logger).WithTTL(cfg.IdempotencyTTL).Wrap)
			}

			r.Post("/auth/logout", cfg.AuthHandler.Logout)
			r.Get("/auth/me", cfg.AuthHandler.Me)

			// Accounts
			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", cfg.AccountHandler.List)
				r.Post("/", cfg.AccountHandler.Open)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cfg.AccountHandler.Get)
					r.Patch("/", cfg.AccountHandler.Rename)
					r.Post("/close", cfg.AccountHandler.Close)
					r.Get("/reconciliation", cfg.AccountHandler.Reconcile)

					r.Route("/transactions", func(r chi.Router) {
						r.Get("/", cfg.TransactionHandler.List)
						r.Post("/", cfg.TransactionHandler.Add)
						r.Get("/sums", cfg.TransactionHandler.Sums)
						r.Patch("/{txID}", cfg.TransactionHandler.Edit)
						r.Delete("/{txID}", cfg.TransactionHandler.Delete)
					})
				})
			})

			// Transfers
			r.Route("/transfers", func(r chi.Router) {
				r.Post("/", cfg.TransferHandler.Create)
				r.Get("/{id}", cfg.TransferHandler.Get)
			})

			// Ledger-wide checks
			r.Route("/ledger", func(r chi.Router) {
				r.Get("/consistency", cfg.LedgerHandler.CheckConsistency)
				r.Get("/reconciliation", cfg.LedgerHandler.Reconciliation)
			})

			r.Get("/audit", cfg.AuditHandler.List)
		})
	})

	return r
}
