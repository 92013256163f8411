package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Account metrics
	AccountsOpened    prometheus.Counter
	AccountsClosed    prometheus.Counter
	AccountOperations *prometheus.CounterVec

	// Transaction metrics
	TransactionsRecorded *prometheus.CounterVec
	TransactionsEdited   prometheus.Counter
	TransactionsDeleted  prometheus.Counter
	SnapshotsShifted     prometheus.Histogram

	// Transfer metrics
	TransfersCreated prometheus.Counter
	TransferDuration prometheus.Histogram
	TransferAmount   prometheus.Histogram
	TransferErrors   *prometheus.CounterVec

	// Consistency metrics
	LedgerChecks                *prometheus.CounterVec
	ReconciliationDiscrepancies prometheus.Gauge

	// Outbox metrics
	OutboxEventsPublished *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers all metrics on reg. Tests pass a fresh registry.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Account metrics
		AccountsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "savings_accounts_opened_total",
			Help: "Total number of savings accounts opened",
		}),
		AccountsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "savings_accounts_closed_total",
			Help: "Total number of savings accounts closed",
		}),
		AccountOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savings_account_operations_total",
				Help: "Total account operations by type",
			},
			[]string{"operation"},
		),

		// Transaction metrics
		TransactionsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savings_transactions_recorded_total",
				Help: "Total transactions recorded by type",
			},
			[]string{"type"},
		),
		TransactionsEdited: factory.NewCounter(prometheus.CounterOpts{
			Name: "savings_transactions_edited_total",
			Help: "Total number of transactions edited",
		}),
		TransactionsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "savings_transactions_deleted_total",
			Help: "Total number of transactions deleted",
		}),
		SnapshotsShifted: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "savings_snapshots_shifted",
			Help:    "Later transactions whose resulting balance was shifted by a delete",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		}),

		// Transfer metrics
		TransfersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "savings_transfers_created_total",
			Help: "Total number of transfers created",
		}),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "savings_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "savings_transfer_amount",
			Help:    "Transfer amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		TransferErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savings_transfer_errors_total",
				Help: "Total number of transfer errors by kind",
			},
			[]string{"error_type"},
		),

		// Consistency metrics
		LedgerChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savings_ledger_checks_total",
				Help: "Ledger-wide consistency checks by result",
			},
			[]string{"result"},
		),
		ReconciliationDiscrepancies: factory.NewGauge(prometheus.GaugeOpts{
			Name: "savings_reconciliation_discrepancies",
			Help: "Accounts with discrepancies in the last reconciliation report",
		}),

		// Outbox metrics
		OutboxEventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savings_outbox_events_published_total",
				Help: "Outbox events handed to the publisher by status",
			},
			[]string{"status"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savings_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "savings_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "savings_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savings_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savings_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savings_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Authentication metrics
		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savings_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"status"},
		),
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savings_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savings_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		// Audit metrics
		AuditLogsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "savings_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
