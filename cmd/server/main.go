package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	httpAdapter "github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/http"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/http/handler"
	apimiddleware "github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/http/middleware"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/repository/memory"
	postgresRepo "github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/repository/postgres"
	redisRepo "github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/repository/redis"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/auth"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/config"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/eventpublisher"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/logger"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/metrics"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/postgres"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/redis"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

const (
	rateLimitCleanupInterval = time.Minute
	rateLimitMaxIdle         = 10 * time.Minute
	outboxRetention          = 7 * 24 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

// storage bundles the repositories of one storage driver.
type storage struct {
	txManager usecase.TransactionManager
	accounts  usecase.AccountRepository
	txs       usecase.TransactionRepository
	outbox    usecase.OutboxRepository
	audit     usecase.AuditRepository
	ledger    usecase.LedgerRepository
	users     usecase.UserRepository
	pool      *pgxpool.Pool
	closeFn   func()
}

func (s *storage) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &storage{
			txManager: memory.NewTxManager(store),
			accounts:  memory.NewAccountRepository(store),
			txs:       memory.NewTransactionRepository(store),
			outbox:    memory.NewOutboxRepository(store),
			audit:     memory.NewAuditRepository(store),
			ledger:    memory.NewLedgerRepository(store),
			users:     memory.NewUserRepository(store),
		}, nil
	}

	if cfg.RunMigrations {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, log).Up(); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := postgres.ConnectWithRetry(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	}, postgres.NewRetrier(log))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	log.Info().Msg("connected to postgres")

	return &storage{
		txManager: postgresRepo.NewTxManager(pool),
		accounts:  postgresRepo.NewAccountRepository(pool),
		txs:       postgresRepo.NewTransactionRepository(pool),
		outbox:    postgresRepo.NewOutboxRepository(pool),
		audit:     postgresRepo.NewAuditRepository(pool),
		ledger:    postgresRepo.NewLedgerRepository(pool),
		users:     postgresRepo.NewUserRepository(pool),
		pool:      pool,
		closeFn:   pool.Close,
	}, nil
}

// caches holds the short-lived key stores used by the HTTP layer.
type caches struct {
	idempotency usecase.IdempotencyStore
	denylist    usecase.TokenDenylist
	ping        handler.Pinger
	closeFn     func() error
}

func openCaches(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*caches, error) {
	if !cfg.RedisEnabled {
		log.Warn().Msg("redis disabled, idempotency keys and revoked tokens are kept in process")
		return &caches{
			idempotency: memory.NewIdempotencyStore(),
			denylist:    memory.NewTokenDenylist(),
		}, nil
	}

	client, err := redis.NewClient(ctx, cfg.RedisURL, log)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &caches{
		idempotency: redisRepo.NewIdempotencyStore(client),
		denylist:    redisRepo.NewTokenDenylist(client),
		ping: handler.PingerFunc(func(ctx context.Context) error {
			return redis.Ping(ctx, client)
		}),
		closeFn: client.Close,
	}, nil
}

func (c *caches) Close() error {
	if c.closeFn == nil {
		return nil
	}
	return c.closeFn()
}

// newPublisher returns a Kafka publisher when brokers are configured and a
// log-only publisher otherwise.
func newPublisher(cfg *config.Config, log zerolog.Logger) (eventpublisher.Publisher, func() error) {
	if len(cfg.KafkaBrokers) == 0 {
		return eventpublisher.NewLogPublisher(log), func() error { return nil }
	}

	kp := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	return kp, kp.Close
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	m := metrics.New()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	kv, err := openCaches(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis")
		}
	}()

	idGen := postgresRepo.NewULIDGenerator()

	userUC := usecase.NewUserUseCase(store.users, log, m)
	accountUC := usecase.NewAccountUseCase(store.txManager, store.accounts, store.txs, store.outbox, store.audit, userUC, idGen, log, m)
	transactionUC := usecase.NewTransactionUseCase(store.txManager, store.accounts, store.txs, store.outbox, store.audit, idGen, log, m)
	transferUC := usecase.NewTransferUseCase(store.txManager, store.accounts, store.txs, store.outbox, idGen, log, m)
	ledgerUC := usecase.NewLedgerUseCase(store.ledger, log, m)
	reconciliationUC := usecase.NewReconciliationUseCase(store.accounts, store.txs, ledgerUC, log, m)
	auditUC := usecase.NewAuditUseCase(store.audit, log)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	healthHandler := handler.NewHealthHandler().WithCheck("redis", kv.ping)
	if store.pool != nil {
		healthHandler = healthHandler.WithCheck("postgres", store.pool)
	}

	rateLimiter := apimiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuthHandler:        handler.NewAuthHandler(userUC, jwtManager, kv.denylist, log),
		AccountHandler:     handler.NewAccountHandler(accountUC, reconciliationUC, log),
		TransactionHandler: handler.NewTransactionHandler(transactionUC, log),
		TransferHandler:    handler.NewTransferHandler(transferUC, log),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC, reconciliationUC, log),
		AuditHandler:       handler.NewAuditHandler(auditUC, log),
		HealthHandler:      healthHandler,
		TokenVerifier:      jwtManager,
		TokenDenylist:      kv.denylist,
		IdempotencyStore:   kv.idempotency,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        rateLimiter,
		Logger:             log,
		Metrics:            m,
	})

	publisher, closePublisher := newPublisher(cfg, log)
	defer func() {
		if err := closePublisher(); err != nil {
			log.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	outboxWorker := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: store.outbox,
		Publisher:  publisher,
		Logger:     log,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
		Retention:  outboxRetention,
	})
	go func() {
		if err := outboxWorker.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	go rateLimiter.RunCleanup(workerCtx, rateLimitCleanupInterval, rateLimitMaxIdle)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}
