package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	postgresRepo "github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/repository/postgres"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/metrics"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/postgres"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// TestPassword satisfies the password policy for every fixture user.
const TestPassword = "StrongPass1"

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB migrates and connects to the database named by DATABASE_URL.
// The test is skipped in short mode or when DATABASE_URL is unset.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	// Tests run from the package directory, so walk up to find migrations.
	migrationsPath := "internal/infrastructure/postgres/migrations"
	for _, candidate := range []string{migrationsPath, "../" + migrationsPath, "../../" + migrationsPath} {
		if _, err := os.Stat(candidate); err == nil {
			migrationsPath = candidate
			break
		}
	}

	if err := postgres.NewMigrator(dbURL, migrationsPath, zerolog.Nop()).Up(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbURL, 10, 1)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	db := &TestDB{Pool: pool, t: t}
	t.Cleanup(db.Cleanup)

	return db
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE transactions, accounts, users, outbox_events, audit_logs CASCADE;
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// Stack is every use case wired to one database.
type Stack struct {
	TxManager      *postgresRepo.TxManager
	Accounts       *postgresRepo.AccountRepository
	Transactions   *postgresRepo.TransactionRepository
	Outbox         *postgresRepo.OutboxRepository
	Audit          *postgresRepo.AuditRepository
	Metrics        *metrics.Metrics
	Users          *usecase.UserUseCase
	Account        *usecase.AccountUseCase
	Transaction    *usecase.TransactionUseCase
	Transfer       *usecase.TransferUseCase
	Ledger         *usecase.LedgerUseCase
	Reconciliation *usecase.ReconciliationUseCase
	AuditTrail     *usecase.AuditUseCase
}

// NewStack builds the use cases on top of the test pool.
func (db *TestDB) NewStack() *Stack {
	logger := zerolog.Nop()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	idGen := postgresRepo.NewULIDGenerator()

	s := &Stack{
		TxManager:    postgresRepo.NewTxManager(db.Pool),
		Accounts:     postgresRepo.NewAccountRepository(db.Pool),
		Transactions: postgresRepo.NewTransactionRepository(db.Pool),
		Outbox:       postgresRepo.NewOutboxRepository(db.Pool),
		Audit:        postgresRepo.NewAuditRepository(db.Pool),
		Metrics:      m,
	}

	s.Users = usecase.NewUserUseCase(postgresRepo.NewUserRepository(db.Pool), logger, m).WithBcryptCost(bcrypt.MinCost)
	s.Account = usecase.NewAccountUseCase(s.TxManager, s.Accounts, s.Transactions, s.Outbox, s.Audit, s.Users, idGen, logger, m)
	s.Transaction = usecase.NewTransactionUseCase(s.TxManager, s.Accounts, s.Transactions, s.Outbox, s.Audit, idGen, logger, m)
	s.Transfer = usecase.NewTransferUseCase(s.TxManager, s.Accounts, s.Transactions, s.Outbox, idGen, logger, m)
	s.Ledger = usecase.NewLedgerUseCase(postgresRepo.NewLedgerRepository(db.Pool), logger, m)
	s.Reconciliation = usecase.NewReconciliationUseCase(s.Accounts, s.Transactions, s.Ledger, logger, m)
	s.AuditTrail = usecase.NewAuditUseCase(s.Audit, logger)

	return s
}

// CreateTestUser registers a user with TestPassword.
func (s *Stack) CreateTestUser(t *testing.T, ctx context.Context, email string) *domain.User {
	t.Helper()

	user, err := s.Users.Register(ctx, usecase.RegisterInput{Email: email, Name: "Test User", Password: TestPassword})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount opens an account for owner holding balance.
func (s *Stack) CreateTestAccount(t *testing.T, ctx context.Context, owner *domain.User, name, balance string) *domain.Account {
	t.Helper()

	account, err := s.Account.OpenAccount(ctx, usecase.OpenAccountInput{
		OwnerID:        owner.ID,
		Name:           name,
		InitialBalance: domain.MustMoney(balance),
	})
	if err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// Deposit records a deposit dated date.
func (s *Stack) Deposit(t *testing.T, ctx context.Context, account *domain.Account, amount string, date time.Time) *usecase.TransactionResult {
	t.Helper()

	result, err := s.Transaction.AddTransaction(ctx, usecase.AddTransactionInput{
		AccountID:    account.ID,
		CallerUserID: account.OwnerID,
		Type:         domain.TransactionTypeDeposit,
		Description:  "deposit",
		Amount:       domain.MustMoney(amount),
		Date:         date,
	})
	if err != nil {
		t.Fatalf("failed to deposit: %v", err)
	}
	return result
}

// UniqueEmail returns an email address no other fixture uses.
func UniqueEmail() string {
	return "user-" + ulid.Make().String() + "@example.com"
}
