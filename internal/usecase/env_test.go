package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/repository/memory"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/metrics"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

const testPassword = "Passw0rdOk"

// seqIDs hands out increasing ids so ledger order is deterministic.
type seqIDs struct {
	n atomic.Int64
}

func (s *seqIDs) Generate() string {
	return fmt.Sprintf("id-%08d", s.n.Add(1))
}

type ledgerEnv struct {
	store        *memory.Store
	txManager    *memory.TxManager
	accounts     *memory.AccountRepository
	transactions *memory.TransactionRepository
	outbox       *memory.OutboxRepository
	audit        *memory.AuditRepository
	metrics      *metrics.Metrics

	users          *usecase.UserUseCase
	accountUC      *usecase.AccountUseCase
	transactionUC  *usecase.TransactionUseCase
	transferUC     *usecase.TransferUseCase
	ledgerUC       *usecase.LedgerUseCase
	reconciliation *usecase.ReconciliationUseCase
}

type envOption func(*envDeps)

type envDeps struct {
	transactions usecase.TransactionRepository
}

// withTransactionRepo swaps the transaction repository used by the engine.
func withTransactionRepo(wrap func(*memory.TransactionRepository) usecase.TransactionRepository) envOption {
	return func(d *envDeps) {
		d.transactions = wrap(d.transactions.(*memory.TransactionRepository))
	}
}

func newLedgerEnv(t *testing.T, opts ...envOption) *ledgerEnv {
	t.Helper()

	store := memory.NewStore()
	ids := &seqIDs{}
	logger := zerolog.Nop()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	env := &ledgerEnv{
		store:        store,
		txManager:    memory.NewTxManager(store),
		accounts:     memory.NewAccountRepository(store),
		transactions: memory.NewTransactionRepository(store),
		outbox:       memory.NewOutboxRepository(store),
		audit:        memory.NewAuditRepository(store),
		metrics:      m,
	}

	deps := &envDeps{transactions: env.transactions}
	for _, opt := range opts {
		opt(deps)
	}

	env.users = usecase.NewUserUseCase(memory.NewUserRepository(store), logger, m).WithBcryptCost(bcrypt.MinCost)
	env.accountUC = usecase.NewAccountUseCase(env.txManager, env.accounts, deps.transactions, env.outbox, env.audit, env.users, ids, logger, m)
	env.transactionUC = usecase.NewTransactionUseCase(env.txManager, env.accounts, deps.transactions, env.outbox, env.audit, ids, logger, m)
	env.transferUC = usecase.NewTransferUseCase(env.txManager, env.accounts, deps.transactions, env.outbox, ids, logger, m)
	env.ledgerUC = usecase.NewLedgerUseCase(memory.NewLedgerRepository(store), logger, m)
	env.reconciliation = usecase.NewReconciliationUseCase(env.accounts, env.transactions, env.ledgerUC, logger, m)

	return env
}

func (e *ledgerEnv) registerUser(t *testing.T, email string) *domain.User {
	t.Helper()

	user, err := e.users.Register(context.Background(), usecase.RegisterInput{
		Email:    email,
		Name:     "Test User",
		Password: testPassword,
	})
	require.NoError(t, err)

	return user
}

func (e *ledgerEnv) openAccount(t *testing.T, ownerID, initial string) *domain.Account {
	t.Helper()

	account, err := e.accountUC.OpenAccount(context.Background(), usecase.OpenAccountInput{
		OwnerID:        ownerID,
		Name:           "Savings",
		InitialBalance: domain.MustMoney(initial),
	})
	require.NoError(t, err)

	return account
}

func (e *ledgerEnv) add(t *testing.T, account *domain.Account, typ domain.TransactionType, amount string) *domain.Transaction {
	t.Helper()

	result, err := e.transactionUC.AddTransaction(context.Background(), usecase.AddTransactionInput{
		AccountID:    account.ID,
		CallerUserID: account.OwnerID,
		Type:         typ,
		Amount:       domain.MustMoney(amount),
		Date:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	return result.Transaction
}

func (e *ledgerEnv) balance(t *testing.T, accountID string) string {
	t.Helper()

	account, err := e.accounts.GetByID(context.Background(), accountID)
	require.NoError(t, err)

	return account.Balance.String()
}

func (e *ledgerEnv) eventTypes(t *testing.T, accountID string) []string {
	t.Helper()

	events := e.eventsFor(t, domain.AggregateTypeAccount, accountID)

	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.EventType)
	}

	return types
}

// eventsFor returns the pending outbox events of one aggregate in creation order.
func (e *ledgerEnv) eventsFor(t *testing.T, aggregateType, aggregateID string) []*domain.OutboxEvent {
	t.Helper()

	pending, err := e.outbox.GetUnpublished(context.Background(), domain.MaxPageSize)
	require.NoError(t, err)

	var events []*domain.OutboxEvent
	for _, ev := range pending {
		if ev.AggregateType == aggregateType && ev.AggregateID == aggregateID {
			events = append(events, ev)
		}
	}

	return events
}

// auditFor returns the audit trail of one resource, newest first.
func (e *ledgerEnv) auditFor(t *testing.T, resourceType, resourceID string) []*domain.AuditLog {
	t.Helper()

	logs, err := e.audit.List(context.Background(), domain.AuditFilter{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Limit:        domain.MaxPageSize,
	})
	require.NoError(t, err)

	return logs
}
