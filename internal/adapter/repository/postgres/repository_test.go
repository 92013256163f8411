package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
)

var (
	accountColumns     = []string{"id", "owner_id", "name", "balance", "opening_balance", "created_at", "updated_at"}
	transactionColumns = []string{"id", "account_id", "transfer_id", "type", "amount", "transaction_date", "resulting_balance", "description", "created_at"}
	outboxColumns      = []string{"id", "aggregate_id", "aggregate_type", "event_type", "payload", "created_at", "published_at", "published"}
)

func beginTx(t *testing.T, mock pgxmock.PgxPoolIface) *Tx {
	t.Helper()

	mock.ExpectBegin()
	tx, err := newTxManagerWithPool(mock).Begin(context.Background())
	require.NoError(t, err)

	return tx.(*Tx)
}

func TestAccountRepository_GetByID(t *testing.T) {
	mock := newMockPool(t)
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id = \\$1").
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow("acc-1", "user-1", "Rainy day", "120.50", "100.00", now, now))

	account, err := NewAccountRepository(mock).GetByID(context.Background(), "acc-1")
	require.NoError(t, err)

	assert.Equal(t, "user-1", account.OwnerID)
	assert.Equal(t, "Rainy day", account.Name)
	assert.True(t, account.Balance.Equal(domain.MustMoney("120.50")), "balance = %s", account.Balance)
	assert.True(t, account.OpeningBalance.Equal(domain.MustMoney("100.00")))
	assert.Equal(t, now, account.CreatedAt)

	assertExpectations(t, mock)
}

func TestAccountRepository_GetByIDNotFound(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := NewAccountRepository(mock).GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountRepository_GetByIDsForUpdateUsesTx(t *testing.T) {
	mock := newMockPool(t)
	tx := beginTx(t, mock)
	now := time.Now().UTC()

	mock.ExpectQuery("FOR UPDATE").
		WithArgs([]string{"acc-a", "acc-b"}).
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow("acc-a", "user-1", "A", "10.00", "10.00", now, now).
			AddRow("acc-b", "user-1", "B", "0.00", "0.00", now, now))
	mock.ExpectRollback()

	accounts, err := NewAccountRepository(mock).GetByIDsForUpdate(context.Background(), tx, []string{"acc-a", "acc-b"})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "acc-a", accounts[0].ID)
	assert.Equal(t, "acc-b", accounts[1].ID)

	require.NoError(t, tx.Rollback(context.Background()))
	assertExpectations(t, mock)
}

func TestAccountRepository_Delete(t *testing.T) {
	mock := newMockPool(t)
	tx := beginTx(t, mock)

	mock.ExpectExec("DELETE FROM accounts").
		WithArgs("acc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	removed, err := NewAccountRepository(mock).Delete(context.Background(), tx, "acc-1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestTransactionRepository_GetByID(t *testing.T) {
	mock := newMockPool(t)
	tx := beginTx(t, mock)
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs("acc-1", "txn-1").
		WillReturnRows(pgxmock.NewRows(transactionColumns).
			AddRow("txn-1", "acc-1", "", "Deposit", "20.00", date, "120.00", "paycheck", date))

	txn, err := NewTransactionRepository(mock).GetByID(context.Background(), tx, "acc-1", "txn-1")
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionTypeDeposit, txn.Type)
	assert.True(t, txn.Amount.Equal(domain.MustMoney("20")))
	assert.True(t, txn.ResultingBalance.Equal(domain.MustMoney("120")))
	assert.Equal(t, "paycheck", txn.Description)
}

func TestTransactionRepository_UnknownStoredTypeIsNotInvalidArgument(t *testing.T) {
	mock := newMockPool(t)
	date := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows(transactionColumns).
			AddRow("txn-1", "acc-1", "", "Interest", "1.00", date, "1.00", "", date))

	_, err := NewTransactionRepository(mock).ListAllByAccount(context.Background(), "acc-1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestTransactionRepository_UpdateDetailsNotFound(t *testing.T) {
	mock := newMockPool(t)
	tx := beginTx(t, mock)

	mock.ExpectExec("UPDATE transactions").
		WithArgs("acc-1", "txn-9", "new", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := NewTransactionRepository(mock).UpdateDetails(context.Background(), tx, "acc-1", "txn-9", "new", time.Now())
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestTransactionRepository_ShiftResultingBalances(t *testing.T) {
	mock := newMockPool(t)
	tx := beginTx(t, mock)
	created := time.Now().UTC()

	mock.ExpectExec("SET resulting_balance = resulting_balance \\+ \\$4").
		WithArgs("acc-1", pgxmock.AnyArg(), "txn-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := NewTransactionRepository(mock).ShiftResultingBalances(context.Background(), tx, "acc-1",
		&domain.Transaction{ID: "txn-1", CreatedAt: created}, domain.MustMoney("-20"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestLedgerRepository_CheckConsistency(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery("total_account_balance").
		WillReturnRows(pgxmock.NewRows([]string{"total_account_balance", "expected_balance"}).
			AddRow("150.25", "150.25"))

	total, expected, err := NewLedgerRepository(mock).CheckConsistency(context.Background())
	require.NoError(t, err)
	assert.True(t, total.Equal(domain.MustMoney("150.25")))
	assert.True(t, expected.Equal(total))
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("user-1", "a@example.com", "A", "hash", true, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := NewUserRepository(mock).Create(context.Background(), &domain.User{
		ID:             "user-1",
		Email:          "a@example.com",
		Name:           "A",
		HashedPassword: "hash",
		Active:         true,
	})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestUserRepository_GetByEmailNotFound(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery("FROM users").
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	user, err := NewUserRepository(mock).GetByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Nil(t, user)
}

func TestAuditRepository_ListBuildsPlaceholders(t *testing.T) {
	mock := newMockPool(t)
	now := time.Now().UTC()

	mock.ExpectQuery("AND resource_type = \\$1 AND resource_id = \\$2 ORDER BY created_at DESC, id DESC LIMIT \\$3 OFFSET \\$4").
		WithArgs(domain.AuditResourceAccount, "acc-1", domain.MaxPageSize, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "action", "resource_type", "resource_id",
			"before_state", "after_state", "status", "error_message", "created_at",
		}).AddRow("audit-1", "user-1", "account.rename", "account", "acc-1",
			[]byte(`{"Name":"Old"}`), []byte(`{"Name":"New"}`), "success", "", now))

	logs, err := NewAuditRepository(mock).List(context.Background(), domain.AuditFilter{
		ResourceType: domain.AuditResourceAccount,
		ResourceID:   "acc-1",
		Limit:        domain.MaxPageSize,
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)

	assert.Equal(t, domain.AuditActionAccountRename, logs[0].Action)
	assert.Equal(t, "Old", logs[0].BeforeState["Name"])
	assert.Equal(t, "New", logs[0].AfterState["Name"])
	assertExpectations(t, mock)
}

func TestOutboxRepository_GetUnpublished(t *testing.T) {
	mock := newMockPool(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM outbox_events").
		WithArgs(int32(10)).
		WillReturnRows(pgxmock.NewRows(outboxColumns).AddRow("evt-1", "acc-1", "account", "account.opened", []byte(`{"balance":"0.00"}`), now, nil, false))

	events, err := NewOutboxRepository(mock).GetUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "account.opened", events[0].EventType)
	assert.Equal(t, "0.00", events[0].Payload["balance"])
	assert.Nil(t, events[0].PublishedAt)
}

func TestOutboxRepository_CreateWritesInsideTx(t *testing.T) {
	mock := newMockPool(t)
	now := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	tx := beginTx(t, mock)

	mock.ExpectQuery("INSERT INTO outbox_events").
		WithArgs("evt-1", "tr-1", "transfer", "transfer.completed", []byte(`{"amount":"50.00"}`), pgxmock.AnyArg(), false).
		WillReturnRows(pgxmock.NewRows(outboxColumns).
			AddRow("evt-1", "tr-1", "transfer", "transfer.completed", []byte(`{"amount":"50.00"}`), now, nil, false))

	err := NewOutboxRepository(mock).Create(context.Background(), tx, &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "tr-1",
		AggregateType: "transfer",
		EventType:     "transfer.completed",
		Payload:       map[string]any{"amount": "50.00"},
		CreatedAt:     now,
	})
	require.NoError(t, err)
	assertExpectations(t, mock)
}

func TestOutboxRepository_CreateRejectsUnencodablePayload(t *testing.T) {
	mock := newMockPool(t)
	tx := beginTx(t, mock)

	err := NewOutboxRepository(mock).Create(context.Background(), tx, &domain.OutboxEvent{
		ID:        "evt-1",
		EventType: "account.opened",
		Payload:   map[string]any{"bad": make(chan int)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode account.opened payload")
	assertExpectations(t, mock)
}

func TestOutboxRepository_GetUnpublishedDefaultsBatchAndToleratesBadPayload(t *testing.T) {
	mock := newMockPool(t)
	now := time.Now().UTC()
	published := now.Add(-time.Minute)

	mock.ExpectQuery("FROM outbox_events").
		WithArgs(int32(domain.DefaultPageSize)).
		WillReturnRows(pgxmock.NewRows(outboxColumns).
			AddRow("evt-1", "acc-1", "account", "account.opened", []byte(`not json`), now, published, true))

	events, err := NewOutboxRepository(mock).GetUnpublished(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Nil(t, events[0].Payload)
	require.NotNil(t, events[0].PublishedAt)
	assert.True(t, events[0].PublishedAt.Equal(published))
	assertExpectations(t, mock)
}

func TestOutboxRepository_PublishErrorsNameTheEvent(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOutboxRepository(mock)

	mock.ExpectExec("UPDATE outbox_events").
		WithArgs("evt-9", pgxmock.AnyArg()).
		WillReturnError(errors.New("conn reset"))
	err := repo.MarkPublished(context.Background(), "evt-9", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evt-9")

	mock.ExpectExec("DELETE FROM outbox_events").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	require.NoError(t, repo.DeletePublished(context.Background(), time.Now().Add(-24*time.Hour)))

	assertExpectations(t, mock)
}

func TestTransactionRepository_ListByAccountClampsOffset(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery("FROM transactions").
		WithArgs("acc-1", int32(domain.MaxPageSize), int32(domain.MaxPageOffset)).
		WillReturnRows(pgxmock.NewRows(transactionColumns))

	transactions, err := NewTransactionRepository(mock).ListByAccount(context.Background(), "acc-1", 5000, 3000000000)
	require.NoError(t, err)
	assert.Empty(t, transactions)

	assertExpectations(t, mock)
}
