package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/metrics"
)

// TransactionUseCase records, edits and removes deposits and withdrawals
// while keeping the running balance consistent with the history.
type TransactionUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txRepo      TransactionRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		logger:      logger.With().Str("component", "transaction_usecase").Logger(),
		metrics:     metrics,
	}
}

// AddTransactionInput represents input for recording a deposit or withdrawal.
type AddTransactionInput struct {
	AccountID    string
	CallerUserID string
	Type         domain.TransactionType
	Description  string
	Amount       domain.Money
	Date         time.Time
}

// TransactionResult pairs a transaction with the account state it produced.
type TransactionResult struct {
	Transaction *domain.Transaction
	Account     *domain.Account
}

// AddTransaction records a deposit or withdrawal and updates the balance.
func (uc *TransactionUseCase) AddTransaction(ctx context.Context, input AddTransactionInput) (*TransactionResult, error) {
	const op = "add transaction"

	if !input.Type.IsValid() {
		return nil, domain.ErrUnknownTransactionType
	}

	if input.Type.IsTransferLeg() {
		return nil, domain.ErrTransferLegNotAllowed
	}

	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := lockOwnedAccount(txCtx, uc.accountRepo, tx, input.AccountID, input.CallerUserID)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}

	now := time.Now().UTC()

	date := input.Date
	if date.IsZero() {
		date = now
	}

	transaction, err := domain.RecordTransaction(account, domain.NewTransactionInput{
		ID:          uc.idGen.Generate(),
		Type:        input.Type,
		Amount:      input.Amount,
		Date:        date,
		Description: input.Description,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	if err := uc.txRepo.Create(txCtx, tx, transaction); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if err := uc.accountRepo.UpdateBalance(txCtx, tx, account.ID, account.Balance, now); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	event := domain.NewAccountEvent(uc.idGen.Generate(), domain.EventTypeTransactionAdded, account.ID, domain.TransactionEventFrom(transaction, account), now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsRecorded.WithLabelValues(transaction.Type.String()).Inc()
	}

	return &TransactionResult{Transaction: transaction, Account: account}, nil
}

// GetAccountTransactionsInput represents input for listing transactions.
type GetAccountTransactionsInput struct {
	AccountID    string
	CallerUserID string
	Offset       int
	Limit        int
}

// GetAccountTransactions returns a page of the account's transactions in ledger order.
func (uc *TransactionUseCase) GetAccountTransactions(ctx context.Context, input GetAccountTransactionsInput) ([]*domain.Transaction, error) {
	const op = "get account transactions"

	if _, err := uc.ownedAccount(ctx, input.AccountID, input.CallerUserID); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	limit, offset := domain.NormalizePagination(input.Limit, input.Offset)

	transactions, err := uc.txRepo.ListByAccount(ctx, input.AccountID, limit, offset)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if transactions == nil {
		transactions = []*domain.Transaction{}
	}

	return transactions, nil
}

// EditTransactionInput represents input for editing a transaction.
// A zero Date keeps the stored date.
type EditTransactionInput struct {
	AccountID     string
	CallerUserID  string
	TransactionID string
	Description   string
	Date          time.Time
}

// EditTransaction changes the description and date of a deposit or withdrawal.
// Type, amount and every balance stay as they are.
func (uc *TransactionUseCase) EditTransaction(ctx context.Context, input EditTransactionInput) (*domain.Transaction, error) {
	const op = "edit transaction"

	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := lockOwnedAccount(txCtx, uc.accountRepo, tx, input.AccountID, input.CallerUserID)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}

	original, err := uc.txRepo.GetByID(txCtx, tx, account.ID, input.TransactionID)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}

	date := input.Date
	if date.IsZero() {
		date = original.Date
	}

	edited, err := original.WithDetails(input.Description, date)
	if err != nil {
		return nil, err
	}

	if err := uc.txRepo.UpdateDetails(txCtx, tx, account.ID, edited.ID, edited.Description, edited.Date); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	now := time.Now().UTC()

	if err := writeAudit(txCtx, uc.auditRepo, uc.idGen, tx, &domain.AuditLog{
		UserID:       input.CallerUserID,
		Action:       domain.AuditActionTransactionEdit,
		ResourceType: domain.AuditResourceTransaction,
		ResourceID:   edited.ID,
		BeforeState:  domain.MarshalState(original),
		AfterState:   domain.MarshalState(edited),
		CreatedAt:    now,
	}); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	event := domain.NewAccountEvent(uc.idGen.Generate(), domain.EventTypeTransactionEdited, account.ID, domain.TransactionEventFrom(edited, account), now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsEdited.Inc()
		uc.metrics.AuditLogsCreated.WithLabelValues(string(domain.AuditActionTransactionEdit), string(domain.AuditStatusSuccess)).Inc()
	}

	return edited, nil
}

// DeleteTransactionInput represents input for deleting a transaction.
type DeleteTransactionInput struct {
	AccountID     string
	CallerUserID  string
	TransactionID string
}

// DeleteTransaction reverts a deposit or withdrawal, removes it, and shifts
// the resulting balance of every later transaction on the account.
// The returned transaction carries the post-reversal balance.
func (uc *TransactionUseCase) DeleteTransaction(ctx context.Context, input DeleteTransactionInput) (*domain.Transaction, error) {
	const op = "delete transaction"

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := lockOwnedAccount(txCtx, uc.accountRepo, tx, input.AccountID, input.CallerUserID)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}

	transaction, err := uc.txRepo.GetByID(txCtx, tx, account.ID, input.TransactionID)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if transaction.Type.IsTransferLeg() {
		return nil, domain.ErrTransferLegImmutable
	}

	before := domain.MarshalState(transaction)

	effect, err := transaction.Type.SignedAmount(transaction.Amount)
	if err != nil {
		return nil, err
	}

	if err := account.Revert(transaction.Type, transaction.Amount); err != nil {
		return nil, err
	}

	removed, err := uc.txRepo.Delete(txCtx, tx, account.ID, transaction.ID)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}
	if !removed {
		return nil, failure(uc.logger, op, domain.ErrTransactionNotRemoved)
	}

	shifted, err := uc.txRepo.ShiftResultingBalances(txCtx, tx, account.ID, transaction, effect.Neg())
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}

	now := time.Now().UTC()
	account.UpdatedAt = now

	if err := uc.accountRepo.UpdateBalance(txCtx, tx, account.ID, account.Balance, now); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	transaction.ResultingBalance = account.Balance

	if err := writeAudit(txCtx, uc.auditRepo, uc.idGen, tx, &domain.AuditLog{
		UserID:       input.CallerUserID,
		Action:       domain.AuditActionTransactionDelete,
		ResourceType: domain.AuditResourceTransaction,
		ResourceID:   transaction.ID,
		BeforeState:  before,
		CreatedAt:    now,
	}); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	event := domain.NewAccountEvent(uc.idGen.Generate(), domain.EventTypeTransactionDeleted, account.ID, domain.TransactionEventFrom(transaction, account), now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsDeleted.Inc()
		uc.metrics.SnapshotsShifted.Observe(float64(shifted))
		uc.metrics.AuditLogsCreated.WithLabelValues(string(domain.AuditActionTransactionDelete), string(domain.AuditStatusSuccess)).Inc()
	}

	uc.logger.Info().
		Str("account_id", account.ID).
		Str("transaction_id", transaction.ID).
		Int64("shifted", shifted).
		Msg("transaction deleted")

	return transaction, nil
}

// TransactionSumsInput represents input for summing a date range.
// Both bounds are inclusive.
type TransactionSumsInput struct {
	AccountID    string
	CallerUserID string
	Start        time.Time
	End          time.Time
}

// GetTransactionSumsFromRange totals the account's transactions per type over a date range.
func (uc *TransactionUseCase) GetTransactionSumsFromRange(ctx context.Context, input TransactionSumsInput) (domain.TransactionSums, error) {
	const op = "get transaction sums"

	if err := domain.ValidateDateRange(input.Start, input.End); err != nil {
		return domain.TransactionSums{}, err
	}

	if _, err := uc.ownedAccount(ctx, input.AccountID, input.CallerUserID); err != nil {
		return domain.TransactionSums{}, failure(uc.logger, op, err)
	}

	transactions, err := uc.txRepo.ListByDateRange(ctx, input.AccountID, input.Start, input.End)
	if err != nil {
		return domain.TransactionSums{}, failure(uc.logger, op, err)
	}

	return domain.SumByType(transactions), nil
}

func (uc *TransactionUseCase) ownedAccount(ctx context.Context, accountID, callerUserID string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !account.OwnedBy(callerUserID) {
		return nil, domain.ErrAccountNotFound
	}

	return account, nil
}
