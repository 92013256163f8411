package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txRepo      TransactionRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	credentials CredentialVerifier
	idGen       IDGenerator
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	credentials CredentialVerifier,
	idGen IDGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		credentials: credentials,
		idGen:       idGen,
		logger:      logger.With().Str("component", "account_usecase").Logger(),
		metrics:     metrics,
	}
}

// GetAccount returns the account if the caller owns it.
// Accounts owned by someone else are reported as not found.
func (uc *AccountUseCase) GetAccount(ctx context.Context, accountID, callerUserID string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, failure(uc.logger, "get account", err)
	}

	if !account.OwnedBy(callerUserID) {
		return nil, domain.ErrAccountNotFound
	}

	return account, nil
}

// ListAccounts returns every account of the caller in creation order.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, callerUserID string) ([]*domain.Account, error) {
	accounts, err := uc.accountRepo.ListByOwner(ctx, callerUserID)
	if err != nil {
		return nil, failure(uc.logger, "list accounts", err)
	}

	if accounts == nil {
		accounts = []*domain.Account{}
	}

	return accounts, nil
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	OwnerID        string
	Name           string
	InitialBalance domain.Money
}

// OpenAccount creates a new account holding the initial balance.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	const op = "open account"

	now := time.Now().UTC()

	account, err := domain.NewAccount(uc.idGen.Generate(), input.OwnerID, input.Name, input.InitialBalance, now)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.accountRepo.Create(txCtx, tx, account); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	event := domain.NewAccountEvent(uc.idGen.Generate(), domain.EventTypeAccountOpened, account.ID, domain.AccountEventFrom(account), now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if uc.metrics != nil {
		uc.metrics.AccountsOpened.Inc()
	}

	return account, nil
}

// CloseAccountInput represents input for closing an account.
type CloseAccountInput struct {
	AccountID    string
	CallerUserID string
	Credentials  domain.Credentials
}

// CloseAccount re-verifies the caller's credentials and removes an account
// whose balance is exactly zero, together with its transactions.
func (uc *AccountUseCase) CloseAccount(ctx context.Context, input CloseAccountInput) (*domain.Account, error) {
	const op = "close account"

	if err := uc.credentials.VerifyCredentials(ctx, input.CallerUserID, input.Credentials); err != nil {
		uc.auditRejectedClose(ctx, input, err)
		return nil, failure(uc.logger, op, err)
	}

	account, err := uc.closeVerified(ctx, input)
	if err != nil {
		uc.auditRejectedClose(ctx, input, err)
		return nil, failure(uc.logger, op, err)
	}

	if uc.metrics != nil {
		uc.metrics.AccountsClosed.Inc()
		uc.metrics.AuditLogsCreated.WithLabelValues(string(domain.AuditActionAccountClose), string(domain.AuditStatusSuccess)).Inc()
	}

	uc.logger.Info().Str("account_id", account.ID).Str("user_id", input.CallerUserID).Msg("account closed")

	return account, nil
}

// auditRejectedClose records close attempts refused for bad credentials or a
// non-zero balance. Other failures are not audited.
func (uc *AccountUseCase) auditRejectedClose(ctx context.Context, input CloseAccountInput, cause error) {
	kind := domain.KindOf(cause)
	if kind != domain.ErrUnauthorized && kind != domain.ErrPreconditionFailed {
		return
	}

	writeFailedAudit(ctx, uc.auditRepo, uc.idGen, uc.logger, uc.metrics, &domain.AuditLog{
		UserID:       input.CallerUserID,
		Action:       domain.AuditActionAccountClose,
		ResourceType: domain.AuditResourceAccount,
		ResourceID:   input.AccountID,
		CreatedAt:    time.Now().UTC(),
	}, cause)
}

// closeVerified deletes the account in one DB transaction. The transaction is
// finished when it returns.
func (uc *AccountUseCase) closeVerified(ctx context.Context, input CloseAccountInput) (*domain.Account, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := lockOwnedAccount(txCtx, uc.accountRepo, tx, input.AccountID, input.CallerUserID)
	if err != nil {
		return nil, err
	}

	if !account.Balance.IsZero() {
		return nil, domain.ErrNonZeroBalance
	}

	if err := uc.txRepo.DeleteByAccount(txCtx, tx, account.ID); err != nil {
		return nil, err
	}

	removed, err := uc.accountRepo.Delete(txCtx, tx, account.ID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, domain.ErrAccountNotRemoved
	}

	now := time.Now().UTC()

	if err := writeAudit(txCtx, uc.auditRepo, uc.idGen, tx, &domain.AuditLog{
		UserID:       input.CallerUserID,
		Action:       domain.AuditActionAccountClose,
		ResourceType: domain.AuditResourceAccount,
		ResourceID:   account.ID,
		BeforeState:  domain.MarshalState(account),
		CreatedAt:    now,
	}); err != nil {
		return nil, err
	}

	event := domain.NewAccountEvent(uc.idGen.Generate(), domain.EventTypeAccountClosed, account.ID, domain.AccountEventFrom(account), now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return account, nil
}

// ChangeAccountNameInput represents input for renaming an account.
type ChangeAccountNameInput struct {
	AccountID    string
	CallerUserID string
	Name         string
}

// ChangeAccountName replaces the display name. The balance is untouched.
func (uc *AccountUseCase) ChangeAccountName(ctx context.Context, input ChangeAccountNameInput) (*domain.Account, error) {
	const op = "change account name"

	if err := domain.ValidateAccountName(input.Name); err != nil {
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

	before := domain.MarshalState(account)

	if err := account.ChangeName(input.Name); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account.UpdatedAt = now

	if err := uc.accountRepo.UpdateName(txCtx, tx, account.ID, account.Name, now); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if err := writeAudit(txCtx, uc.auditRepo, uc.idGen, tx, &domain.AuditLog{
		UserID:       input.CallerUserID,
		Action:       domain.AuditActionAccountRename,
		ResourceType: domain.AuditResourceAccount,
		ResourceID:   account.ID,
		BeforeState:  before,
		AfterState:   domain.MarshalState(account),
		CreatedAt:    now,
	}); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	event := domain.NewAccountEvent(uc.idGen.Generate(), domain.EventTypeAccountRenamed, account.ID, domain.AccountEventFrom(account), now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if uc.metrics != nil {
		uc.metrics.AccountOperations.WithLabelValues("rename").Inc()
	}

	return account, nil
}

// lockOwnedAccount locks the account row for the rest of tx. Accounts owned
// by someone else are reported as not found.
func lockOwnedAccount(ctx context.Context, repo AccountRepository, tx Tx, accountID, callerUserID string) (*domain.Account, error) {
	account, err := repo.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	if !account.OwnedBy(callerUserID) {
		return nil, domain.ErrAccountNotFound
	}

	return account, nil
}
