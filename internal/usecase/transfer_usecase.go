package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/metrics"
)

// TransferUseCase handles transfer business logic.
type TransferUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txRepo      TransactionRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		logger:      logger.With().Str("component", "transfer_usecase").Logger(),
		metrics:     metrics,
	}
}

// TransferInput represents input for moving funds between two accounts of the caller.
type TransferInput struct {
	SourceAccountID      string
	DestinationAccountID string
	CallerUserID         string
	Amount               domain.Money
	Date                 time.Time
	Description          string
}

// TransferToAccount moves funds between two accounts of the same owner.
// Both legs and both balances are written in one database transaction.
func (uc *TransferUseCase) TransferToAccount(ctx context.Context, input TransferInput) (*domain.Transfer, error) {
	start := time.Now()

	transfer, err := uc.transfer(ctx, input)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.TransferErrors.WithLabelValues(errorType(err)).Inc()
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransfersCreated.Inc()
		uc.metrics.TransferDuration.Observe(time.Since(start).Seconds())
		uc.metrics.TransferAmount.Observe(transfer.Amount.Decimal().InexactFloat64())
	}

	return transfer, nil
}

func (uc *TransferUseCase) transfer(ctx context.Context, input TransferInput) (*domain.Transfer, error) {
	const op = "transfer to account"

	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	transfer := &domain.Transfer{
		FromAccountID: input.SourceAccountID,
		ToAccountID:   input.DestinationAccountID,
		Amount:        input.Amount,
		Date:          date,
		Description:   input.Description,
	}

	// Validate before starting transaction
	if err := transfer.Validate(); err != nil {
		return nil, err
	}

	// Sorted lock order prevents deadlocks between opposite transfers
	accountIDs := []string{transfer.FromAccountID, transfer.ToAccountID}
	sort.Strings(accountIDs)

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	accounts, err := uc.accountRepo.GetByIDsForUpdate(txCtx, tx, accountIDs)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if len(accounts) != len(accountIDs) {
		return nil, domain.ErrAccountNotFound
	}

	accountMap := buildAccountMap(accounts)
	source := accountMap[transfer.FromAccountID]
	destination := accountMap[transfer.ToAccountID]

	if source == nil || destination == nil || !source.OwnedBy(input.CallerUserID) {
		return nil, domain.ErrAccountNotFound
	}

	if source.OwnerID != destination.OwnerID {
		return nil, domain.ErrOwnerMismatch
	}

	// Stamped under the row locks so ledger order matches commit order.
	now := time.Now().UTC()
	transfer.ID = uc.idGen.Generate()

	out, err := domain.RecordTransaction(source, domain.NewTransactionInput{
		ID:          uc.idGen.Generate(),
		TransferID:  transfer.ID,
		Type:        domain.TransactionTypeTransferOut,
		Amount:      transfer.Amount,
		Date:        transfer.Date,
		Description: transfer.Description,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	in, err := domain.RecordTransaction(destination, domain.NewTransactionInput{
		ID:          uc.idGen.Generate(),
		TransferID:  transfer.ID,
		Type:        domain.TransactionTypeTransferIn,
		Amount:      transfer.Amount,
		Date:        transfer.Date,
		Description: transfer.Description,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	for _, leg := range []struct {
		account     *domain.Account
		transaction *domain.Transaction
	}{
		{source, out},
		{destination, in},
	} {
		if err := uc.txRepo.Create(txCtx, tx, leg.transaction); err != nil {
			return nil, failure(uc.logger, op, err)
		}

		if err := uc.accountRepo.UpdateBalance(txCtx, tx, leg.account.ID, leg.account.Balance, now); err != nil {
			return nil, failure(uc.logger, op, err)
		}
	}

	transfer.Out = out
	transfer.In = in

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   transfer.ID,
		AggregateType: domain.AggregateTypeTransfer,
		EventType:     domain.EventTypeTransferCompleted,
		Payload: domain.MarshalState(domain.TransferCompletedEvent{
			TransferID:       transfer.ID,
			FromAccountID:    source.ID,
			ToAccountID:      destination.ID,
			OutTransactionID: out.ID,
			InTransactionID:  in.ID,
			Amount:           transfer.Amount.String(),
			Date:             transfer.Date.Format(time.DateOnly),
		}),
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	return transfer, nil
}

// GetTransfer rebuilds a transfer from its two legs. The caller must own
// at least one of the accounts involved.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, transferID, callerUserID string) (*domain.Transfer, error) {
	const op = "get transfer"

	legs, err := uc.txRepo.ListByTransferID(ctx, transferID)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}

	if len(legs) == 0 {
		return nil, domain.ErrTransferNotFound
	}

	transfer, err := domain.TransferFromLegs(legs)
	if err != nil {
		return nil, err
	}

	for _, accountID := range []string{transfer.FromAccountID, transfer.ToAccountID} {
		account, err := uc.accountRepo.GetByID(ctx, accountID)
		if err != nil {
			if domain.KindOf(err) == domain.ErrNotFound {
				continue
			}
			return nil, failure(uc.logger, op, err)
		}

		if account.OwnedBy(callerUserID) {
			return transfer, nil
		}
	}

	return nil, domain.ErrTransferNotFound
}

func buildAccountMap(accounts []*domain.Account) map[string]*domain.Account {
	m := make(map[string]*domain.Account)
	for _, a := range accounts {
		m[a.ID] = a
	}

	return m
}
