package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/postgres/generated"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{
		queries: generated.New(db),
	}
}

// Create creates a new transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Tx, t *domain.Transaction) error {
	_, err := queriesFor(tx).CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:               t.ID,
		AccountID:        t.AccountID,
		TransferID:       t.TransferID,
		Type:             t.Type.String(),
		Amount:           moneyToNumeric(t.Amount),
		TransactionDate:  timeToPgTimestamptz(t.Date),
		ResultingBalance: moneyToNumeric(t.ResultingBalance),
		Description:      t.Description,
		CreatedAt:        timeToPgTimestamptz(t.CreatedAt),
	})

	return err
}

// GetByID retrieves a transaction of an account inside tx.
func (r *TransactionRepository) GetByID(ctx context.Context, tx usecase.Tx, accountID, id string) (*domain.Transaction, error) {
	row, err := queriesFor(tx).GetTransactionByID(ctx, generated.GetTransactionByIDParams{
		AccountID: accountID,
		ID:        id,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToTransaction(row)
}

// ListByAccount retrieves a page of an account's transactions in ledger order.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	pageLimit, pageOffset := pageArgs(limit, offset)
	rows, err := r.queries.ListTransactionsByAccount(ctx, generated.ListTransactionsByAccountParams{
		AccountID: accountID,
		Limit:     pageLimit,
		Offset:    pageOffset,
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows)
}

// ListAllByAccount retrieves every transaction of an account in ledger order.
func (r *TransactionRepository) ListAllByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListAllTransactionsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows)
}

// ListByDateRange retrieves transactions dated within [start, end].
func (r *TransactionRepository) ListByDateRange(ctx context.Context, accountID string, start, end time.Time) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactionsByDateRange(ctx, generated.ListTransactionsByDateRangeParams{
		AccountID: accountID,
		Start:     timeToPgTimestamptz(start),
		End:       timeToPgTimestamptz(end),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows)
}

// ListByTransferID retrieves both legs of a transfer.
func (r *TransactionRepository) ListByTransferID(ctx context.Context, transferID string) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactionsByTransferID(ctx, transferID)
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows)
}

// UpdateDetails updates the description and date of a transaction.
func (r *TransactionRepository) UpdateDetails(ctx context.Context, tx usecase.Tx, accountID, id, description string, date time.Time) error {
	n, err := queriesFor(tx).UpdateTransactionDetails(ctx, generated.UpdateTransactionDetailsParams{
		AccountID:       accountID,
		ID:              id,
		Description:     description,
		TransactionDate: timeToPgTimestamptz(date),
	})
	if err != nil {
		return err
	}

	if n == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// Delete removes a transaction row.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Tx, accountID, id string) (bool, error) {
	n, err := queriesFor(tx).DeleteTransaction(ctx, generated.DeleteTransactionParams{
		AccountID: accountID,
		ID:        id,
	})
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// ShiftResultingBalances adds delta to the snapshot of every later transaction on the account.
func (r *TransactionRepository) ShiftResultingBalances(ctx context.Context, tx usecase.Tx, accountID string, after *domain.Transaction, delta domain.Money) (int64, error) {
	return queriesFor(tx).ShiftResultingBalances(ctx, generated.ShiftResultingBalancesParams{
		AccountID: accountID,
		CreatedAt: timeToPgTimestamptz(after.CreatedAt),
		ID:        after.ID,
		Delta:     moneyToNumeric(delta),
	})
}

// DeleteByAccount removes every transaction of an account.
func (r *TransactionRepository) DeleteByAccount(ctx context.Context, tx usecase.Tx, accountID string) error {
	return queriesFor(tx).DeleteTransactionsByAccount(ctx, accountID)
}

func rowToTransaction(row generated.Transaction) (*domain.Transaction, error) {
	typ := domain.TransactionType(row.Type)
	if !typ.IsValid() {
		return nil, fmt.Errorf("transaction %s has unknown stored type %q", row.ID, row.Type)
	}

	return &domain.Transaction{
		ID:               row.ID,
		AccountID:        row.AccountID,
		TransferID:       row.TransferID,
		Type:             typ,
		Amount:           numericToMoney(row.Amount),
		Date:             row.TransactionDate.Time,
		ResultingBalance: numericToMoney(row.ResultingBalance),
		Description:      row.Description,
		CreatedAt:        row.CreatedAt.Time,
	}, nil
}

func rowsToTransactions(rows []generated.Transaction) ([]*domain.Transaction, error) {
	transactions := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := rowToTransaction(row)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	return transactions, nil
}

var _ usecase.TransactionRepository = (*TransactionRepository)(nil)
