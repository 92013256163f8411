package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/postgres/generated"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{
		queries: generated.New(db),
	}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Tx, account *domain.Account) error {
	_, err := queriesFor(tx).CreateAccount(ctx, generated.CreateAccountParams{
		ID:             account.ID,
		OwnerID:        account.OwnerID,
		Name:           account.Name,
		Balance:        moneyToNumeric(account.Balance),
		OpeningBalance: moneyToNumeric(account.OpeningBalance),
		CreatedAt:      timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(account.UpdatedAt),
	})

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Account, error) {
	row, err := queriesFor(tx).GetAccountByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// GetByIDsForUpdate retrieves multiple accounts by IDs with FOR UPDATE locks taken in id order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Tx, ids []string) ([]*domain.Account, error) {
	rows, err := queriesFor(tx).GetAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}

	return rowsToAccounts(rows), nil
}

// ListByOwner lists every account of a user in creation order.
func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccountsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return rowsToAccounts(rows), nil
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	pageLimit, pageOffset := pageArgs(limit, offset)
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  pageLimit,
		Offset: pageOffset,
	})
	if err != nil {
		return nil, err
	}

	return rowsToAccounts(rows), nil
}

// UpdateName updates the display name of an account.
func (r *AccountRepository) UpdateName(ctx context.Context, tx usecase.Tx, id, name string, updatedAt time.Time) error {
	return queriesFor(tx).UpdateAccountName(ctx, generated.UpdateAccountNameParams{
		ID:        id,
		Name:      name,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
}

// UpdateBalance updates the balance of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Tx, id string, balance domain.Money, updatedAt time.Time) error {
	return queriesFor(tx).UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:        id,
		Balance:   moneyToNumeric(balance),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
}

// Delete removes an account row.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Tx, id string) (bool, error) {
	n, err := queriesFor(tx).DeleteAccount(ctx, id)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:             row.ID,
		OwnerID:        row.OwnerID,
		Name:           row.Name,
		Balance:        numericToMoney(row.Balance),
		OpeningBalance: numericToMoney(row.OpeningBalance),
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}

func rowsToAccounts(rows []generated.Account) []*domain.Account {
	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts
}

// Type conversion helpers.
func moneyToNumeric(m domain.Money) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(m.Decimal().String())

	return n
}

func numericToMoney(n pgtype.Numeric) domain.Money {
	if !n.Valid || n.Int == nil {
		return domain.Zero
	}

	return domain.NewMoney(decimal.NewFromBigInt(n.Int, n.Exp))
}

// pageArgs clamps page parameters into the int4 range of the generated queries.
func pageArgs(limit, offset int) (int32, int32) {
	limit, offset = domain.NormalizePagination(limit, offset)
	return int32(limit), int32(offset)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

var _ usecase.AccountRepository = (*AccountRepository)(nil)
