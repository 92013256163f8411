package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (id, account_id, transfer_id, type, amount, transaction_date, resulting_balance, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, account_id, transfer_id, type, amount, transaction_date, resulting_balance, description, created_at
`

type CreateTransactionParams struct {
	ID               string             `json:"id"`
	AccountID        string             `json:"account_id"`
	TransferID       string             `json:"transfer_id"`
	Type             string             `json:"type"`
	Amount           pgtype.Numeric     `json:"amount"`
	TransactionDate  pgtype.Timestamptz `json:"transaction_date"`
	ResultingBalance pgtype.Numeric     `json:"resulting_balance"`
	Description      string             `json:"description"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, createTransaction,
		arg.ID,
		arg.AccountID,
		arg.TransferID,
		arg.Type,
		arg.Amount,
		arg.TransactionDate,
		arg.ResultingBalance,
		arg.Description,
		arg.CreatedAt,
	)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.TransferID,
		&i.Type,
		&i.Amount,
		&i.TransactionDate,
		&i.ResultingBalance,
		&i.Description,
		&i.CreatedAt,
	)
	return i, err
}

const deleteTransaction = `-- name: DeleteTransaction :execrows
DELETE FROM transactions WHERE account_id = $1 AND id = $2
`

type DeleteTransactionParams struct {
	AccountID string `json:"account_id"`
	ID        string `json:"id"`
}

func (q *Queries) DeleteTransaction(ctx context.Context, arg DeleteTransactionParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteTransaction, arg.AccountID, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteTransactionsByAccount = `-- name: DeleteTransactionsByAccount :exec
DELETE FROM transactions WHERE account_id = $1
`

func (q *Queries) DeleteTransactionsByAccount(ctx context.Context, accountID string) error {
	_, err := q.db.Exec(ctx, deleteTransactionsByAccount, accountID)
	return err
}

const getTransactionByID = `-- name: GetTransactionByID :one
SELECT id, account_id, transfer_id, type, amount, transaction_date, resulting_balance, description, created_at FROM transactions
WHERE account_id = $1 AND id = $2
`

type GetTransactionByIDParams struct {
	AccountID string `json:"account_id"`
	ID        string `json:"id"`
}

func (q *Queries) GetTransactionByID(ctx context.Context, arg GetTransactionByIDParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, getTransactionByID, arg.AccountID, arg.ID)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.TransferID,
		&i.Type,
		&i.Amount,
		&i.TransactionDate,
		&i.ResultingBalance,
		&i.Description,
		&i.CreatedAt,
	)
	return i, err
}

const listAllTransactionsByAccount = `-- name: ListAllTransactionsByAccount :many
SELECT id, account_id, transfer_id, type, amount, transaction_date, resulting_balance, description, created_at FROM transactions
WHERE account_id = $1
ORDER BY created_at, id
`

func (q *Queries) ListAllTransactionsByAccount(ctx context.Context, accountID string) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listAllTransactionsByAccount, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

const listTransactionsByAccount = `-- name: ListTransactionsByAccount :many
SELECT id, account_id, transfer_id, type, amount, transaction_date, resulting_balance, description, created_at FROM transactions
WHERE account_id = $1
ORDER BY created_at, id
LIMIT $2 OFFSET $3
`

type ListTransactionsByAccountParams struct {
	AccountID string `json:"account_id"`
	Limit     int32  `json:"limit"`
	Offset    int32  `json:"offset"`
}

func (q *Queries) ListTransactionsByAccount(ctx context.Context, arg ListTransactionsByAccountParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactionsByAccount, arg.AccountID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

const listTransactionsByDateRange = `-- name: ListTransactionsByDateRange :many
SELECT id, account_id, transfer_id, type, amount, transaction_date, resulting_balance, description, created_at FROM transactions
WHERE account_id = $1 AND transaction_date >= $2 AND transaction_date <= $3
ORDER BY created_at, id
`

type ListTransactionsByDateRangeParams struct {
	AccountID string             `json:"account_id"`
	Start     pgtype.Timestamptz `json:"start"`
	End       pgtype.Timestamptz `json:"end"`
}

func (q *Queries) ListTransactionsByDateRange(ctx context.Context, arg ListTransactionsByDateRangeParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactionsByDateRange, arg.AccountID, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

const listTransactionsByTransferID = `-- name: ListTransactionsByTransferID :many
SELECT id, account_id, transfer_id, type, amount, transaction_date, resulting_balance, description, created_at FROM transactions
WHERE transfer_id = $1
ORDER BY created_at, id
`

func (q *Queries) ListTransactionsByTransferID(ctx context.Context, transferID string) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactionsByTransferID, transferID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

const shiftResultingBalances = `-- name: ShiftResultingBalances :execrows
UPDATE transactions
SET resulting_balance = resulting_balance + $4
WHERE account_id = $1 AND (created_at, id) > ($2, $3)
`

type ShiftResultingBalancesParams struct {
	AccountID string             `json:"account_id"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	ID        string             `json:"id"`
	Delta     pgtype.Numeric     `json:"delta"`
}

func (q *Queries) ShiftResultingBalances(ctx context.Context, arg ShiftResultingBalancesParams) (int64, error) {
	result, err := q.db.Exec(ctx, shiftResultingBalances,
		arg.AccountID,
		arg.CreatedAt,
		arg.ID,
		arg.Delta,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const updateTransactionDetails = `-- name: UpdateTransactionDetails :execrows
UPDATE transactions
SET description = $3, transaction_date = $4
WHERE account_id = $1 AND id = $2
`

type UpdateTransactionDetailsParams struct {
	AccountID       string             `json:"account_id"`
	ID              string             `json:"id"`
	Description     string             `json:"description"`
	TransactionDate pgtype.Timestamptz `json:"transaction_date"`
}

func (q *Queries) UpdateTransactionDetails(ctx context.Context, arg UpdateTransactionDetailsParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateTransactionDetails,
		arg.AccountID,
		arg.ID,
		arg.Description,
		arg.TransactionDate,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func scanTransactions(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]Transaction, error) {
	items := []Transaction{}
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.TransferID,
			&i.Type,
			&i.Amount,
			&i.TransactionDate,
			&i.ResultingBalance,
			&i.Description,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
