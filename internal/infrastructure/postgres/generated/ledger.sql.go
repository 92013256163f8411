package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const checkLedgerConsistency = `-- name: CheckLedgerConsistency :one
SELECT
    (SELECT COALESCE(SUM(balance), 0) FROM accounts)::numeric AS total_account_balance,
    ((SELECT COALESCE(SUM(opening_balance), 0) FROM accounts)
        + (SELECT COALESCE(SUM(CASE WHEN type IN ('Deposit', 'TransferIn') THEN amount ELSE -amount END), 0) FROM transactions))::numeric AS expected_balance
`

type CheckLedgerConsistencyRow struct {
	TotalAccountBalance pgtype.Numeric `json:"total_account_balance"`
	ExpectedBalance     pgtype.Numeric `json:"expected_balance"`
}

func (q *Queries) CheckLedgerConsistency(ctx context.Context) (CheckLedgerConsistencyRow, error) {
	row := q.db.QueryRow(ctx, checkLedgerConsistency)
	var i CheckLedgerConsistencyRow
	err := row.Scan(&i.TotalAccountBalance, &i.ExpectedBalance)
	return i, err
}
