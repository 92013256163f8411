package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

func TestAccountFromDomain(t *testing.T) {
	now := time.Now()
	account := &domain.Account{
		ID:             "acc-1",
		OwnerID:        "user-1",
		Name:           "Main",
		Balance:        domain.MustMoney("123.4"),
		OpeningBalance: domain.MustMoney("10"),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	resp := AccountFromDomain(account)
	assert.Equal(t, "acc-1", resp.ID)
	assert.Equal(t, "123.40", resp.Balance)
	assert.Equal(t, "10.00", resp.OpeningBalance)

	list := AccountsFromDomain([]*domain.Account{account})
	require.Len(t, list, 1)
	assert.Equal(t, account.ID, list[0].ID)
}

func TestTransferFromDomain_LegOrder(t *testing.T) {
	out := &domain.Transaction{ID: "tx-out", AccountID: "a", TransferID: "tr-1", Type: domain.TransactionTypeTransferOut, Amount: domain.MustMoney("5")}
	in := &domain.Transaction{ID: "tx-in", AccountID: "b", TransferID: "tr-1", Type: domain.TransactionTypeTransferIn, Amount: domain.MustMoney("5")}

	resp := TransferFromDomain(&domain.Transfer{
		ID:            "tr-1",
		FromAccountID: "a",
		ToAccountID:   "b",
		Amount:        domain.MustMoney("5"),
		Out:           out,
		In:            in,
	})

	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, "tx-out", resp.Transactions[0].ID)
	assert.Equal(t, "tx-in", resp.Transactions[1].ID)
	assert.Equal(t, "5.00", resp.Amount)
}

func TestTransactionResponse_JSONFieldNames(t *testing.T) {
	resp := TransactionFromDomain(&domain.Transaction{
		ID:               "tx-1",
		AccountID:        "acc-1",
		Type:             domain.TransactionTypeWithdrawal,
		Amount:           domain.MustMoney("3.5"),
		ResultingBalance: domain.MustMoney("96.5"),
	})

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "Withdrawal", fields["type"])
	assert.Equal(t, "3.50", fields["amount"])
	assert.Equal(t, "96.50", fields["resulting_balance"])
	assert.NotContains(t, fields, "transfer_id")
}

func TestReconciliationReportFromResult(t *testing.T) {
	report := ReconciliationReportFromResult(&usecase.ReconciliationReport{
		TotalAccounts:      3,
		ReconciledAccounts: 2,
		LedgerConsistent:   false,
		Discrepancies: []*usecase.ReconciliationResult{{
			AccountID:         "acc-2",
			RecordedBalance:   domain.MustMoney("10"),
			CalculatedBalance: domain.MustMoney("9"),
			Difference:        domain.MustMoney("1"),
		}},
	})

	assert.Equal(t, 3, report.TotalAccounts)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, "1.00", report.Discrepancies[0].Difference)
	assert.False(t, report.LedgerConsistent)
}

func TestTransactionSumsFromDomain(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	resp := TransactionSumsFromDomain(start, end, domain.TransactionSums{
		Deposits:     domain.MustMoney("100"),
		Withdrawals:  domain.MustMoney("40"),
		TransfersIn:  domain.Zero,
		TransfersOut: domain.MustMoney("0.5"),
	})

	assert.Equal(t, "100.00", resp.Deposits)
	assert.Equal(t, "40.00", resp.Withdrawals)
	assert.Equal(t, "0.00", resp.TransfersIn)
	assert.Equal(t, "0.50", resp.TransfersOut)
}
