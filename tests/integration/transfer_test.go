package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
	"github.com/AmtrakBF/FinancialTrackerApi/tests/testutil"
)

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	stack := testDB.NewStack()

	t.Run("create transfer between accounts", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		owner := stack.CreateTestUser(t, ctx, testutil.UniqueEmail())
		source := stack.CreateTestAccount(t, ctx, owner, "source", "1000")
		dest := stack.CreateTestAccount(t, ctx, owner, "dest", "0")

		transfer, err := stack.Transfer.TransferToAccount(ctx, usecase.TransferInput{
			SourceAccountID:      source.ID,
			DestinationAccountID: dest.ID,
			CallerUserID:         owner.ID,
			Amount:               domain.MustMoney("100"),
			Description:          "rent fund",
		})
		if err != nil {
			t.Fatalf("failed to create transfer: %v", err)
		}

		if transfer.Out.TransferID != transfer.ID || transfer.In.TransferID != transfer.ID {
			t.Errorf("legs do not carry transfer id %s", transfer.ID)
		}
		if !transfer.Out.ResultingBalance.Equal(domain.MustMoney("900")) {
			t.Errorf("expected out leg balance 900, got %s", transfer.Out.ResultingBalance)
		}
		if !transfer.In.ResultingBalance.Equal(domain.MustMoney("100")) {
			t.Errorf("expected in leg balance 100, got %s", transfer.In.ResultingBalance)
		}

		fetched, err := stack.Transfer.GetTransfer(ctx, transfer.ID, owner.ID)
		if err != nil {
			t.Fatalf("failed to get transfer: %v", err)
		}
		if fetched.FromAccountID != source.ID || fetched.ToAccountID != dest.ID {
			t.Errorf("unexpected transfer direction: %+v", fetched)
		}

		srcAcc, _ := stack.Accounts.GetByID(ctx, source.ID)
		dstAcc, _ := stack.Accounts.GetByID(ctx, dest.ID)
		if !srcAcc.Balance.Equal(domain.MustMoney("900")) || !dstAcc.Balance.Equal(domain.MustMoney("100")) {
			t.Errorf("unexpected balances: source=%s dest=%s", srcAcc.Balance, dstAcc.Balance)
		}
	})

	t.Run("reject transfer to same account", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		owner := stack.CreateTestUser(t, ctx, testutil.UniqueEmail())
		account := stack.CreateTestAccount(t, ctx, owner, "only", "100")

		_, err := stack.Transfer.TransferToAccount(ctx, usecase.TransferInput{
			SourceAccountID:      account.ID,
			DestinationAccountID: account.ID,
			CallerUserID:         owner.ID,
			Amount:               domain.MustMoney("10"),
		})
		if !errors.Is(err, domain.ErrSameAccount) {
			t.Errorf("expected ErrSameAccount, got %v", err)
		}
	})

	t.Run("reject transfer between owners", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		alice := stack.CreateTestUser(t, ctx, testutil.UniqueEmail())
		bob := stack.CreateTestUser(t, ctx, testutil.UniqueEmail())
		source := stack.CreateTestAccount(t, ctx, alice, "alice", "100")
		dest := stack.CreateTestAccount(t, ctx, bob, "bob", "0")

		_, err := stack.Transfer.TransferToAccount(ctx, usecase.TransferInput{
			SourceAccountID:      source.ID,
			DestinationAccountID: dest.ID,
			CallerUserID:         alice.ID,
			Amount:               domain.MustMoney("10"),
		})
		if !errors.Is(err, domain.ErrOwnerMismatch) {
			t.Errorf("expected ErrOwnerMismatch, got %v", err)
		}

		srcAcc, _ := stack.Accounts.GetByID(ctx, source.ID)
		if !srcAcc.Balance.Equal(domain.MustMoney("100")) {
			t.Errorf("rejected transfer moved money: %s", srcAcc.Balance)
		}
	})

	t.Run("transfer legs cannot be edited or deleted", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		owner := stack.CreateTestUser(t, ctx, testutil.UniqueEmail())
		source := stack.CreateTestAccount(t, ctx, owner, "source", "50")
		dest := stack.CreateTestAccount(t, ctx, owner, "dest", "0")

		transfer, err := stack.Transfer.TransferToAccount(ctx, usecase.TransferInput{
			SourceAccountID:      source.ID,
			DestinationAccountID: dest.ID,
			CallerUserID:         owner.ID,
			Amount:               domain.MustMoney("20"),
		})
		if err != nil {
			t.Fatalf("failed to create transfer: %v", err)
		}

		_, err = stack.Transaction.EditTransaction(ctx, usecase.EditTransactionInput{
			AccountID:     source.ID,
			CallerUserID:  owner.ID,
			TransactionID: transfer.Out.ID,
			Description:   "renamed",
		})
		if !errors.Is(err, domain.ErrTransferLegImmutable) {
			t.Errorf("edit: expected ErrTransferLegImmutable, got %v", err)
		}

		_, err = stack.Transaction.DeleteTransaction(ctx, usecase.DeleteTransactionInput{
			AccountID:     dest.ID,
			CallerUserID:  owner.ID,
			TransactionID: transfer.In.ID,
		})
		if !errors.Is(err, domain.ErrTransferLegImmutable) {
			t.Errorf("delete: expected ErrTransferLegImmutable, got %v", err)
		}
	})

	t.Run("deleting an earlier deposit shifts transfer snapshots", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		owner := stack.CreateTestUser(t, ctx, testutil.UniqueEmail())
		source := stack.CreateTestAccount(t, ctx, owner, "source", "100")
		dest := stack.CreateTestAccount(t, ctx, owner, "dest", "0")

		deposit := stack.Deposit(t, ctx, source, "50", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

		transfer, err := stack.Transfer.TransferToAccount(ctx, usecase.TransferInput{
			SourceAccountID:      source.ID,
			DestinationAccountID: dest.ID,
			CallerUserID:         owner.ID,
			Amount:               domain.MustMoney("30"),
		})
		if err != nil {
			t.Fatalf("failed to create transfer: %v", err)
		}
		if !transfer.Out.ResultingBalance.Equal(domain.MustMoney("120")) {
			t.Fatalf("expected out leg at 120, got %s", transfer.Out.ResultingBalance)
		}

		_, err = stack.Transaction.DeleteTransaction(ctx, usecase.DeleteTransactionInput{
			AccountID:     source.ID,
			CallerUserID:  owner.ID,
			TransactionID: deposit.Transaction.ID,
		})
		if err != nil {
			t.Fatalf("failed to delete deposit: %v", err)
		}

		fetched, err := stack.Transfer.GetTransfer(ctx, transfer.ID, owner.ID)
		if err != nil {
			t.Fatalf("failed to get transfer: %v", err)
		}
		if !fetched.Out.ResultingBalance.Equal(domain.MustMoney("70")) {
			t.Errorf("expected shifted out leg at 70, got %s", fetched.Out.ResultingBalance)
		}
		if !fetched.In.ResultingBalance.Equal(domain.MustMoney("30")) {
			t.Errorf("in leg should be untouched, got %s", fetched.In.ResultingBalance)
		}

		result, err := stack.Reconciliation.ReconcileAccount(ctx, source.ID)
		if err != nil {
			t.Fatalf("failed to reconcile: %v", err)
		}
		if !result.IsReconciled {
			t.Errorf("expected source to reconcile, got %+v", result)
		}
	})
}
