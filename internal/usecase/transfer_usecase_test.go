package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase/mocks"
)

func TestTransferUseCase_TransferToAccount(t *testing.T) {
	env := newLedgerEnv(t)
	owner := env.registerUser(t, "owner@example.com")
	source := env.openAccount(t, owner.ID, "100")
	destination := env.openAccount(t, owner.ID, "0")

	transfer, err := env.transferUC.TransferToAccount(context.Background(), usecase.TransferInput{
		SourceAccountID:      source.ID,
		DestinationAccountID: destination.ID,
		CallerUserID:         owner.ID,
		Amount:               domain.MustMoney("50"),
		Description:          "top up",
	})
	require.NoError(t, err)

	assert.Equal(t, "50.00", env.balance(t, source.ID))
	assert.Equal(t, "50.00", env.balance(t, destination.ID))

	require.NotNil(t, transfer.Out)
	require.NotNil(t, transfer.In)
	assert.Equal(t, domain.TransactionTypeTransferOut, transfer.Out.Type)
	assert.Equal(t, domain.TransactionTypeTransferIn, transfer.In.Type)
	assert.Equal(t, transfer.ID, transfer.Out.TransferID)
	assert.Equal(t, transfer.ID, transfer.In.TransferID)
	assert.Equal(t, "50.00", transfer.Out.ResultingBalance.String())
	assert.Equal(t, "50.00", transfer.In.ResultingBalance.String())

	legs, err := env.transactions.ListByTransferID(context.Background(), transfer.ID)
	require.NoError(t, err)
	assert.Len(t, legs, 2)

	events := env.eventsFor(t, domain.AggregateTypeTransfer, transfer.ID)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTypeTransferCompleted, events[0].EventType)

	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.TransfersCreated))

	consistent, err := env.ledgerUC.CheckConsistency(context.Background())
	require.NoError(t, err)
	assert.True(t, consistent)
}

func TestTransferUseCase_TransferToAccount_Rejections(t *testing.T) {
	env := newLedgerEnv(t)
	owner := env.registerUser(t, "owner@example.com")
	other := env.registerUser(t, "other@example.com")
	source := env.openAccount(t, owner.ID, "100")
	destination := env.openAccount(t, owner.ID, "0")
	foreign := env.openAccount(t, other.ID, "0")

	tests := []struct {
		name        string
		input       usecase.TransferInput
		expectedErr error
	}{
		{
			name: "same account",
			input: usecase.TransferInput{
				SourceAccountID: source.ID, DestinationAccountID: source.ID,
				CallerUserID: owner.ID, Amount: domain.MustMoney("1"),
			},
			expectedErr: domain.ErrSameAccount,
		},
		{
			name: "zero amount",
			input: usecase.TransferInput{
				SourceAccountID: source.ID, DestinationAccountID: destination.ID,
				CallerUserID: owner.ID, Amount: domain.Zero,
			},
			expectedErr: domain.ErrInvalidAmount,
		},
		{
			name: "different owners",
			input: usecase.TransferInput{
				SourceAccountID: source.ID, DestinationAccountID: foreign.ID,
				CallerUserID: owner.ID, Amount: domain.MustMoney("1"),
			},
			expectedErr: domain.ErrOwnerMismatch,
		},
		{
			name: "missing destination",
			input: usecase.TransferInput{
				SourceAccountID: source.ID, DestinationAccountID: "missing",
				CallerUserID: owner.ID, Amount: domain.MustMoney("1"),
			},
			expectedErr: domain.ErrAccountNotFound,
		},
		{
			name: "source not owned by caller",
			input: usecase.TransferInput{
				SourceAccountID: source.ID, DestinationAccountID: destination.ID,
				CallerUserID: other.ID, Amount: domain.MustMoney("1"),
			},
			expectedErr: domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.transferUC.TransferToAccount(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.expectedErr)

			assert.Equal(t, "100.00", env.balance(t, source.ID))
			assert.Equal(t, "0.00", env.balance(t, destination.ID))
			assert.Equal(t, "0.00", env.balance(t, foreign.ID))
		})
	}

	assert.Equal(t, float64(0), testutil.ToFloat64(env.metrics.TransfersCreated))
	assert.Equal(t, float64(3), testutil.ToFloat64(env.metrics.TransferErrors.WithLabelValues("invalid_argument")))
	assert.Equal(t, float64(2), testutil.ToFloat64(env.metrics.TransferErrors.WithLabelValues("not_found")))
}

func TestTransferUseCase_LocksAccountsInSortedOrder(t *testing.T) {
	ctrl := gomock.NewController(t)

	txManager := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockTx(ctrl)
	accountRepo := mocks.NewMockAccountRepository(ctrl)

	txManager.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	accountRepo.EXPECT().
		GetByIDsForUpdate(gomock.Any(), tx, []string{"acc-a", "acc-b"}).
		Return([]*domain.Account{{ID: "acc-a", OwnerID: "user-1"}}, nil)

	uc := usecase.NewTransferUseCase(txManager, accountRepo, nil, nil, nil, zerolog.Nop(), nil)

	_, err := uc.TransferToAccount(context.Background(), usecase.TransferInput{
		SourceAccountID:      "acc-b",
		DestinationAccountID: "acc-a",
		CallerUserID:         "user-1",
		Amount:               domain.MustMoney("1"),
	})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestTransferUseCase_OppositeTransfersPreserveTotal(t *testing.T) {
	env := newLedgerEnv(t)
	owner := env.registerUser(t, "owner@example.com")
	a := env.openAccount(t, owner.ID, "500")
	b := env.openAccount(t, owner.ID, "500")

	var wg sync.WaitGroup
	for i := range 20 {
		from, to := a.ID, b.ID
		if i%2 == 1 {
			from, to = b.ID, a.ID
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.transferUC.TransferToAccount(context.Background(), usecase.TransferInput{
				SourceAccountID:      from,
				DestinationAccountID: to,
				CallerUserID:         owner.ID,
				Amount:               domain.MustMoney("7.25"),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, "500.00", env.balance(t, a.ID))
	assert.Equal(t, "500.00", env.balance(t, b.ID))

	report, err := env.reconciliation.GenerateReconciliationReport(context.Background())
	require.NoError(t, err)
	assert.True(t, report.LedgerConsistent)
	assert.Empty(t, report.Discrepancies)
}

func TestTransferUseCase_GetTransfer(t *testing.T) {
	env := newLedgerEnv(t)
	owner := env.registerUser(t, "owner@example.com")
	stranger := env.registerUser(t, "stranger@example.com")
	source := env.openAccount(t, owner.ID, "20")
	destination := env.openAccount(t, owner.ID, "0")

	created, err := env.transferUC.TransferToAccount(context.Background(), usecase.TransferInput{
		SourceAccountID:      source.ID,
		DestinationAccountID: destination.ID,
		CallerUserID:         owner.ID,
		Amount:               domain.MustMoney("20"),
	})
	require.NoError(t, err)

	got, err := env.transferUC.GetTransfer(context.Background(), created.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, source.ID, got.FromAccountID)
	assert.Equal(t, destination.ID, got.ToAccountID)
	assert.Equal(t, "20.00", got.Amount.String())

	_, err = env.transferUC.GetTransfer(context.Background(), created.ID, stranger.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.transferUC.GetTransfer(context.Background(), "missing", owner.ID)
	assert.ErrorIs(t, err, domain.ErrTransferNotFound)
}
