package domain

import (
	"fmt"
	"time"
)

// TransactionType is the kind of balance effect a transaction has.
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "Deposit"
	TransactionTypeWithdrawal  TransactionType = "Withdrawal"
	TransactionTypeTransferIn  TransactionType = "TransferIn"
	TransactionTypeTransferOut TransactionType = "TransferOut"
)

// ParseTransactionType resolves a stored or user-supplied type name.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTransactionType, s)
	}
	return t, nil
}

// IsValid reports whether t is one of the four known types.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransferIn, TransactionTypeTransferOut:
		return true
	default:
		return false
	}
}

// IsTransferLeg reports whether t is one half of a transfer.
func (t TransactionType) IsTransferLeg() bool {
	return t == TransactionTypeTransferIn || t == TransactionTypeTransferOut
}

// SignedAmount returns the balance effect of amount for this type.
func (t TransactionType) SignedAmount(amount Money) (Money, error) {
	switch t {
	case TransactionTypeDeposit, TransactionTypeTransferIn:
		return amount, nil
	case TransactionTypeWithdrawal, TransactionTypeTransferOut:
		return amount.Neg(), nil
	default:
		return Zero, fmt.Errorf("%w: %q", ErrUnknownTransactionType, string(t))
	}
}

func (t TransactionType) String() string { return string(t) }

// Transaction is one balance-affecting event on an account.
type Transaction struct {
	ID               string
	AccountID        string
	TransferID       string
	Type             TransactionType
	Amount           Money
	Date             time.Time
	ResultingBalance Money
	Description      string
	CreatedAt        time.Time
}

// NewTransactionInput carries the fields of a transaction about to be recorded.
type NewTransactionInput struct {
	ID          string
	TransferID  string
	Type        TransactionType
	Amount      Money
	Date        time.Time
	Description string
	CreatedAt   time.Time
}

// RecordTransaction applies the transaction's effect to account and stamps the
// resulting balance on the new transaction. The account is left untouched on error.
func RecordTransaction(account *Account, in NewTransactionInput) (*Transaction, error) {
	if err := ValidateDescription(in.Description); err != nil {
		return nil, err
	}

	if err := account.Apply(in.Type, in.Amount); err != nil {
		return nil, err
	}

	account.UpdatedAt = in.CreatedAt

	return &Transaction{
		ID:               in.ID,
		AccountID:        account.ID,
		TransferID:       in.TransferID,
		Type:             in.Type,
		Amount:           in.Amount,
		Date:             in.Date,
		ResultingBalance: account.Balance,
		Description:      in.Description,
		CreatedAt:        in.CreatedAt,
	}, nil
}

// WithDetails returns a copy carrying a new description and date.
// Type, amount and resulting balance never change.
func (t *Transaction) WithDetails(description string, date time.Time) (*Transaction, error) {
	if t.Type.IsTransferLeg() {
		return nil, ErrTransferLegImmutable
	}

	if err := ValidateDescription(description); err != nil {
		return nil, err
	}

	edited := *t
	edited.Description = description
	edited.Date = date

	return &edited, nil
}

// ComesAfter reports whether t sits later than other in ledger order.
func (t *Transaction) ComesAfter(other *Transaction) bool {
	if t.CreatedAt.Equal(other.CreatedAt) {
		return t.ID > other.ID
	}
	return t.CreatedAt.After(other.CreatedAt)
}

// TransactionSums holds per-type totals for a date range.
type TransactionSums struct {
	Deposits     Money
	Withdrawals  Money
	TransfersIn  Money
	TransfersOut Money
}

// SumByType totals amounts per type. Unknown types are skipped.
func SumByType(transactions []*Transaction) TransactionSums {
	var sums TransactionSums

	for _, t := range transactions {
		switch t.Type {
		case TransactionTypeDeposit:
			sums.Deposits = sums.Deposits.Add(t.Amount)
		case TransactionTypeWithdrawal:
			sums.Withdrawals = sums.Withdrawals.Add(t.Amount)
		case TransactionTypeTransferIn:
			sums.TransfersIn = sums.TransfersIn.Add(t.Amount)
		case TransactionTypeTransferOut:
			sums.TransfersOut = sums.TransfersOut.Add(t.Amount)
		}
	}

	return sums
}
