package domain

import (
	"strings"
	"time"
)

// Account represents a savings account owned by a single user.
type Account struct {
	ID             string
	OwnerID        string
	Name           string
	Balance        Money
	OpeningBalance Money
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAccount opens an account holding initialBalance.
func NewAccount(id, ownerID, name string, initialBalance Money, now time.Time) (*Account, error) {
	if initialBalance.IsNegative() {
		return nil, ErrNegativeInitialBalance
	}

	if err := ValidateAccountName(name); err != nil {
		return nil, err
	}

	return &Account{
		ID:             id,
		OwnerID:        ownerID,
		Name:           strings.TrimSpace(name),
		Balance:        initialBalance,
		OpeningBalance: initialBalance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// OwnedBy reports whether userID owns the account.
func (a *Account) OwnedBy(userID string) bool {
	return userID != "" && a.OwnerID == userID
}

// Deposit credits amount.
func (a *Account) Deposit(amount Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}

// Withdraw debits amount. The balance may go negative.
func (a *Account) Withdraw(amount Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

// ChangeName replaces the display name.
func (a *Account) ChangeName(name string) error {
	if err := ValidateAccountName(name); err != nil {
		return err
	}
	a.Name = strings.TrimSpace(name)
	return nil
}

// Apply applies the effect of a transaction of type t.
func (a *Account) Apply(t TransactionType, amount Money) error {
	switch t {
	case TransactionTypeDeposit, TransactionTypeTransferIn:
		return a.Deposit(amount)
	case TransactionTypeWithdrawal, TransactionTypeTransferOut:
		return a.Withdraw(amount)
	default:
		return ErrUnknownTransactionType
	}
}

// Revert undoes the effect of a transaction of type t.
func (a *Account) Revert(t TransactionType, amount Money) error {
	switch t {
	case TransactionTypeDeposit, TransactionTypeTransferIn:
		return a.Withdraw(amount)
	case TransactionTypeWithdrawal, TransactionTypeTransferOut:
		return a.Deposit(amount)
	default:
		return ErrUnknownTransactionType
	}
}
