package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// DateLayout is the calendar-date form accepted alongside RFC3339.
const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or RFC3339. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD or RFC3339", domain.ErrInvalidArgument, s)
	}

	return t.UTC(), nil
}

func parseAmount(s string) (domain.Money, error) {
	amount, err := domain.MoneyFromString(strings.TrimSpace(s))
	if err != nil {
		return domain.Zero, fmt.Errorf("%w: invalid amount %q", domain.ErrInvalidArgument, s)
	}

	return amount, nil
}

// RegisterRequest represents a sign-up request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterRequest) ToUseCaseInput() usecase.RegisterInput {
	return usecase.RegisterInput{
		Email:    r.Email,
		Name:     r.Name,
		Password: r.Password,
	}
}

// CredentialsRequest carries an email and password, used by login and account closing.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ToDomain converts to domain credentials.
func (r *CredentialsRequest) ToDomain() domain.Credentials {
	return domain.Credentials{Email: r.Email, Password: r.Password}
}

// OpenAccountRequest represents a request to open an account.
type OpenAccountRequest struct {
	Name           string `json:"name"`
	InitialBalance string `json:"initial_balance"`
}

// ToUseCaseInput converts to use case input. A missing initial balance is zero.
func (r *OpenAccountRequest) ToUseCaseInput(ownerID string) (usecase.OpenAccountInput, error) {
	balance := domain.Zero
	if strings.TrimSpace(r.InitialBalance) != "" {
		var err error
		if balance, err = parseAmount(r.InitialBalance); err != nil {
			return usecase.OpenAccountInput{}, err
		}
	}

	return usecase.OpenAccountInput{
		OwnerID:        ownerID,
		Name:           r.Name,
		InitialBalance: balance,
	}, nil
}

// RenameAccountRequest represents a request to change an account's name.
type RenameAccountRequest struct {
	Name string `json:"name"`
}

// AddTransactionRequest represents a deposit or withdrawal.
type AddTransactionRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AddTransactionRequest) ToUseCaseInput(accountID, callerUserID string) (usecase.AddTransactionInput, error) {
	typ, err := domain.ParseTransactionType(r.Type)
	if err != nil {
		return usecase.AddTransactionInput{}, err
	}

	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.AddTransactionInput{}, err
	}

	date, err := ParseDate(r.Date)
	if err != nil {
		return usecase.AddTransactionInput{}, err
	}

	return usecase.AddTransactionInput{
		AccountID:    accountID,
		CallerUserID: callerUserID,
		Type:         typ,
		Description:  r.Description,
		Amount:       amount,
		Date:         date,
	}, nil
}

// EditTransactionRequest carries the mutable fields of a transaction.
type EditTransactionRequest struct {
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *EditTransactionRequest) ToUseCaseInput(accountID, callerUserID, transactionID string) (usecase.EditTransactionInput, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return usecase.EditTransactionInput{}, err
	}

	return usecase.EditTransactionInput{
		AccountID:     accountID,
		CallerUserID:  callerUserID,
		TransactionID: transactionID,
		Description:   r.Description,
		Date:          date,
	}, nil
}

// CreateTransferRequest represents a request to move money between two accounts.
type CreateTransferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        string `json:"amount"`
	Date          string `json:"date,omitempty"`
	Description   string `json:"description"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput(callerUserID string) (usecase.TransferInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.TransferInput{}, err
	}

	date, err := ParseDate(r.Date)
	if err != nil {
		return usecase.TransferInput{}, err
	}

	return usecase.TransferInput{
		SourceAccountID:      r.FromAccountID,
		DestinationAccountID: r.ToAccountID,
		CallerUserID:         callerUserID,
		Amount:               amount,
		Date:                 date,
		Description:          r.Description,
	}, nil
}
