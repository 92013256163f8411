package dto

import (
	"time"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name"`
	Balance        string    `json:"balance"`
	OpeningBalance string    `json:"opening_balance"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:             a.ID,
		OwnerID:        a.OwnerID,
		Name:           a.Name,
		Balance:        a.Balance.String(),
		OpeningBalance: a.OpeningBalance.String(),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps the caller's accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int                `json:"total"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID               string    `json:"id"`
	AccountID        string    `json:"account_id"`
	TransferID       string    `json:"transfer_id,omitempty"`
	Type             string    `json:"type"`
	Amount           string    `json:"amount"`
	Date             time.Time `json:"date"`
	ResultingBalance string    `json:"resulting_balance"`
	Description      string    `json:"description"`
	CreatedAt        time.Time `json:"created_at"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:               t.ID,
		AccountID:        t.AccountID,
		TransferID:       t.TransferID,
		Type:             t.Type.String(),
		Amount:           t.Amount.String(),
		Date:             t.Date,
		ResultingBalance: t.ResultingBalance.String(),
		Description:      t.Description,
		CreatedAt:        t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse is one page of an account's transactions.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Offset       int                    `json:"offset"`
	Limit        int                    `json:"limit"`
}

// AddTransactionResponse carries the new transaction and the account it moved.
type AddTransactionResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Account     *AccountResponse     `json:"account"`
}

// AddTransactionFromResult converts a use case result to response.
func AddTransactionFromResult(r *usecase.TransactionResult) *AddTransactionResponse {
	return &AddTransactionResponse{
		Transaction: TransactionFromDomain(r.Transaction),
		Account:     AccountFromDomain(r.Account),
	}
}

// TransactionSumsResponse holds per-type totals for a date range.
type TransactionSumsResponse struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Deposits     string    `json:"deposits"`
	Withdrawals  string    `json:"withdrawals"`
	TransfersIn  string    `json:"transfers_in"`
	TransfersOut string    `json:"transfers_out"`
}

// TransactionSumsFromDomain converts domain sums to response.
func TransactionSumsFromDomain(start, end time.Time, s domain.TransactionSums) *TransactionSumsResponse {
	return &TransactionSumsResponse{
		Start:        start,
		End:          end,
		Deposits:     s.Deposits.String(),
		Withdrawals:  s.Withdrawals.String(),
		TransfersIn:  s.TransfersIn.String(),
		TransfersOut: s.TransfersOut.String(),
	}
}

// TransferResponse represents a transfer with both legs, source first.
type TransferResponse struct {
	ID            string                 `json:"id"`
	FromAccountID string                 `json:"from_account_id"`
	ToAccountID   string                 `json:"to_account_id"`
	Amount        string                 `json:"amount"`
	Date          time.Time              `json:"date"`
	Description   string                 `json:"description"`
	Transactions  []*TransactionResponse `json:"transactions"`
}

// TransferFromDomain converts domain transfer to response.
func TransferFromDomain(t *domain.Transfer) *TransferResponse {
	legs := make([]*TransactionResponse, 0, 2)
	if t.Out != nil {
		legs = append(legs, TransactionFromDomain(t.Out))
	}
	if t.In != nil {
		legs = append(legs, TransactionFromDomain(t.In))
	}

	return &TransferResponse{
		ID:            t.ID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Amount:        t.Amount.String(),
		Date:          t.Date,
		Description:   t.Description,
		Transactions:  legs,
	}
}

// ReconciliationResponse reports whether an account's balance matches its history.
type ReconciliationResponse struct {
	AccountID              string    `json:"account_id"`
	RecordedBalance        string    `json:"recorded_balance"`
	CalculatedBalance      string    `json:"calculated_balance"`
	Difference             string    `json:"difference"`
	MismatchedTransactions []string  `json:"mismatched_transactions,omitempty"`
	TransactionCount       int       `json:"transaction_count"`
	IsReconciled           bool      `json:"is_reconciled"`
	LastChecked            time.Time `json:"last_checked"`
}

// ReconciliationFromResult converts a use case result to response.
func ReconciliationFromResult(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		AccountID:              r.AccountID,
		RecordedBalance:        r.RecordedBalance.String(),
		CalculatedBalance:      r.CalculatedBalance.String(),
		Difference:             r.Difference.String(),
		MismatchedTransactions: r.MismatchedTransactions,
		TransactionCount:       r.TransactionCount,
		IsReconciled:           r.IsReconciled,
		LastChecked:            r.LastChecked,
	}
}

// ReconciliationReportResponse summarizes a ledger-wide reconciliation run.
type ReconciliationReportResponse struct {
	TotalAccounts      int                       `json:"total_accounts"`
	ReconciledAccounts int                       `json:"reconciled_accounts"`
	Discrepancies      []*ReconciliationResponse `json:"discrepancies"`
	LedgerConsistent   bool                      `json:"ledger_consistent"`
	CheckedAt          time.Time                 `json:"checked_at"`
}

// ReconciliationReportFromResult converts a use case report to response.
func ReconciliationReportFromResult(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationFromResult(d)
	}

	return &ReconciliationReportResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      discrepancies,
		LedgerConsistent:   r.LedgerConsistent,
		CheckedAt:          r.CheckedAt,
	}
}

// ConsistencyResponse reports the ledger-wide balance check.
type ConsistencyResponse struct {
	Consistent bool      `json:"consistent"`
	CheckedAt  time.Time `json:"checked_at"`
}

// AuditLogResponse represents an audit trail entry in API responses.
type AuditLogResponse struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	BeforeState  map[string]any `json:"before_state,omitempty"`
	AfterState   map[string]any `json:"after_state,omitempty"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// AuditLogsFromDomain converts audit entries to responses.
func AuditLogsFromDomain(logs []*domain.AuditLog) []*AuditLogResponse {
	result := make([]*AuditLogResponse, len(logs))
	for i, l := range logs {
		result[i] = &AuditLogResponse{
			ID:           l.ID,
			UserID:       l.UserID,
			Action:       string(l.Action),
			ResourceType: l.ResourceType,
			ResourceID:   l.ResourceID,
			BeforeState:  l.BeforeState,
			AfterState:   l.AfterState,
			Status:       string(l.Status),
			ErrorMessage: l.ErrorMessage,
			CreatedAt:    l.CreatedAt,
		}
	}
	return result
}

// ListAuditLogsResponse wraps a page of the caller's audit trail.
type ListAuditLogsResponse struct {
	AuditLogs []*AuditLogResponse `json:"audit_logs"`
	Offset    int                 `json:"offset"`
	Limit     int                 `json:"limit"`
}

// UserResponse represents a user without credentials.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromDomain converts domain user to response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int64         `json:"expires_in"`
	User        *UserResponse `json:"user"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
