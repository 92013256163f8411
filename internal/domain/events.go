package domain

import "time"

// Event types
const (
	EventTypeAccountOpened      = "account.opened"
	EventTypeAccountClosed      = "account.closed"
	EventTypeAccountRenamed     = "account.renamed"
	EventTypeTransactionAdded   = "transaction.added"
	EventTypeTransactionEdited  = "transaction.edited"
	EventTypeTransactionDeleted = "transaction.deleted"
	EventTypeTransferCompleted  = "transfer.completed"
)

// Aggregate types
const (
	AggregateTypeAccount  = "account"
	AggregateTypeTransfer = "transfer"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewAccountEvent builds an outbox event keyed by the account.
func NewAccountEvent(id, eventType, accountID string, payload any, now time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   accountID,
		AggregateType: AggregateTypeAccount,
		EventType:     eventType,
		Payload:       MarshalState(payload),
		CreatedAt:     now,
	}
}

// AccountEvent payload for account.opened, account.closed and account.renamed.
type AccountEvent struct {
	AccountID string `json:"account_id"`
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	Balance   string `json:"balance"`
}

// AccountEventFrom builds the payload from an account snapshot.
func AccountEventFrom(a *Account) AccountEvent {
	return AccountEvent{
		AccountID: a.ID,
		OwnerID:   a.OwnerID,
		Name:      a.Name,
		Balance:   a.Balance.String(),
	}
}

// TransactionEvent payload for transaction.* events.
type TransactionEvent struct {
	TransactionID    string `json:"transaction_id"`
	AccountID        string `json:"account_id"`
	Type             string `json:"type"`
	Amount           string `json:"amount"`
	ResultingBalance string `json:"resulting_balance"`
	AccountBalance   string `json:"account_balance"`
	Date             string `json:"date"`
}

// TransactionEventFrom builds the payload for t applied to account.
func TransactionEventFrom(t *Transaction, account *Account) TransactionEvent {
	return TransactionEvent{
		TransactionID:    t.ID,
		AccountID:        t.AccountID,
		Type:             t.Type.String(),
		Amount:           t.Amount.String(),
		ResultingBalance: t.ResultingBalance.String(),
		AccountBalance:   account.Balance.String(),
		Date:             t.Date.Format(time.DateOnly),
	}
}

// TransferCompletedEvent payload
type TransferCompletedEvent struct {
	TransferID       string `json:"transfer_id"`
	FromAccountID    string `json:"from_account_id"`
	ToAccountID      string `json:"to_account_id"`
	OutTransactionID string `json:"out_transaction_id"`
	InTransactionID  string `json:"in_transaction_id"`
	Amount           string `json:"amount"`
	Date             string `json:"date"`
}
