package usecase

import (
	"context"
	"time"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Tx, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Tx, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Tx, ids []string) ([]*domain.Account, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	UpdateName(ctx context.Context, tx Tx, id, name string, updatedAt time.Time) error
	UpdateBalance(ctx context.Context, tx Tx, id string, balance domain.Money, updatedAt time.Time) error
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, tx Tx, id string) (bool, error)
}

// TransactionRepository defines data access for ledger transactions.
// Listings are returned in ledger order: created_at, then id.
type TransactionRepository interface {
	Create(ctx context.Context, tx Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, tx Tx, accountID, id string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	ListAllByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error)
	// ListByDateRange matches start <= date <= end.
	ListByDateRange(ctx context.Context, accountID string, start, end time.Time) ([]*domain.Transaction, error)
	ListByTransferID(ctx context.Context, transferID string) ([]*domain.Transaction, error)
	UpdateDetails(ctx context.Context, tx Tx, accountID, id, description string, date time.Time) error
	Delete(ctx context.Context, tx Tx, accountID, id string) (bool, error)
	// ShiftResultingBalances adds delta to the snapshot of every transaction
	// on the account that comes after the given one. Returns the rows touched.
	ShiftResultingBalances(ctx context.Context, tx Tx, accountID string, after *domain.Transaction, delta domain.Money) (int64, error)
	DeleteByAccount(ctx context.Context, tx Tx, accountID string) error
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	// CheckConsistency returns the sum of all balances and the sum of all
	// opening balances plus every signed transaction amount.
	CheckConsistency(ctx context.Context) (totalBalance, expectedBalance domain.Money, err error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Tx, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Tx, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Tx represents a database transaction.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// CredentialVerifier re-checks a caller's sign-in secrets before destructive operations.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, userID string, creds domain.Credentials) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases key so the request can be retried.
	Delete(ctx context.Context, key string) error
}

// TokenDenylist records revoked access tokens until they would have expired anyway.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
