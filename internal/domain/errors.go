package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the ledger wraps exactly one of these.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrOperationFailed    = errors.New("operation failed")
)

// OperationFailed is checked first: an OperationError may carry a cause of another kind.
var errorKinds = []error{
	ErrOperationFailed,
	ErrInvalidArgument,
	ErrNotFound,
	ErrPreconditionFailed,
	ErrUnauthorized,
}

var (
	// Account errors
	ErrAccountNotFound        = fmt.Errorf("%w: account", ErrNotFound)
	ErrNegativeInitialBalance = fmt.Errorf("%w: initial balance must not be negative", ErrInvalidArgument)
	ErrNonZeroBalance         = fmt.Errorf("%w: account balance must be 0.00 to close", ErrPreconditionFailed)
	ErrAccountNotRemoved      = fmt.Errorf("%w: account was not removed", ErrOperationFailed)

	// Transaction errors
	ErrTransactionNotFound    = fmt.Errorf("%w: transaction", ErrNotFound)
	ErrInvalidAmount          = fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	ErrUnknownTransactionType = fmt.Errorf("%w: unknown transaction type", ErrInvalidArgument)
	ErrTransferLegNotAllowed  = fmt.Errorf("%w: transfer legs are created by transfers only", ErrInvalidArgument)
	ErrTransferLegImmutable   = fmt.Errorf("%w: transfer transactions cannot be edited or deleted", ErrPreconditionFailed)
	ErrTransactionNotRemoved  = fmt.Errorf("%w: transaction was not removed", ErrOperationFailed)
	ErrInvalidDateRange       = fmt.Errorf("%w: start date is after end date", ErrInvalidArgument)

	// Transfer errors
	ErrSameAccount      = fmt.Errorf("%w: cannot transfer to same account", ErrInvalidArgument)
	ErrOwnerMismatch    = fmt.Errorf("%w: accounts used in a transfer must have the same owner", ErrInvalidArgument)
	ErrTransferNotFound = fmt.Errorf("%w: transfer", ErrNotFound)
)

// KindOf returns the error kind wrapped by err, or nil for foreign errors.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// OperationError reports a collaborator failure without exposing its message.
type OperationError struct {
	Op  string
	Err error
}

// NewOperationError wraps a collaborator failure for operation op.
func NewOperationError(op string, err error) *OperationError {
	return &OperationError{Op: op, Err: err}
}

func (e *OperationError) Error() string {
	return "operation failed: " + e.Op
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *OperationError) Unwrap() []error {
	return []error{ErrOperationFailed, e.Err}
}
