package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrInvalidAuditFilter is returned for an unknown action or resource type.
var ErrInvalidAuditFilter = fmt.Errorf("%w: invalid audit filter", ErrInvalidArgument)

// AuditLog represents an audit trail entry for destructive ledger operations
type AuditLog struct {
	ID           string
	UserID       string // Who performed the action
	Action       AuditAction
	ResourceType string // account or transaction
	ResourceID   string
	BeforeState  JSON
	AfterState   JSON
	Status       AuditStatus
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionAccountClose      AuditAction = "account.close"
	AuditActionAccountRename     AuditAction = "account.rename"
	AuditActionTransactionEdit   AuditAction = "transaction.edit"
	AuditActionTransactionDelete AuditAction = "transaction.delete"
)

// IsValid reports whether a is one of the audited actions.
func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionAccountClose, AuditActionAccountRename, AuditActionTransactionEdit, AuditActionTransactionDelete:
		return true
	default:
		return false
	}
}

// Audited resource types
const (
	AuditResourceAccount     = "account"
	AuditResourceTransaction = "transaction"
)

// IsAuditResource reports whether resourceType is audited.
func IsAuditResource(resourceType string) bool {
	return resourceType == AuditResourceAccount || resourceType == AuditResourceTransaction
}

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	UserID       string
	Action       AuditAction
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}
