package domain

import (
	"time"
)

// Transfer is a money movement between two accounts of the same owner,
// recorded as a TransferOut leg on the source and a TransferIn leg on the
// destination that share the transfer ID.
type Transfer struct {
	ID            string
	FromAccountID string
	ToAccountID   string
	Amount        Money
	Date          time.Time
	Description   string
	Out           *Transaction
	In            *Transaction
}

// Validate validates transfer request.
func (t *Transfer) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}

	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	return ValidateDescription(t.Description)
}

// TransferFromLegs rebuilds a transfer from its two stored legs.
func TransferFromLegs(legs []*Transaction) (*Transfer, error) {
	var out, in *Transaction
	for _, leg := range legs {
		switch leg.Type {
		case TransactionTypeTransferOut:
			out = leg
		case TransactionTypeTransferIn:
			in = leg
		}
	}

	if out == nil || in == nil || out.TransferID != in.TransferID {
		return nil, ErrTransferNotFound
	}

	return &Transfer{
		ID:            out.TransferID,
		FromAccountID: out.AccountID,
		ToAccountID:   in.AccountID,
		Amount:        out.Amount,
		Date:          out.Date,
		Description:   out.Description,
		Out:           out,
		In:            in,
	}, nil
}
