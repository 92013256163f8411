package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal monetary value.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoney wraps a decimal.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d}
}

// MoneyFromInt builds a whole-unit amount.
func MoneyFromInt(v int64) Money {
	return Money{d: decimal.NewFromInt(v)}
}

// MoneyFromString parses a decimal string such as "120.50".
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q is not a decimal amount", ErrInvalidArgument, s)
	}
	return Money{d: d}, nil
}

// MustMoney is MoneyFromString for constants and tests.
func MustMoney(s string) Money {
	m, err := MoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }
func (m Money) Neg() Money        { return Money{d: m.d.Neg()} }

// Equal compares by value, so 1.0 equals 1.00.
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }
func (m Money) Cmp(o Money) int    { return m.d.Cmp(o.d) }
func (m Money) IsZero() bool       { return m.d.IsZero() }
func (m Money) IsNegative() bool   { return m.d.IsNegative() }
func (m Money) IsPositive() bool   { return m.d.IsPositive() }

// Decimal exposes the underlying value for storage adapters.
func (m Money) Decimal() decimal.Decimal { return m.d }

// String renders at least two decimal places without dropping precision.
func (m Money) String() string {
	places := int32(2)
	if exp := -m.d.Exponent(); exp > places {
		places = exp
	}
	return m.d.StringFixed(places)
}

// MarshalJSON encodes the amount as a quoted decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted and bare decimal numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: invalid amount", ErrInvalidArgument)
	}
	m.d = d
	return nil
}
