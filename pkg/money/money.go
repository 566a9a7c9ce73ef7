// Package money provides the arbitrary-precision monetary value object
// used throughout the ledger core.
//
// Invariants:
//   - Amount is held as an arbitrary-precision decimal (github.com/shopspring/decimal),
//     never a binary float, anywhere on the ledger path (spec §9).
//   - Currency must be one of the codes recognized by this package.
//   - All arithmetic requires matching currencies.
//   - Amounts with more fractional digits than the currency's scale are
//     rejected on construction; no rounding is applied.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultMaxUnits is the default ceiling on any single Money amount
// (spec §6.5: amount.maxUnits, default 1e11).
var DefaultMaxUnits = decimal.New(1, 11)

// Money is a monetary value in a specific currency.
type Money struct {
	amount   decimal.Decimal
	currency Code
}

// Zero returns a zero-valued Money in the given currency.
func Zero(c Code) Money {
	return Money{amount: decimal.Zero, currency: c}
}

// New builds a Money from a decimal amount and currency, validating the
// currency and rejecting amounts with more fractional digits than the
// currency's scale allows or that exceed DefaultMaxUnits.
func New(amount decimal.Decimal, c Code) (Money, error) {
	if !c.IsValid() {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidCurrency, c)
	}
	if amount.Exponent() < -c.Scale() {
		return Money{}, fmt.Errorf("%w: %s requires scale %d", ErrTooManyDecimals, c, c.Scale())
	}
	if amount.Abs().GreaterThan(DefaultMaxUnits) {
		return Money{}, fmt.Errorf("%w: %s", ErrExceedsMaxUnits, amount.String())
	}
	return Money{amount: amount, currency: c}, nil
}

// NewFromString parses a decimal string (the wire/API representation of
// an amount, e.g. "100.00") into Money.
func NewFromString(s string, c Code) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return New(d, c)
}

// MustNewFromString is NewFromString but panics on error; intended for
// tests and compile-time-known constants only.
func MustNewFromString(s string, c Code) Money {
	m, err := NewFromString(s, c)
	if err != nil {
		panic(err)
	}
	return m
}

// Amount returns the underlying decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the currency code.
func (m Money) Currency() Code { return m.currency }

// String renders the amount fixed to the currency's scale, e.g. "100.00".
func (m Money) String() string {
	return m.amount.StringFixed(m.currency.Scale())
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"amount":   m.String(),
		"currency": m.currency.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	var aux struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	parsed, err := NewFromString(aux.Amount, Code(aux.Currency))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) requireSameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s and %s", ErrMismatchedCurrencies, m.currency, other.currency)
	}
	return nil
}

// Add returns m + other. Requires matching currencies.
func (m Money) Add(other Money) (Money, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub returns m - other. Requires matching currencies. The result may be
// negative; callers enforcing non-negativity (invariant B2) check that
// separately.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Neg returns the additive inverse of m, same currency.
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Equal reports whether m and other carry the same currency and amount.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// GreaterThanOrEqual reports whether m >= other. Requires matching currencies.
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThanOrEqual(other.amount), nil
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// IsNegative reports whether the amount is strictly less than zero.
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// SameCurrency reports whether m and other share a currency.
func (m Money) SameCurrency(other Money) bool { return m.currency == other.currency }
