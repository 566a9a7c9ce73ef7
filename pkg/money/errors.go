package money

import "errors"

// Common money package errors.
var (
	// ErrInvalidCurrency is returned when a currency code is not one of
	// the ledger's recognized ISO 4217 codes.
	ErrInvalidCurrency = errors.New("invalid currency code")

	// ErrMismatchedCurrencies is returned when performing an operation on
	// two Money values of different currencies.
	ErrMismatchedCurrencies = errors.New("mismatched currencies")

	// ErrNotPositive is returned when an amount that must be strictly
	// positive (spec §6.1: amount>0) is zero or negative.
	ErrNotPositive = errors.New("amount must be positive")

	// ErrTooManyDecimals is returned when an amount carries more
	// fractional digits than the currency's scale allows.
	ErrTooManyDecimals = errors.New("amount has more decimal places than the currency allows")

	// ErrExceedsMaxUnits is returned when an amount's absolute value
	// exceeds DefaultMaxUnits (1e11). The ceiling is fixed:
	// ledger.Config.AmountMaxUnits is not consulted.
	ErrExceedsMaxUnits = errors.New("amount exceeds maximum allowed units")
)
