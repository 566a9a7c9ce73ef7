package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is the caller-supplied authorization claim of spec §6.4. The
// engine trusts the caller for authentication; it only enforces coarse
// role checks such as "reversal requires admin".
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Caller is the identity and claims the engine's boundary trusts (spec §6.4).
type Caller struct {
	UserID uuid.UUID
	Role   Role
}

// Engine is the Ledger Engine's public operation surface (spec §4.5).
// Every method opens its own commit frame; none partially commit.
type Engine interface {
	Deposit(ctx context.Context, caller Caller, in DepositInput) (*Transaction, error)
	Withdraw(ctx context.Context, caller Caller, in WithdrawalInput) (*Transaction, error)
	Transfer(ctx context.Context, caller Caller, in TransferInput) (*Transaction, error)
	Fee(ctx context.Context, caller Caller, in FeeInput) (*Transaction, error)
	Reverse(ctx context.Context, caller Caller, in ReversalInput) (*Transaction, error)

	SweepPending(ctx context.Context, olderThan time.Duration) (SweepResult, error)

	UserStats(ctx context.Context, userID uuid.UUID, from, to time.Time) (UserStats, error)
	AccountStats(ctx context.Context, accountNumber string, from, to time.Time) (AccountStats, error)

	FindTransaction(ctx context.Context, transactionID string) (*Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter Filter, paging Paging) (Page[Transaction], error)
	ListByAccount(ctx context.Context, accountNumber string, filter Filter, paging Paging) (Page[Transaction], error)

	OpenAccount(ctx context.Context, ownerID uuid.UUID, kind AccountKind, currency string) (*Account, error)
	// CloseAccount flips an account's Active flag off, rejecting if it
	// carries a non-zero balance. Reopening is the only way back.
	CloseAccount(ctx context.Context, caller Caller, accountNumber string) (*Account, error)
	ReopenAccount(ctx context.Context, caller Caller, accountNumber string) (*Account, error)
}

// SystemAccountRouter lazily materializes and caches the counter-party
// system accounts of spec §4.4.
type SystemAccountRouter interface {
	// SystemAccount returns the account id of the SYSTEM account for
	// (purpose, currency), creating and initializing it to a zero
	// balance on first use.
	SystemAccount(ctx context.Context, tx Tx, purpose SystemPurpose, currency string) (uuid.UUID, error)
}
