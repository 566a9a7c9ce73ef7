package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UnitOfWork provides the ambient, serializable commit context of spec
// §5: every ledger operation opens one Do() boundary and reads/writes
// the three stores through the Tx handed to its callback. This mirrors
// the teacher's repository.UnitOfWork shape (Do + typed repository
// getters) generalized to the ledger's three stores instead of GORM
// entity repositories.
type UnitOfWork interface {
	// Do runs fn inside one serializable transaction. If fn returns an
	// error, or the underlying store detects a serialization conflict,
	// the transaction rolls back and Do returns the error (or a
	// *ledger.Error of Kind SerializationConflict/StoreUnavailable).
	// Retrying a SerializationConflict is the engine's job, not Do's.
	Do(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of store handles available inside one commit context.
type Tx interface {
	Accounts() AccountStore
	Balances() BalanceStore
	Journal() JournalStore
}

// AccountStore is the read/write surface onto the accounts collection
// (spec §6.3).
type AccountStore interface {
	Get(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*Account, error)
	Create(ctx context.Context, a *Account) error
	// UpdateVersion persists mutated fields on a and advances its
	// optimistic-concurrency Version; fails with SerializationConflict if
	// the stored version has moved since a was read.
	UpdateVersion(ctx context.Context, a *Account) error
}

// BalanceStore is the durable account→balance mapping of spec §4.2.
type BalanceStore interface {
	// ReadBalance returns NotFound if no balance row exists for accountID.
	ReadBalance(ctx context.Context, accountID uuid.UUID) (*Balance, error)
	// WriteBalance updates amount and lastUpdated. A concurrent change to
	// the row under serializable isolation surfaces from UnitOfWork.Do as
	// SerializationConflict.
	WriteBalance(ctx context.Context, accountID uuid.UUID, newAmount Balance, now time.Time) error
	// InitBalance is used only at account creation; fails with Conflict
	// (DuplicateBalance) if a balance row already exists.
	InitBalance(ctx context.Context, accountID uuid.UUID, b Balance) error
}

// JournalStore is the append-only transaction log of spec §4.3.
type JournalStore interface {
	// AppendTransaction inserts tx with the status it carries (the
	// engine's primitives build it at PROCESSING) after the caller has
	// validated T1-T4. Fails with Conflict on a duplicate TransactionID.
	AppendTransaction(ctx context.Context, tx *Transaction) error
	// MarkStatus transitions tx's status; only the transitions named in
	// spec §4.5.8 are legal, all others fail IllegalStateTransition.
	MarkStatus(ctx context.Context, transactionID string, status Status, processedAt *time.Time, failureReason string) error
	FindByTransactionID(ctx context.Context, transactionID string) (*Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// FindReversalOf returns the COMPLETED REVERSAL (if any) whose
	// metadata.originalTransactionId equals transactionID (T6).
	FindReversalOf(ctx context.Context, transactionID string) (*Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter Filter, paging Paging) (Page[Transaction], error)
	ListByAccount(ctx context.Context, accountNumber string, filter Filter, paging Paging) (Page[Transaction], error)
	AggregateByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) (UserStats, error)
	AggregateByAccount(ctx context.Context, accountNumber string, from, to time.Time) (AccountStats, error)
	// SelectPendingOlderThan returns every PENDING transaction whose
	// CreatedAt is older than olderThan, for the sweep (spec §4.5.6).
	SelectPendingOlderThan(ctx context.Context, olderThan time.Duration) ([]Transaction, error)
}
