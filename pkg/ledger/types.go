// Package ledger defines the public contract of the ledger core: the
// data model (spec §3), the operation inputs (spec §6.1), the typed
// error taxonomy (spec §7), the query/paging grammar (spec §4.3), and
// the Engine interface that orchestrates the five primitives (spec
// §4.5). Concrete storage and the Engine implementation live under
// internal/storage and pkg/ledger/engine respectively.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/northbank/ledgercore/pkg/money"
)

// AccountKind enumerates the kinds of account the ledger tracks (spec §3).
type AccountKind string

const (
	Savings    AccountKind = "SAVINGS"
	Investment AccountKind = "INVESTMENT"
	CreditAccount AccountKind = "CREDIT"
	System     AccountKind = "SYSTEM"
)

// SystemPurpose enumerates the counter-party roles the System-Account
// Router materializes (spec §4.4).
type SystemPurpose string

const (
	PurposeDeposits    SystemPurpose = "DEPOSITS"
	PurposeWithdrawals SystemPurpose = "WITHDRAWALS"
	PurposeFees        SystemPurpose = "FEES"
)

// TransactionKind enumerates the kinds of transaction the journal
// records (spec §3). The core ledger only ever constructs DEPOSIT,
// WITHDRAWAL, TRANSFER, FEE, and REVERSAL; the remaining kinds are
// reserved for collaborators that post directly against the journal
// (e.g. a future PAYMENT processor) and are validated the same way.
type TransactionKind string

const (
	Deposit    TransactionKind = "DEPOSIT"
	Withdrawal TransactionKind = "WITHDRAWAL"
	Transfer   TransactionKind = "TRANSFER"
	Payment    TransactionKind = "PAYMENT"
	Fee        TransactionKind = "FEE"
	Interest   TransactionKind = "INTEREST"
	Adjustment TransactionKind = "ADJUSTMENT"
	Reversal   TransactionKind = "REVERSAL"
	Refund     TransactionKind = "REFUND"
)

// EntrySide is one side of a double-entry posting.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// Status is a Transaction's lifecycle state (spec §4.5.8).
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
)

// legalTransitions is the state machine of spec §4.5.8. Any transition
// not listed here, including every move out of a terminal state, is
// IllegalStateTransition.
var legalTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusProcessing: true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusCompleted: true,
		StatusFailed:    true,
	},
}

// ValidTransition reports whether moving a transaction from `from` to
// `to` is legal under spec §4.5.8. Store implementations call this
// before persisting a status change.
func ValidTransition(from, to Status) bool {
	return legalTransitions[from][to]
}

// Account is the entity of spec §3 "Account".
type Account struct {
	ID            uuid.UUID
	AccountNumber string
	OwnerID       uuid.UUID
	Kind          AccountKind
	Currency      money.Code
	Active        bool
	Metadata      map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
}

// Balance is the entity of spec §3 "Balance", stored separately from
// Account (invariant: hot balance updates never contend with
// account-metadata reads).
type Balance struct {
	AccountID   uuid.UUID
	Currency    money.Code
	Amount      money.Money
	LastUpdated time.Time
}

// Entry is the value object of spec §3 "Entry", embedded in a Transaction.
type Entry struct {
	AccountID uuid.UUID
	Side      EntrySide
	Amount    money.Money
}

// Transaction is the entity of spec §3 "Transaction".
type Transaction struct {
	ID               uuid.UUID
	TransactionID    string
	Kind             TransactionKind
	InitiatorUserID  uuid.UUID
	Entries          []Entry
	Amount           money.Money
	Currency         money.Code
	FromAccountNumber string
	ToAccountNumber   string
	Status           Status
	Description      string
	Reference        string
	Metadata         map[string]any
	FailureReason    string
	ProcessedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OriginalTransactionID returns the metadata key REVERSAL transactions
// carry (spec §4.5.5, T6).
func (t Transaction) OriginalTransactionID() (string, bool) {
	if t.Metadata == nil {
		return "", false
	}
	v, ok := t.Metadata["originalTransactionId"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
