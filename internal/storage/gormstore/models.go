// Package gormstore is the GORM/Postgres-backed implementation of
// pkg/ledger's three stores (AccountStore, BalanceStore, JournalStore)
// and its UnitOfWork, grounded on the teacher's infra/repository
// GORM-model and uow.go style.
package gormstore

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// accountModel is the accounts table row.
type accountModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountNumber string    `gorm:"size:32;uniqueIndex"`
	OwnerID       uuid.UUID `gorm:"type:uuid;index"`
	Kind          string    `gorm:"size:16"`
	Currency      string    `gorm:"size:3"`
	Active        bool
	Metadata      []byte `gorm:"type:jsonb"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
}

func (accountModel) TableName() string { return "accounts" }

// balanceModel is the balances table row, one per account (spec §4.2:
// stored separately from accounts so balance writes never contend with
// account-metadata reads).
type balanceModel struct {
	AccountID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Currency    string    `gorm:"size:3"`
	Amount      string    `gorm:"type:numeric;not null"`
	LastUpdated time.Time
}

func (balanceModel) TableName() string { return "balances" }

// entryModel is one posting within a transaction.
type entryModel struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	TransactionID string    `gorm:"size:64;index"`
	AccountID     uuid.UUID `gorm:"type:uuid;index"`
	Side          string    `gorm:"size:8"`
	Amount        string    `gorm:"type:numeric;not null"`
}

func (entryModel) TableName() string { return "entries" }

// transactionModel is the journal table row (spec §4.3: append-only).
// OriginalTransactionID denormalizes Metadata["originalTransactionId"]
// into its own indexed column so FindReversalOf doesn't need a JSON
// predicate.
type transactionModel struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransactionID         string    `gorm:"size:64;uniqueIndex"`
	Kind                  string    `gorm:"size:16;index"`
	InitiatorUserID       uuid.UUID `gorm:"type:uuid;index"`
	Amount                string    `gorm:"type:numeric;not null"`
	Currency              string    `gorm:"size:3"`
	FromAccountNumber     string    `gorm:"size:32;index"`
	ToAccountNumber       string    `gorm:"size:32;index"`
	Status                string    `gorm:"size:16;index"`
	Description           string    `gorm:"size:500"`
	Reference             string    `gorm:"size:200"`
	Metadata              []byte    `gorm:"type:jsonb"`
	OriginalTransactionID *string   `gorm:"size:64;index"`
	FailureReason         string    `gorm:"size:500"`
	ProcessedAt           *time.Time
	CreatedAt             time.Time `gorm:"index"`
	UpdatedAt             time.Time

	Entries []entryModel `gorm:"-"`
}

func (transactionModel) TableName() string { return "transactions" }

func marshalMetadata(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

func unmarshalMetadata(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
