package gormstore

import (
	"context"
	"database/sql"

	"github.com/northbank/ledgercore/pkg/ledger"
	"gorm.io/gorm"
)

// UnitOfWork implements ledger.UnitOfWork over a *gorm.DB, modeled on
// the teacher's infra/repository.UoW.Do: one *gorm.DB.Transaction call
// per commit frame, with every store handed the same *gorm.DB session.
// Unlike the teacher's reflect-based repository registry, the three
// ledger stores are fixed and constructed directly — there's no open
// set of repository types to look up.
type UnitOfWork struct {
	db *gorm.DB
}

// New wraps db as a ledger.UnitOfWork.
func New(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(tx ledger.Tx) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTx{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err == nil {
		return nil
	}
	if le, ok := err.(*ledger.Error); ok {
		if le.Kind == ledger.StoreUnavailable && isSerializationFailure(le.Cause) {
			return ledger.Wrap(ledger.SerializationConflict, "serialization failure", le.Cause)
		}
		return le
	}
	if isSerializationFailure(err) {
		return ledger.Wrap(ledger.SerializationConflict, "serialization failure", err)
	}
	return ledger.Wrap(ledger.StoreUnavailable, "transaction failed", err)
}

// gormTx hands out the three store implementations bound to one
// in-flight *gorm.DB transaction handle.
type gormTx struct {
	db *gorm.DB
}

func (t gormTx) Accounts() ledger.AccountStore { return accountStore{db: t.db} }
func (t gormTx) Balances() ledger.BalanceStore { return balanceStore{db: t.db} }
func (t gormTx) Journal() ledger.JournalStore  { return journalStore{db: t.db} }

// Migrate applies the gormstore schema. Intended for cmd/ledgerctl and
// tests; production migrations would normally run through a dedicated
// tool, but the teacher's infra/database.go also calls AutoMigrate
// directly at startup, so this follows the same shape.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&accountModel{}, &balanceModel{}, &entryModel{}, &transactionModel{})
}
