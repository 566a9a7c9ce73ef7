package gormstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/northbank/ledgercore/pkg/ledger"
	"github.com/northbank/ledgercore/pkg/money"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	dialector := postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"})
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func TestAccountStore_GetByAccountNumber_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "accounts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	store := accountStore{db: db}
	_, err := store.GetByAccountNumber(context.Background(), "ACCT-0000-0000-0000")
	require.Error(t, err)
	kind, ok := ledger.KindOf(err)
	require.True(t, ok)
	require.Equal(t, ledger.NotFound, kind)
}

func TestAccountStore_Create_DuplicateAccountNumber(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "accounts"`).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "accounts_account_number_key" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	store := accountStore{db: db}
	acct := &ledger.Account{ID: uuid.New(), AccountNumber: "ACCT-0000-0000-0000", Kind: ledger.Savings, Currency: "USD", Active: true}
	err := store.Create(context.Background(), acct)
	require.Error(t, err)
	kind, ok := ledger.KindOf(err)
	require.True(t, ok)
	require.Equal(t, ledger.Conflict, kind)
}

func TestUnitOfWork_Do_TranslatesSerializationFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "balances"`).
		WillReturnError(errors.New(`ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)`))
	mock.ExpectRollback()

	uow := New(db)
	err := uow.Do(context.Background(), func(tx ledger.Tx) error {
		return tx.Balances().WriteBalance(context.Background(), uuid.New(), ledger.Balance{Amount: money.Zero("USD")}, time.Now())
	})
	require.Error(t, err)
	kind, ok := ledger.KindOf(err)
	require.True(t, ok)
	require.Equal(t, ledger.SerializationConflict, kind)
}

func TestJournalStore_MarkStatus_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	err := db.Transaction(func(tx *gorm.DB) error {
		return journalStore{db: tx}.MarkStatus(context.Background(), "DEP-MISSING", ledger.StatusCompleted, nil, "")
	})
	require.Error(t, err)
	kind, ok := ledger.KindOf(err)
	require.True(t, ok)
	require.Equal(t, ledger.NotFound, kind)
}
