package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/northbank/ledgercore/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() (*Engine, *fakeUow) {
	uow := newFakeUow()
	eng := New(uow, NewSystemAccountRouter(), ledger.DefaultConfig(), nil)
	return eng, uow
}

func openAccount(t *testing.T, eng *Engine, owner uuid.UUID, kind ledger.AccountKind, currency string) *ledger.Account {
	t.Helper()
	acct, err := eng.OpenAccount(context.Background(), owner, kind, currency)
	require.NoError(t, err)
	return acct
}

func TestDeposit_CreditsAccount(t *testing.T) {
	eng, uow := newTestEngine()
	owner := uuid.New()
	acct := openAccount(t, eng, owner, ledger.Savings, "USD")

	txn, err := eng.Deposit(context.Background(), ledger.Caller{UserID: owner, Role: ledger.RoleCustomer}, ledger.DepositInput{
		UserID:        owner,
		AccountNumber: acct.AccountNumber,
		Amount:        "100.00",
		Currency:      "USD",
		Description:   "initial funding",
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, txn.Status)
	assert.Equal(t, ledger.Deposit, txn.Kind)

	bal, err := uow.store.ReadBalance(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, bal.Amount.Equal(money100(t)))
}

func TestWithdraw_RejectsOverdraw(t *testing.T) {
	eng, _ := newTestEngine()
	owner := uuid.New()
	acct := openAccount(t, eng, owner, ledger.Savings, "USD")

	_, err := eng.Withdraw(context.Background(), ledger.Caller{UserID: owner, Role: ledger.RoleCustomer}, ledger.WithdrawalInput{
		UserID:        owner,
		AccountNumber: acct.AccountNumber,
		Amount:        "50.00",
		Currency:      "USD",
	})
	require.Error(t, err)
	kind, ok := ledger.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.InsufficientFunds, kind)
}

func TestWithdraw_SucceedsAfterDeposit(t *testing.T) {
	eng, _ := newTestEngine()
	owner := uuid.New()
	acct := openAccount(t, eng, owner, ledger.Savings, "USD")
	ctx := context.Background()
	caller := ledger.Caller{UserID: owner, Role: ledger.RoleCustomer}

	_, err := eng.Deposit(ctx, caller, ledger.DepositInput{UserID: owner, AccountNumber: acct.AccountNumber, Amount: "100.00", Currency: "USD"})
	require.NoError(t, err)

	txn, err := eng.Withdraw(ctx, caller, ledger.WithdrawalInput{UserID: owner, AccountNumber: acct.AccountNumber, Amount: "40.00", Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, txn.Status)
}

func TestTransfer_RequiresOwnership(t *testing.T) {
	eng, _ := newTestEngine()
	owner := uuid.New()
	other := uuid.New()
	from := openAccount(t, eng, owner, ledger.Savings, "USD")
	to := openAccount(t, eng, other, ledger.Savings, "USD")
	ctx := context.Background()

	_, err := eng.Deposit(ctx, ledger.Caller{UserID: owner, Role: ledger.RoleCustomer}, ledger.DepositInput{
		UserID: owner, AccountNumber: from.AccountNumber, Amount: "100.00", Currency: "USD",
	})
	require.NoError(t, err)

	_, err = eng.Transfer(ctx, ledger.Caller{UserID: other, Role: ledger.RoleCustomer}, ledger.TransferInput{
		UserID: other, FromAccountNumber: from.AccountNumber, ToAccountNumber: to.AccountNumber, Amount: "10.00", Currency: "USD",
	})
	require.Error(t, err)
	kind, ok := ledger.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.BadRequest, kind)
}

func TestTransfer_MovesFunds(t *testing.T) {
	eng, uow := newTestEngine()
	owner := uuid.New()
	other := uuid.New()
	from := openAccount(t, eng, owner, ledger.Savings, "USD")
	to := openAccount(t, eng, other, ledger.Savings, "USD")
	ctx := context.Background()
	caller := ledger.Caller{UserID: owner, Role: ledger.RoleCustomer}

	_, err := eng.Deposit(ctx, caller, ledger.DepositInput{UserID: owner, AccountNumber: from.AccountNumber, Amount: "100.00", Currency: "USD"})
	require.NoError(t, err)

	txn, err := eng.Transfer(ctx, caller, ledger.TransferInput{
		UserID: owner, FromAccountNumber: from.AccountNumber, ToAccountNumber: to.AccountNumber, Amount: "30.00", Currency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.Transfer, txn.Kind)

	fromBal, _ := uow.store.ReadBalance(ctx, from.ID)
	toBal, _ := uow.store.ReadBalance(ctx, to.ID)
	assert.True(t, fromBal.Amount.Equal(money70(t)))
	assert.True(t, toBal.Amount.Equal(money30(t)))
}

func TestTransfer_CurrencyMismatch(t *testing.T) {
	eng, _ := newTestEngine()
	owner := uuid.New()
	from := openAccount(t, eng, owner, ledger.Savings, "USD")
	to := openAccount(t, eng, owner, ledger.Savings, "EUR")
	ctx := context.Background()
	caller := ledger.Caller{UserID: owner, Role: ledger.RoleCustomer}

	_, err := eng.Deposit(ctx, caller, ledger.DepositInput{UserID: owner, AccountNumber: from.AccountNumber, Amount: "100.00", Currency: "USD"})
	require.NoError(t, err)

	_, err = eng.Transfer(ctx, caller, ledger.TransferInput{
		UserID: owner, FromAccountNumber: from.AccountNumber, ToAccountNumber: to.AccountNumber, Amount: "10.00", Currency: "USD",
	})
	require.Error(t, err)
	kind, ok := ledger.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.CurrencyMismatch, kind)
}

func TestReverse_RequiresAdmin(t *testing.T) {
	eng, _ := newTestEngine()
	owner := uuid.New()
	acct := openAccount(t, eng, owner, ledger.Savings, "USD")
	ctx := context.Background()
	caller := ledger.Caller{UserID: owner, Role: ledger.RoleCustomer}

	txn, err := eng.Deposit(ctx, caller, ledger.DepositInput{UserID: owner, AccountNumber: acct.AccountNumber, Amount: "100.00", Currency: "USD"})
	require.NoError(t, err)

	_, err = eng.Reverse(ctx, caller, ledger.ReversalInput{UserID: owner, OriginalTransactionID: txn.TransactionID, Reason: "test"})
	require.Error(t, err)
	kind, ok := ledger.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.BadRequest, kind)
}

func TestReverse_UndoesEntriesAndRejectsSecondReversal(t *testing.T) {
	eng, uow := newTestEngine()
	owner := uuid.New()
	admin := uuid.New()
	acct := openAccount(t, eng, owner, ledger.Savings, "USD")
	ctx := context.Background()

	txn, err := eng.Deposit(ctx, ledger.Caller{UserID: owner, Role: ledger.RoleCustomer}, ledger.DepositInput{
		UserID: owner, AccountNumber: acct.AccountNumber, Amount: "100.00", Currency: "USD",
	})
	require.NoError(t, err)

	adminCaller := ledger.Caller{UserID: admin, Role: ledger.RoleAdmin}
	reversal, err := eng.Reverse(ctx, adminCaller, ledger.ReversalInput{
		UserID: admin, OriginalTransactionID: txn.TransactionID, Reason: "chargeback",
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.Reversal, reversal.Kind)

	bal, err := uow.store.ReadBalance(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, bal.Amount.IsZero())

	_, err = eng.Reverse(ctx, adminCaller, ledger.ReversalInput{
		UserID: admin, OriginalTransactionID: txn.TransactionID, Reason: "again",
	})
	require.Error(t, err)
	kind, ok := ledger.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.AlreadyReversed, kind)
}

func TestFee_DebitsAccountWithDescription(t *testing.T) {
	eng, uow := newTestEngine()
	owner := uuid.New()
	acct := openAccount(t, eng, owner, ledger.Savings, "USD")
	ctx := context.Background()
	caller := ledger.Caller{UserID: owner, Role: ledger.RoleCustomer}

	_, err := eng.Deposit(ctx, caller, ledger.DepositInput{UserID: owner, AccountNumber: acct.AccountNumber, Amount: "100.00", Currency: "USD"})
	require.NoError(t, err)

	txn, err := eng.Fee(ctx, caller, ledger.FeeInput{
		UserID: owner, AccountNumber: acct.AccountNumber, Amount: "5.00", Currency: "USD", Description: "monthly maintenance fee",
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.Fee, txn.Kind)

	bal, err := uow.store.ReadBalance(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, bal.Amount.Equal(money95(t)))
}

func TestSweepPending_CompletesAndIsolatesFailures(t *testing.T) {
	eng, uow := newTestEngine()
	owner := uuid.New()
	acct := openAccount(t, eng, owner, ledger.Savings, "USD")
	ctx := context.Background()

	_, err := eng.Deposit(ctx, ledger.Caller{UserID: owner, Role: ledger.RoleCustomer}, ledger.DepositInput{
		UserID: owner, AccountNumber: acct.AccountNumber, Amount: "20.00", Currency: "USD",
	})
	require.NoError(t, err)

	sysID, err := eng.router.SystemAccount(ctx, fakeTx{store: uow.store}, ledger.PurposeWithdrawals, "USD")
	require.NoError(t, err)

	good := ledger.Transaction{
		ID: uuid.New(), TransactionID: "TXN-PENDINGGOOD", Kind: ledger.Withdrawal,
		InitiatorUserID: owner, Currency: "USD", Amount: money10(t),
		Entries: []ledger.Entry{
			{AccountID: acct.ID, Side: ledger.Debit, Amount: money10(t)},
			{AccountID: sysID, Side: ledger.Credit, Amount: money10(t)},
		},
		Status: ledger.StatusPending, FromAccountNumber: acct.AccountNumber,
		CreatedAt: pastTime(), UpdatedAt: pastTime(),
	}
	bad := ledger.Transaction{
		ID: uuid.New(), TransactionID: "TXN-PENDINGBAD", Kind: ledger.Withdrawal,
		InitiatorUserID: owner, Currency: "USD", Amount: money1000(t),
		Entries: []ledger.Entry{
			{AccountID: acct.ID, Side: ledger.Debit, Amount: money1000(t)},
			{AccountID: sysID, Side: ledger.Credit, Amount: money1000(t)},
		},
		Status: ledger.StatusPending, FromAccountNumber: acct.AccountNumber,
		CreatedAt: pastTime(), UpdatedAt: pastTime(),
	}
	require.NoError(t, uow.store.AppendTransaction(ctx, &good))
	require.NoError(t, uow.store.AppendTransaction(ctx, &bad))

	result, err := eng.SweepPending(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.FailedIDs, "TXN-PENDINGBAD")

	completed, err := uow.store.FindByTransactionID(ctx, "TXN-PENDINGGOOD")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, completed.Status)

	failed, err := uow.store.FindByTransactionID(ctx, "TXN-PENDINGBAD")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusFailed, failed.Status)
}

func TestCloseAccount_RejectsOperationsUntilReopened(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()
	owner := uuid.New()
	admin := ledger.Caller{UserID: uuid.New(), Role: ledger.RoleAdmin}
	acct := openAccount(t, eng, owner, ledger.Savings, "USD")

	closed, err := eng.CloseAccount(ctx, admin, acct.AccountNumber)
	require.NoError(t, err)
	assert.False(t, closed.Active)

	_, err = eng.Deposit(ctx, ledger.Caller{UserID: owner, Role: ledger.RoleCustomer}, ledger.DepositInput{
		UserID: owner, AccountNumber: acct.AccountNumber, Amount: "10.00", Currency: "USD",
	})
	require.Error(t, err)
	kind, ok := ledger.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.InactiveAccount, kind)

	reopened, err := eng.ReopenAccount(ctx, admin, acct.AccountNumber)
	require.NoError(t, err)
	assert.True(t, reopened.Active)

	_, err = eng.Deposit(ctx, ledger.Caller{UserID: owner, Role: ledger.RoleCustomer}, ledger.DepositInput{
		UserID: owner, AccountNumber: acct.AccountNumber, Amount: "10.00", Currency: "USD",
	})
	require.NoError(t, err)
}

func TestCloseAccount_RejectsNonAdminCaller(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()
	owner := uuid.New()
	acct := openAccount(t, eng, owner, ledger.Savings, "USD")

	_, err := eng.CloseAccount(ctx, ledger.Caller{UserID: owner, Role: ledger.RoleCustomer}, acct.AccountNumber)
	require.Error(t, err)
	kind, ok := ledger.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.BadRequest, kind)
}

func TestCloseAccount_RejectsNonZeroBalance(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()
	owner := uuid.New()
	admin := ledger.Caller{UserID: uuid.New(), Role: ledger.RoleAdmin}
	acct := openAccount(t, eng, owner, ledger.Savings, "USD")

	_, err := eng.Deposit(ctx, ledger.Caller{UserID: owner, Role: ledger.RoleCustomer}, ledger.DepositInput{
		UserID: owner, AccountNumber: acct.AccountNumber, Amount: "10.00", Currency: "USD",
	})
	require.NoError(t, err)

	_, err = eng.CloseAccount(ctx, admin, acct.AccountNumber)
	require.Error(t, err)
	kind, ok := ledger.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ledger.BadRequest, kind)
}
