package kafkapublish

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/northbank/ledgercore/pkg/ledger"
	"github.com/northbank/ledgercore/pkg/money"
	"github.com/stretchr/testify/require"
)

func TestPublishCompleted_IsBestEffortOnUnreachableBroker(t *testing.T) {
	// No broker listens on this address; PublishCompleted must swallow
	// the dial failure rather than panicking or blocking past its
	// internal timeout.
	p := New([]string{"127.0.0.1:1"}, nil)
	defer p.writer.Close()

	txn := &ledger.Transaction{
		ID:            uuid.New(),
		TransactionID: "DEP-TESTTXN-ABCDEF12",
		Kind:          ledger.Deposit,
		Status:        ledger.StatusCompleted,
		Amount:        money.MustNewFromString("10.00", "USD"),
		Currency:      "USD",
		ToAccountNumber: "ACCT-0000-0000-0000",
	}

	done := make(chan struct{})
	go func() {
		p.PublishCompleted(txn)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("PublishCompleted did not return within its own timeout budget")
	}
}

func TestTransactionEvent_MarshalsDecimalAmountAsString(t *testing.T) {
	evt := transactionEvent{
		TransactionID: "DEP-TESTTXN-ABCDEF12",
		Kind:          string(ledger.Deposit),
		Status:        string(ledger.StatusCompleted),
		Amount:        "10.00",
		Currency:      "USD",
	}
	data, err := json.Marshal(evt)
	require.NoError(t, err)
	require.Contains(t, string(data), `"amount":"10.00"`)
}
