package mint_test

import (
	"testing"

	"github.com/northbank/ledgercore/pkg/mint"
	"github.com/stretchr/testify/assert"
)

func TestAccountNumber_Format(t *testing.T) {
	for i := 0; i < 50; i++ {
		n := mint.AccountNumber()
		assert.True(t, mint.IsValidAccountNumber(n), "got %q", n)
	}
}

func TestTransactionID_Format(t *testing.T) {
	for _, prefix := range []string{"DEP", "WDR", "TRF", "FEE", "REV"} {
		id := mint.TransactionID(prefix)
		assert.True(t, mint.IsValidTransactionID(id), "got %q", id)
		assert.Contains(t, id, prefix+"-")
	}
}

func TestTransactionID_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := mint.TransactionID("DEP")
		assert.False(t, seen[id], "collision at iteration %d: %s", i, id)
		seen[id] = true
	}
}

func TestTransactionID_PanicsOnUnknownPrefix(t *testing.T) {
	assert.Panics(t, func() {
		mint.TransactionID("XXX")
	})
}
