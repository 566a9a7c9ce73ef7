package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/northbank/ledgercore/pkg/ledger"
	"github.com/northbank/ledgercore/pkg/mint"
	"github.com/northbank/ledgercore/pkg/money"
	"github.com/shopspring/decimal"
)

// systemUserID is the reserved owner of every SYSTEM-kind account
// (spec §4.4: "reserved System User").
var systemUserID = uuid.Nil

// cacheKey identifies one (purpose, currency) counter-party account.
type cacheKey struct {
	purpose  ledger.SystemPurpose
	currency string
}

// router implements ledger.SystemAccountRouter. Its in-process cache is
// populated write-once per (purpose,currency): a miss takes the
// exclusion lock, re-checks, and creates under the same commit context
// the caller is already inside (spec §4.4, §5: "writes are idempotent
// (rediscovery is safe)").
type router struct {
	mu    sync.Mutex
	cache map[cacheKey]uuid.UUID
}

// NewSystemAccountRouter constructs a process-wide System-Account Router.
func NewSystemAccountRouter() ledger.SystemAccountRouter {
	return &router{cache: make(map[cacheKey]uuid.UUID)}
}

func (r *router) SystemAccount(ctx context.Context, tx ledger.Tx, purpose ledger.SystemPurpose, currency string) (uuid.UUID, error) {
	key := cacheKey{purpose: purpose, currency: currency}

	r.mu.Lock()
	if id, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return id, nil
	}
	// Hold the lock across the lazy-create step so concurrent misses for
	// the same key serialize onto one creation attempt per process
	// (spec §5: "a simple exclusion primitive so the lazy-create step
	// runs at most once per (purpose,currency) per process").
	defer r.mu.Unlock()

	accountNumber := fmt.Sprintf("SYS-%s-%s", purpose, currency)
	existing, err := tx.Accounts().GetByAccountNumber(ctx, accountNumber)
	if err == nil {
		r.cache[key] = existing.ID
		return existing.ID, nil
	}
	if k, ok := ledger.KindOf(err); !ok || k != ledger.NotFound {
		return uuid.Nil, err
	}

	acct := &ledger.Account{
		ID:            uuid.New(),
		AccountNumber: accountNumber,
		OwnerID:       systemUserID,
		Kind:          ledger.System,
		Currency:      money.Code(currency),
		Active:        true,
		Metadata:      map[string]any{"purpose": string(purpose)},
		CreatedAt:     now(),
		UpdatedAt:     now(),
		Version:       1,
	}
	if err := tx.Accounts().Create(ctx, acct); err != nil {
		return uuid.Nil, err
	}
	zero, err := money.New(decimal.Zero, money.Code(currency))
	if err != nil {
		return uuid.Nil, err
	}
	if err := tx.Balances().InitBalance(ctx, acct.ID, ledger.Balance{
		AccountID:   acct.ID,
		Currency:    money.Code(currency),
		Amount:      zero,
		LastUpdated: now(),
	}); err != nil {
		return uuid.Nil, err
	}

	r.cache[key] = acct.ID
	return acct.ID, nil
}

// mintAccountNumberForCustomer is kept alongside the router so customer
// account creation and system account creation share one mint.
func mintAccountNumberForCustomer() string {
	return mint.AccountNumber()
}
