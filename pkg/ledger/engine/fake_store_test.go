package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/northbank/ledgercore/pkg/ledger"
)

// memStore is a minimal in-memory stand-in for the three stores,
// exercised only by this package's tests — not a reference
// implementation of internal/storage.
type memStore struct {
	mu               sync.Mutex
	accountsByID     map[uuid.UUID]ledger.Account
	accountsByNumber map[string]uuid.UUID
	balances         map[uuid.UUID]ledger.Balance
	txByID           map[string]ledger.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		accountsByID:     make(map[uuid.UUID]ledger.Account),
		accountsByNumber: make(map[string]uuid.UUID),
		balances:         make(map[uuid.UUID]ledger.Balance),
		txByID:           make(map[string]ledger.Transaction),
	}
}

type memSnapshot struct {
	accountsByID     map[uuid.UUID]ledger.Account
	accountsByNumber map[string]uuid.UUID
	balances         map[uuid.UUID]ledger.Balance
	txByID           map[string]ledger.Transaction
}

func (s *memStore) snapshot() memSnapshot {
	clone := func() memSnapshot {
		snap := memSnapshot{
			accountsByID:     make(map[uuid.UUID]ledger.Account, len(s.accountsByID)),
			accountsByNumber: make(map[string]uuid.UUID, len(s.accountsByNumber)),
			balances:         make(map[uuid.UUID]ledger.Balance, len(s.balances)),
			txByID:           make(map[string]ledger.Transaction, len(s.txByID)),
		}
		for k, v := range s.accountsByID {
			snap.accountsByID[k] = v
		}
		for k, v := range s.accountsByNumber {
			snap.accountsByNumber[k] = v
		}
		for k, v := range s.balances {
			snap.balances[k] = v
		}
		for k, v := range s.txByID {
			snap.txByID[k] = v
		}
		return snap
	}
	return clone()
}

func (s *memStore) restore(snap memSnapshot) {
	s.accountsByID = snap.accountsByID
	s.accountsByNumber = snap.accountsByNumber
	s.balances = snap.balances
	s.txByID = snap.txByID
}

// fakeUow implements ledger.UnitOfWork over one memStore, serializing
// every Do() call and rolling back to a pre-call snapshot on error.
type fakeUow struct {
	store *memStore
}

func newFakeUow() *fakeUow { return &fakeUow{store: newMemStore()} }

func (u *fakeUow) Do(ctx context.Context, fn func(tx ledger.Tx) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	snap := u.store.snapshot()
	if err := fn(fakeTx{store: u.store}); err != nil {
		u.store.restore(snap)
		return err
	}
	return nil
}

type fakeTx struct {
	store *memStore
}

func (t fakeTx) Accounts() ledger.AccountStore { return t.store }
func (t fakeTx) Balances() ledger.BalanceStore { return t.store }
func (t fakeTx) Journal() ledger.JournalStore  { return t.store }

func (s *memStore) Get(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	a, ok := s.accountsByID[id]
	if !ok {
		return nil, ledger.New(ledger.NotFound, "account not found")
	}
	cp := a
	return &cp, nil
}

func (s *memStore) GetByAccountNumber(ctx context.Context, accountNumber string) (*ledger.Account, error) {
	id, ok := s.accountsByNumber[accountNumber]
	if !ok {
		return nil, ledger.New(ledger.NotFound, "account not found")
	}
	return s.Get(ctx, id)
}

func (s *memStore) Create(ctx context.Context, a *ledger.Account) error {
	if _, exists := s.accountsByNumber[a.AccountNumber]; exists {
		return ledger.New(ledger.Conflict, "duplicate account number")
	}
	s.accountsByID[a.ID] = *a
	s.accountsByNumber[a.AccountNumber] = a.ID
	return nil
}

func (s *memStore) UpdateVersion(ctx context.Context, a *ledger.Account) error {
	cur, ok := s.accountsByID[a.ID]
	if !ok {
		return ledger.New(ledger.NotFound, "account not found")
	}
	if cur.Version != a.Version {
		return ledger.New(ledger.SerializationConflict, "account version mismatch")
	}
	a.Version++
	s.accountsByID[a.ID] = *a
	return nil
}

func (s *memStore) ReadBalance(ctx context.Context, accountID uuid.UUID) (*ledger.Balance, error) {
	b, ok := s.balances[accountID]
	if !ok {
		return nil, ledger.New(ledger.NotFound, "balance not found")
	}
	cp := b
	return &cp, nil
}

func (s *memStore) WriteBalance(ctx context.Context, accountID uuid.UUID, newAmount ledger.Balance, now time.Time) error {
	if _, ok := s.balances[accountID]; !ok {
		return ledger.New(ledger.NotFound, "balance not found")
	}
	newAmount.LastUpdated = now
	s.balances[accountID] = newAmount
	return nil
}

func (s *memStore) InitBalance(ctx context.Context, accountID uuid.UUID, b ledger.Balance) error {
	if _, exists := s.balances[accountID]; exists {
		return ledger.New(ledger.Conflict, "balance already initialized")
	}
	s.balances[accountID] = b
	return nil
}

func (s *memStore) AppendTransaction(ctx context.Context, txn *ledger.Transaction) error {
	if _, exists := s.txByID[txn.TransactionID]; exists {
		return ledger.New(ledger.Conflict, "duplicate transaction id")
	}
	s.txByID[txn.TransactionID] = *txn
	return nil
}

func (s *memStore) MarkStatus(ctx context.Context, transactionID string, status ledger.Status, processedAt *time.Time, failureReason string) error {
	t, ok := s.txByID[transactionID]
	if !ok {
		return ledger.New(ledger.NotFound, "transaction not found")
	}
	if !ledger.ValidTransition(t.Status, status) {
		return ledger.New(ledger.IllegalStateTransition, fmt.Sprintf("cannot transition %s from %s to %s", transactionID, t.Status, status))
	}
	t.Status = status
	t.ProcessedAt = processedAt
	t.FailureReason = failureReason
	t.UpdatedAt = time.Now().UTC()
	s.txByID[transactionID] = t
	return nil
}

func (s *memStore) FindByTransactionID(ctx context.Context, transactionID string) (*ledger.Transaction, error) {
	t, ok := s.txByID[transactionID]
	if !ok {
		return nil, ledger.New(ledger.NotFound, "transaction not found")
	}
	cp := t
	return &cp, nil
}

func (s *memStore) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	for _, t := range s.txByID {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, ledger.New(ledger.NotFound, "transaction not found")
}

func (s *memStore) FindReversalOf(ctx context.Context, transactionID string) (*ledger.Transaction, error) {
	for _, t := range s.txByID {
		if t.Kind != ledger.Reversal || t.Status != ledger.StatusCompleted {
			continue
		}
		if orig, ok := t.OriginalTransactionID(); ok && orig == transactionID {
			cp := t
			return &cp, nil
		}
	}
	return nil, ledger.New(ledger.NotFound, "no reversal found")
}

func (s *memStore) ListByUser(ctx context.Context, userID uuid.UUID, filter ledger.Filter, paging ledger.Paging) (ledger.Page[ledger.Transaction], error) {
	var items []ledger.Transaction
	for _, t := range s.txByID {
		if t.InitiatorUserID == userID {
			items = append(items, t)
		}
	}
	return paginate(items, paging), nil
}

func (s *memStore) ListByAccount(ctx context.Context, accountNumber string, filter ledger.Filter, paging ledger.Paging) (ledger.Page[ledger.Transaction], error) {
	var items []ledger.Transaction
	for _, t := range s.txByID {
		if t.FromAccountNumber == accountNumber || t.ToAccountNumber == accountNumber {
			items = append(items, t)
		}
	}
	return paginate(items, paging), nil
}

func paginate(items []ledger.Transaction, paging ledger.Paging) ledger.Page[ledger.Transaction] {
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	total := int64(len(items))
	start := paging.Offset()
	if start > len(items) {
		start = len(items)
	}
	end := start + paging.Limit
	if end > len(items) {
		end = len(items)
	}
	return ledger.Page[ledger.Transaction]{Items: items[start:end], Total: total, Page: paging.Page, Limit: paging.Limit}
}

func (s *memStore) AggregateByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) (ledger.UserStats, error) {
	return ledger.UserStats{}, nil
}

func (s *memStore) AggregateByAccount(ctx context.Context, accountNumber string, from, to time.Time) (ledger.AccountStats, error) {
	return ledger.AccountStats{}, nil
}

func (s *memStore) SelectPendingOlderThan(ctx context.Context, olderThan time.Duration) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	cutoff := time.Now().UTC().Add(-olderThan)
	for _, t := range s.txByID {
		if t.Status == ledger.StatusPending && t.CreatedAt.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out, nil
}
