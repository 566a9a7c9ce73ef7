// Package engine implements the Ledger Engine (spec §4.5): the
// orchestrator of the five primitives, reversal, the pending-sweep, and
// the statistics read path. It is the only writer of the Balance Store
// and Journal Store (spec §2).
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/northbank/ledgercore/pkg/ledger"
	"github.com/northbank/ledgercore/pkg/mint"
	"github.com/northbank/ledgercore/pkg/money"
)

// Engine implements ledger.Engine over an injected ledger.UnitOfWork and
// ledger.SystemAccountRouter, following the teacher's service-struct
// shape (deps + *slog.Logger, one method per business operation).
type Engine struct {
	uow       ledger.UnitOfWork
	router    ledger.SystemAccountRouter
	cfg       ledger.Config
	logger    *slog.Logger
	publisher EventPublisher
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithPublisher attaches a best-effort post-commit event publisher.
func WithPublisher(p EventPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// New constructs a ledger Engine. A nil logger is replaced with a
// discard logger so every operation can log unconditionally.
func New(uow ledger.UnitOfWork, router ledger.SystemAccountRouter, cfg ledger.Config, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Engine{uow: uow, router: router, cfg: cfg, logger: logger, publisher: NoopPublisher()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// commit runs fn inside the ambient serializable commit context of spec
// §5, retrying internal serialization conflicts up to
// cfg.ConcurrencyMaxRetries times with exponential backoff before
// surfacing ConcurrencyExhausted. Non-conflict errors (validation,
// NotFound, InsufficientFunds, ...) propagate immediately without
// retry, per spec §4.5.9.
func (e *Engine) commit(ctx context.Context, fn func(tx ledger.Tx) error) error {
	backoff := e.cfg.ConcurrencyBaseBackoff
	var lastErr error
	for attempt := 0; attempt <= e.cfg.ConcurrencyMaxRetries; attempt++ {
		err := e.uow.Do(ctx, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return ledger.Wrap(ledger.Cancelled, "context canceled", ctx.Err())
			}
			return ledger.Wrap(ledger.DeadlineExceeded, "context deadline exceeded", ctx.Err())
		}
		kind, ok := ledger.KindOf(err)
		if !ok || kind != ledger.SerializationConflict {
			return err
		}
		lastErr = err
		if attempt == e.cfg.ConcurrencyMaxRetries {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ledger.Wrap(ledger.DeadlineExceeded, "context deadline exceeded", ctx.Err())
		}
		backoff *= 2
	}
	return ledger.Wrap(ledger.ConcurrencyExhausted, "serialization retries exceeded", lastErr)
}

func (e *Engine) resolveCustomerAccount(ctx context.Context, tx ledger.Tx, accountNumber string, currency money.Code) (*ledger.Account, *ledger.Balance, error) {
	acct, err := tx.Accounts().GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, nil, err
	}
	if !acct.Active {
		return nil, nil, ledger.New(ledger.InactiveAccount, fmt.Sprintf("account %s is not active", accountNumber))
	}
	if acct.Currency != currency {
		return nil, nil, ledger.New(ledger.CurrencyMismatch, fmt.Sprintf("account %s is %s, operation declared %s", accountNumber, acct.Currency, currency))
	}
	bal, err := tx.Balances().ReadBalance(ctx, acct.ID)
	if err != nil {
		return nil, nil, err
	}
	return acct, bal, nil
}

func parseAmount(raw string, currency money.Code) (money.Money, error) {
	m, err := money.NewFromString(raw, currency)
	if err != nil {
		return money.Money{}, ledger.Wrap(ledger.BadRequest, "invalid amount", err)
	}
	if !m.IsPositive() {
		return money.Money{}, ledger.New(ledger.BadRequest, "amount must be positive")
	}
	return m, nil
}

func parseCurrency(raw string) (money.Code, error) {
	c := money.Code(raw)
	if !c.IsValid() {
		return "", ledger.New(ledger.BadRequest, fmt.Sprintf("unknown currency %q", raw))
	}
	return c, nil
}

func (e *Engine) checkSufficiency(acct *ledger.Account, bal *ledger.Balance, debit money.Money) error {
	if e.cfg.AllowsNegative(acct.Kind) {
		return nil
	}
	ok, err := bal.Amount.GreaterThanOrEqual(debit)
	if err != nil {
		return ledger.Wrap(ledger.BadRequest, "currency mismatch computing sufficiency", err)
	}
	if !ok {
		return ledger.InsufficientFundsErr(bal.Amount.String(), debit.String())
	}
	return nil
}

func now() time.Time { return time.Now().UTC() }

// buildBalancedTransaction assembles a Transaction in PROCESSING state
// satisfying T1-T4, given a pre-built, already-balanced entry set.
func buildBalancedTransaction(
	kind ledger.TransactionKind,
	prefix string,
	initiator uuid.UUID,
	entries []ledger.Entry,
	amount money.Money,
	currency money.Code,
	fromAccountNumber, toAccountNumber, description, reference string,
	metadata map[string]any,
) (*ledger.Transaction, error) {
	if len(entries) < 2 {
		return nil, ledger.New(ledger.BadRequest, "double-entry requires at least 2 entries")
	}
	var debitSum, creditSum money.Money
	debitSum = money.Zero(currency)
	creditSum = money.Zero(currency)
	for _, entry := range entries {
		if entry.Amount.Currency() != currency {
			return nil, ledger.New(ledger.CurrencyMismatch, "entry currency differs from transaction currency")
		}
		var err error
		switch entry.Side {
		case ledger.Debit:
			debitSum, err = debitSum.Add(entry.Amount)
		case ledger.Credit:
			creditSum, err = creditSum.Add(entry.Amount)
		default:
			return nil, ledger.New(ledger.BadRequest, "entry side must be DEBIT or CREDIT")
		}
		if err != nil {
			return nil, err
		}
	}
	if !debitSum.Equal(creditSum) {
		return nil, ledger.New(ledger.BadRequest, "unbalanced entries: debits != credits")
	}
	if !debitSum.Equal(amount) {
		return nil, ledger.New(ledger.BadRequest, "declared amount does not match entry sums")
	}

	return &ledger.Transaction{
		ID:                uuid.New(),
		TransactionID:     mint.TransactionID(prefix),
		Kind:              kind,
		InitiatorUserID:   initiator,
		Entries:           entries,
		Amount:            amount,
		Currency:          currency,
		FromAccountNumber: fromAccountNumber,
		ToAccountNumber:   toAccountNumber,
		Status:            ledger.StatusProcessing,
		Description:       description,
		Reference:         reference,
		Metadata:          metadata,
		CreatedAt:         now(),
		UpdatedAt:         now(),
	}, nil
}

// applyEntry mutates the in-memory Balance for one entry's account,
// returning the new balance amount. DEBIT decreases, CREDIT increases.
func applyEntry(bal ledger.Balance, entry ledger.Entry) (ledger.Balance, error) {
	var newAmount money.Money
	var err error
	switch entry.Side {
	case ledger.Debit:
		newAmount, err = bal.Amount.Sub(entry.Amount)
	case ledger.Credit:
		newAmount, err = bal.Amount.Add(entry.Amount)
	default:
		return ledger.Balance{}, ledger.New(ledger.BadRequest, "unknown entry side")
	}
	if err != nil {
		return ledger.Balance{}, err
	}
	bal.Amount = newAmount
	bal.LastUpdated = now()
	return bal, nil
}

// OpenAccount creates a customer account and its zero balance. Not one
// of the five primitives, but needed to seed accounts the primitives
// then operate on.
func (e *Engine) OpenAccount(ctx context.Context, ownerID uuid.UUID, kind ledger.AccountKind, currency string) (*ledger.Account, error) {
	log := e.logger.With("op", "OpenAccount", "ownerId", ownerID, "kind", kind, "currency", currency)
	log.Info("opening account")
	c, err := parseCurrency(currency)
	if err != nil {
		log.Error("opening account failed", "error", err)
		return nil, err
	}
	var acct ledger.Account
	err = e.commit(ctx, func(tx ledger.Tx) error {
		acct = ledger.Account{
			ID:            uuid.New(),
			AccountNumber: mintAccountNumberForCustomer(),
			OwnerID:       ownerID,
			Kind:          kind,
			Currency:      c,
			Active:        true,
			Metadata:      map[string]any{},
			CreatedAt:     now(),
			UpdatedAt:     now(),
			Version:       1,
		}
		if err := tx.Accounts().Create(ctx, &acct); err != nil {
			return err
		}
		return tx.Balances().InitBalance(ctx, acct.ID, ledger.Balance{
			AccountID:   acct.ID,
			Currency:    c,
			Amount:      money.Zero(c),
			LastUpdated: now(),
		})
	})
	if err != nil {
		log.Error("opening account failed", "error", err)
		return nil, err
	}
	log.Info("account opened", "accountNumber", acct.AccountNumber)
	return &acct, nil
}

// CloseAccount flips an account's Active flag off via the
// optimistic-concurrency UpdateVersion path, rejecting accounts that
// still carry a non-zero balance. Restricted to admin callers, mirroring
// Reverse's authorization.
func (e *Engine) CloseAccount(ctx context.Context, caller ledger.Caller, accountNumber string) (*ledger.Account, error) {
	log := e.logger.With("op", "CloseAccount", "accountNumber", accountNumber)
	log.Info("closing account")
	if caller.Role != ledger.RoleAdmin {
		err := ledger.New(ledger.BadRequest, "closing an account requires an admin caller")
		log.Error("closing account failed", "error", err)
		return nil, err
	}
	var acct ledger.Account
	err := e.commit(ctx, func(tx ledger.Tx) error {
		found, err := tx.Accounts().GetByAccountNumber(ctx, accountNumber)
		if err != nil {
			return err
		}
		if !found.Active {
			return ledger.New(ledger.InactiveAccount, fmt.Sprintf("account %s is already closed", accountNumber))
		}
		bal, err := tx.Balances().ReadBalance(ctx, found.ID)
		if err != nil {
			return err
		}
		if !bal.Amount.IsZero() {
			return ledger.New(ledger.BadRequest, fmt.Sprintf("account %s carries a non-zero balance", accountNumber))
		}
		found.Active = false
		found.UpdatedAt = now()
		if err := tx.Accounts().UpdateVersion(ctx, found); err != nil {
			return err
		}
		acct = *found
		return nil
	})
	if err != nil {
		log.Error("closing account failed", "error", err)
		return nil, err
	}
	log.Info("account closed")
	return &acct, nil
}

// ReopenAccount flips Active back on for an admin caller. The account
// keeps its existing balance and version lineage.
func (e *Engine) ReopenAccount(ctx context.Context, caller ledger.Caller, accountNumber string) (*ledger.Account, error) {
	log := e.logger.With("op", "ReopenAccount", "accountNumber", accountNumber)
	log.Info("reopening account")
	if caller.Role != ledger.RoleAdmin {
		err := ledger.New(ledger.BadRequest, "reopening an account requires an admin caller")
		log.Error("reopening account failed", "error", err)
		return nil, err
	}
	var acct ledger.Account
	err := e.commit(ctx, func(tx ledger.Tx) error {
		found, err := tx.Accounts().GetByAccountNumber(ctx, accountNumber)
		if err != nil {
			return err
		}
		if found.Active {
			return ledger.New(ledger.IllegalStateTransition, fmt.Sprintf("account %s is already open", accountNumber))
		}
		found.Active = true
		found.UpdatedAt = now()
		if err := tx.Accounts().UpdateVersion(ctx, found); err != nil {
			return err
		}
		acct = *found
		return nil
	})
	if err != nil {
		log.Error("reopening account failed", "error", err)
		return nil, err
	}
	log.Info("account reopened")
	return &acct, nil
}

func (e *Engine) FindTransaction(ctx context.Context, transactionID string) (*ledger.Transaction, error) {
	var tx *ledger.Transaction
	err := e.commit(ctx, func(t ledger.Tx) error {
		found, err := t.Journal().FindByTransactionID(ctx, transactionID)
		if err != nil {
			return err
		}
		tx = found
		return nil
	})
	return tx, err
}

func (e *Engine) ListByUser(ctx context.Context, userID uuid.UUID, filter ledger.Filter, paging ledger.Paging) (ledger.Page[ledger.Transaction], error) {
	paging = ledger.NormalizePaging(paging)
	var page ledger.Page[ledger.Transaction]
	err := e.commit(ctx, func(tx ledger.Tx) error {
		p, err := tx.Journal().ListByUser(ctx, userID, filter, paging)
		page = p
		return err
	})
	return page, err
}

func (e *Engine) ListByAccount(ctx context.Context, accountNumber string, filter ledger.Filter, paging ledger.Paging) (ledger.Page[ledger.Transaction], error) {
	paging = ledger.NormalizePaging(paging)
	var page ledger.Page[ledger.Transaction]
	err := e.commit(ctx, func(tx ledger.Tx) error {
		p, err := tx.Journal().ListByAccount(ctx, accountNumber, filter, paging)
		page = p
		return err
	})
	return page, err
}

func (e *Engine) UserStats(ctx context.Context, userID uuid.UUID, from, to time.Time) (ledger.UserStats, error) {
	var stats ledger.UserStats
	err := e.commit(ctx, func(tx ledger.Tx) error {
		s, err := tx.Journal().AggregateByUser(ctx, userID, from, to)
		stats = s
		return err
	})
	return stats, err
}

func (e *Engine) AccountStats(ctx context.Context, accountNumber string, from, to time.Time) (ledger.AccountStats, error) {
	var stats ledger.AccountStats
	err := e.commit(ctx, func(tx ledger.Tx) error {
		s, err := tx.Journal().AggregateByAccount(ctx, accountNumber, from, to)
		stats = s
		return err
	})
	return stats, err
}
