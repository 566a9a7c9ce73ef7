package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/northbank/ledgercore/pkg/ledger"
)

// Deposit implements spec §4.5.1: one entry into the customer account,
// balanced by a DEBIT against the DEPOSITS system account.
func (e *Engine) Deposit(ctx context.Context, caller ledger.Caller, in ledger.DepositInput) (*ledger.Transaction, error) {
	log := e.logger.With("op", "Deposit", "accountNumber", in.AccountNumber, "userId", caller.UserID)
	log.Info("deposit starting", "amount", in.Amount, "currency", in.Currency)
	if err := ledger.Validate(in); err != nil {
		log.Error("deposit failed", "error", err)
		return nil, err
	}
	currency, err := parseCurrency(in.Currency)
	if err != nil {
		log.Error("deposit failed", "error", err)
		return nil, err
	}
	amount, err := parseAmount(in.Amount, currency)
	if err != nil {
		log.Error("deposit failed", "error", err)
		return nil, err
	}

	var result ledger.Transaction
	err = e.commit(ctx, func(tx ledger.Tx) error {
		acct, custBal, err := e.resolveCustomerAccount(ctx, tx, in.AccountNumber, currency)
		if err != nil {
			return err
		}
		sysID, err := e.router.SystemAccount(ctx, tx, ledger.PurposeDeposits, string(currency))
		if err != nil {
			return err
		}
		sysBal, err := tx.Balances().ReadBalance(ctx, sysID)
		if err != nil {
			return err
		}

		entries := []ledger.Entry{
			{AccountID: sysID, Side: ledger.Debit, Amount: amount},
			{AccountID: acct.ID, Side: ledger.Credit, Amount: amount},
		}
		txn, err := buildBalancedTransaction(ledger.Deposit, "DEP", caller.UserID, entries, amount, currency,
			"", in.AccountNumber, in.Description, in.Reference, in.Metadata)
		if err != nil {
			return err
		}

		newSysBal, err := applyEntry(*sysBal, entries[0])
		if err != nil {
			return err
		}
		newCustBal, err := applyEntry(*custBal, entries[1])
		if err != nil {
			return err
		}

		if err := tx.Journal().AppendTransaction(ctx, txn); err != nil {
			return err
		}
		if err := tx.Balances().WriteBalance(ctx, sysID, newSysBal, now()); err != nil {
			return err
		}
		if err := tx.Balances().WriteBalance(ctx, acct.ID, newCustBal, now()); err != nil {
			return err
		}
		processedAt := now()
		if err := tx.Journal().MarkStatus(ctx, txn.TransactionID, ledger.StatusCompleted, &processedAt, ""); err != nil {
			return err
		}
		txn.Status, txn.ProcessedAt = ledger.StatusCompleted, &processedAt
		result = *txn
		return nil
	})
	if err != nil {
		log.Error("deposit failed", "error", err)
		return nil, err
	}
	log.Info("deposit completed", "transactionId", result.TransactionID)
	e.publisher.PublishCompleted(&result)
	return &result, nil
}

// Withdraw implements spec §4.5.2: a DEBIT against the customer account,
// balanced by a CREDIT to the WITHDRAWALS system account. Rejected with
// InsufficientFunds unless the account's kind is exempt (spec B2).
func (e *Engine) Withdraw(ctx context.Context, caller ledger.Caller, in ledger.WithdrawalInput) (*ledger.Transaction, error) {
	log := e.logger.With("op", "Withdraw", "accountNumber", in.AccountNumber, "userId", caller.UserID)
	log.Info("withdraw starting", "amount", in.Amount, "currency", in.Currency)
	if err := ledger.Validate(in); err != nil {
		log.Error("withdraw failed", "error", err)
		return nil, err
	}
	currency, err := parseCurrency(in.Currency)
	if err != nil {
		log.Error("withdraw failed", "error", err)
		return nil, err
	}
	amount, err := parseAmount(in.Amount, currency)
	if err != nil {
		log.Error("withdraw failed", "error", err)
		return nil, err
	}

	var result ledger.Transaction
	err = e.commit(ctx, func(tx ledger.Tx) error {
		acct, custBal, err := e.resolveCustomerAccount(ctx, tx, in.AccountNumber, currency)
		if err != nil {
			return err
		}
		if err := e.checkSufficiency(acct, custBal, amount); err != nil {
			return err
		}
		sysID, err := e.router.SystemAccount(ctx, tx, ledger.PurposeWithdrawals, string(currency))
		if err != nil {
			return err
		}
		sysBal, err := tx.Balances().ReadBalance(ctx, sysID)
		if err != nil {
			return err
		}

		entries := []ledger.Entry{
			{AccountID: acct.ID, Side: ledger.Debit, Amount: amount},
			{AccountID: sysID, Side: ledger.Credit, Amount: amount},
		}
		txn, err := buildBalancedTransaction(ledger.Withdrawal, "WDR", caller.UserID, entries, amount, currency,
			in.AccountNumber, "", in.Description, in.Reference, in.Metadata)
		if err != nil {
			return err
		}

		newCustBal, err := applyEntry(*custBal, entries[0])
		if err != nil {
			return err
		}
		newSysBal, err := applyEntry(*sysBal, entries[1])
		if err != nil {
			return err
		}

		if err := tx.Journal().AppendTransaction(ctx, txn); err != nil {
			return err
		}
		if err := tx.Balances().WriteBalance(ctx, acct.ID, newCustBal, now()); err != nil {
			return err
		}
		if err := tx.Balances().WriteBalance(ctx, sysID, newSysBal, now()); err != nil {
			return err
		}
		processedAt := now()
		if err := tx.Journal().MarkStatus(ctx, txn.TransactionID, ledger.StatusCompleted, &processedAt, ""); err != nil {
			return err
		}
		txn.Status, txn.ProcessedAt = ledger.StatusCompleted, &processedAt
		result = *txn
		return nil
	})
	if err != nil {
		log.Error("withdraw failed", "error", err)
		return nil, err
	}
	log.Info("withdraw completed", "transactionId", result.TransactionID)
	e.publisher.PublishCompleted(&result)
	return &result, nil
}

// Fee implements spec §4.5.4: same shape as Withdraw, routed to the FEES
// system account, with a mandatory description.
func (e *Engine) Fee(ctx context.Context, caller ledger.Caller, in ledger.FeeInput) (*ledger.Transaction, error) {
	log := e.logger.With("op", "Fee", "accountNumber", in.AccountNumber, "userId", caller.UserID)
	log.Info("fee starting", "amount", in.Amount, "currency", in.Currency)
	if err := ledger.Validate(in); err != nil {
		log.Error("fee failed", "error", err)
		return nil, err
	}
	currency, err := parseCurrency(in.Currency)
	if err != nil {
		log.Error("fee failed", "error", err)
		return nil, err
	}
	amount, err := parseAmount(in.Amount, currency)
	if err != nil {
		log.Error("fee failed", "error", err)
		return nil, err
	}

	var result ledger.Transaction
	err = e.commit(ctx, func(tx ledger.Tx) error {
		acct, custBal, err := e.resolveCustomerAccount(ctx, tx, in.AccountNumber, currency)
		if err != nil {
			return err
		}
		if err := e.checkSufficiency(acct, custBal, amount); err != nil {
			return err
		}
		sysID, err := e.router.SystemAccount(ctx, tx, ledger.PurposeFees, string(currency))
		if err != nil {
			return err
		}
		sysBal, err := tx.Balances().ReadBalance(ctx, sysID)
		if err != nil {
			return err
		}

		entries := []ledger.Entry{
			{AccountID: acct.ID, Side: ledger.Debit, Amount: amount},
			{AccountID: sysID, Side: ledger.Credit, Amount: amount},
		}
		txn, err := buildBalancedTransaction(ledger.Fee, "FEE", caller.UserID, entries, amount, currency,
			in.AccountNumber, "", in.Description, in.Reference, in.Metadata)
		if err != nil {
			return err
		}

		newCustBal, err := applyEntry(*custBal, entries[0])
		if err != nil {
			return err
		}
		newSysBal, err := applyEntry(*sysBal, entries[1])
		if err != nil {
			return err
		}

		if err := tx.Journal().AppendTransaction(ctx, txn); err != nil {
			return err
		}
		if err := tx.Balances().WriteBalance(ctx, acct.ID, newCustBal, now()); err != nil {
			return err
		}
		if err := tx.Balances().WriteBalance(ctx, sysID, newSysBal, now()); err != nil {
			return err
		}
		processedAt := now()
		if err := tx.Journal().MarkStatus(ctx, txn.TransactionID, ledger.StatusCompleted, &processedAt, ""); err != nil {
			return err
		}
		txn.Status, txn.ProcessedAt = ledger.StatusCompleted, &processedAt
		result = *txn
		return nil
	})
	if err != nil {
		log.Error("fee failed", "error", err)
		return nil, err
	}
	log.Info("fee completed", "transactionId", result.TransactionID)
	e.publisher.PublishCompleted(&result)
	return &result, nil
}

// Transfer implements spec §4.5.3: a DEBIT against the source account
// and a CREDIT to the destination account, both customer-owned. Spec
// §6.4 requires the caller to own the source account unless acting as
// admin.
func (e *Engine) Transfer(ctx context.Context, caller ledger.Caller, in ledger.TransferInput) (*ledger.Transaction, error) {
	log := e.logger.With("op", "Transfer", "fromAccountNumber", in.FromAccountNumber, "toAccountNumber", in.ToAccountNumber, "userId", caller.UserID)
	log.Info("transfer starting", "amount", in.Amount, "currency", in.Currency)
	if err := ledger.Validate(in); err != nil {
		log.Error("transfer failed", "error", err)
		return nil, err
	}
	currency, err := parseCurrency(in.Currency)
	if err != nil {
		log.Error("transfer failed", "error", err)
		return nil, err
	}
	amount, err := parseAmount(in.Amount, currency)
	if err != nil {
		log.Error("transfer failed", "error", err)
		return nil, err
	}
	if in.FromAccountNumber == in.ToAccountNumber {
		err := ledger.New(ledger.BadRequest, "source and destination accounts must differ")
		log.Error("transfer failed", "error", err)
		return nil, err
	}

	var result ledger.Transaction
	err = e.commit(ctx, func(tx ledger.Tx) error {
		fromAcct, fromBal, err := e.resolveCustomerAccount(ctx, tx, in.FromAccountNumber, currency)
		if err != nil {
			return err
		}
		if caller.Role != ledger.RoleAdmin && fromAcct.OwnerID != caller.UserID {
			return ledger.New(ledger.BadRequest, "caller is not authorized to transfer from this account")
		}
		if err := e.checkSufficiency(fromAcct, fromBal, amount); err != nil {
			return err
		}
		toAcct, toBal, err := e.resolveCustomerAccount(ctx, tx, in.ToAccountNumber, currency)
		if err != nil {
			return err
		}

		entries := []ledger.Entry{
			{AccountID: fromAcct.ID, Side: ledger.Debit, Amount: amount},
			{AccountID: toAcct.ID, Side: ledger.Credit, Amount: amount},
		}
		txn, err := buildBalancedTransaction(ledger.Transfer, "TRF", caller.UserID, entries, amount, currency,
			in.FromAccountNumber, in.ToAccountNumber, in.Description, in.Reference, in.Metadata)
		if err != nil {
			return err
		}

		newFromBal, err := applyEntry(*fromBal, entries[0])
		if err != nil {
			return err
		}
		newToBal, err := applyEntry(*toBal, entries[1])
		if err != nil {
			return err
		}

		if err := tx.Journal().AppendTransaction(ctx, txn); err != nil {
			return err
		}
		if err := tx.Balances().WriteBalance(ctx, fromAcct.ID, newFromBal, now()); err != nil {
			return err
		}
		if err := tx.Balances().WriteBalance(ctx, toAcct.ID, newToBal, now()); err != nil {
			return err
		}
		processedAt := now()
		if err := tx.Journal().MarkStatus(ctx, txn.TransactionID, ledger.StatusCompleted, &processedAt, ""); err != nil {
			return err
		}
		txn.Status, txn.ProcessedAt = ledger.StatusCompleted, &processedAt
		result = *txn
		return nil
	})
	if err != nil {
		log.Error("transfer failed", "error", err)
		return nil, err
	}
	log.Info("transfer completed", "transactionId", result.TransactionID)
	e.publisher.PublishCompleted(&result)
	return &result, nil
}

// Reverse implements spec §4.5.5: posts the mirror-image entries of a
// COMPLETED transaction. Restricted to admin callers (spec §6.4);
// enforces T6 (at most one COMPLETED reversal per original) via
// FindReversalOf.
func (e *Engine) Reverse(ctx context.Context, caller ledger.Caller, in ledger.ReversalInput) (*ledger.Transaction, error) {
	log := e.logger.With("op", "Reverse", "originalTransactionId", in.OriginalTransactionID, "userId", caller.UserID)
	log.Info("reverse starting", "reason", in.Reason)
	if err := ledger.Validate(in); err != nil {
		log.Error("reverse failed", "error", err)
		return nil, err
	}
	if caller.Role != ledger.RoleAdmin {
		err := ledger.New(ledger.BadRequest, "reversal requires an admin caller")
		log.Error("reverse failed", "error", err)
		return nil, err
	}

	var result ledger.Transaction
	err := e.commit(ctx, func(tx ledger.Tx) error {
		original, err := tx.Journal().FindByTransactionID(ctx, in.OriginalTransactionID)
		if err != nil {
			return err
		}
		if original.Kind == ledger.Reversal {
			return ledger.New(ledger.IllegalStateTransition, "cannot reverse a REVERSAL")
		}
		if original.Status != ledger.StatusCompleted {
			return ledger.New(ledger.IllegalStateTransition, "only COMPLETED transactions can be reversed")
		}
		if _, err := tx.Journal().FindReversalOf(ctx, original.TransactionID); err == nil {
			return ledger.New(ledger.AlreadyReversed, fmt.Sprintf("transaction %s was already reversed", original.TransactionID))
		} else if k, ok := ledger.KindOf(err); !ok || k != ledger.NotFound {
			return err
		}

		entries := make([]ledger.Entry, len(original.Entries))
		for i, oe := range original.Entries {
			flipped := oe
			if oe.Side == ledger.Debit {
				flipped.Side = ledger.Credit
			} else {
				flipped.Side = ledger.Debit
			}
			entries[i] = flipped
		}

		balances := make(map[uuid.UUID]*ledger.Balance, len(entries))
		for _, entry := range entries {
			if _, ok := balances[entry.AccountID]; ok {
				continue
			}
			b, err := tx.Balances().ReadBalance(ctx, entry.AccountID)
			if err != nil {
				return err
			}
			balances[entry.AccountID] = b
		}
		for _, entry := range entries {
			if entry.Side != ledger.Debit {
				continue
			}
			acct, err := tx.Accounts().Get(ctx, entry.AccountID)
			if err != nil {
				return err
			}
			if err := e.checkSufficiency(acct, balances[entry.AccountID], entry.Amount); err != nil {
				return err
			}
		}
		newBalances := make(map[uuid.UUID]ledger.Balance, len(balances))
		for _, entry := range entries {
			cur, ok := newBalances[entry.AccountID]
			if !ok {
				cur = *balances[entry.AccountID]
			}
			nb, err := applyEntry(cur, entry)
			if err != nil {
				return err
			}
			newBalances[entry.AccountID] = nb
		}

		metadata := map[string]any{"originalTransactionId": original.TransactionID, "reason": in.Reason}
		for k, v := range in.Metadata {
			metadata[k] = v
		}
		txn, err := buildBalancedTransaction(ledger.Reversal, "REV", caller.UserID, entries, original.Amount, original.Currency,
			original.ToAccountNumber, original.FromAccountNumber,
			fmt.Sprintf("Reversal of %s: %s", original.TransactionID, in.Reason), original.Reference, metadata)
		if err != nil {
			return err
		}

		if err := tx.Journal().AppendTransaction(ctx, txn); err != nil {
			return err
		}
		for accountID, bal := range newBalances {
			if err := tx.Balances().WriteBalance(ctx, accountID, bal, now()); err != nil {
				return err
			}
		}
		processedAt := now()
		if err := tx.Journal().MarkStatus(ctx, txn.TransactionID, ledger.StatusCompleted, &processedAt, ""); err != nil {
			return err
		}
		txn.Status, txn.ProcessedAt = ledger.StatusCompleted, &processedAt
		result = *txn
		return nil
	})
	if err != nil {
		log.Error("reverse failed", "error", err)
		return nil, err
	}
	log.Info("reverse completed", "transactionId", result.TransactionID)
	e.publisher.PublishCompleted(&result)
	return &result, nil
}

// SweepPending implements spec §4.5.6: every PENDING transaction older
// than olderThan is applied or failed independently, in its own commit
// unit, so one bad row never blocks the rest of the batch.
func (e *Engine) SweepPending(ctx context.Context, olderThan time.Duration) (ledger.SweepResult, error) {
	log := e.logger.With("op", "SweepPending", "olderThan", olderThan)
	log.Info("sweep starting")
	var result ledger.SweepResult
	var pending []ledger.Transaction
	if err := e.commit(ctx, func(tx ledger.Tx) error {
		p, err := tx.Journal().SelectPendingOlderThan(ctx, olderThan)
		pending = p
		return err
	}); err != nil {
		log.Error("sweep failed", "error", err)
		return result, err
	}
	log.Info("sweep candidates selected", "count", len(pending))

	for i := range pending {
		txn := pending[i]
		var completed bool
		err := e.commit(ctx, func(tx ledger.Tx) error {
			c, err := e.applyPendingTransaction(ctx, tx, &txn)
			completed = c
			return err
		})
		if err != nil {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, txn.TransactionID)
			e.publisher.PublishFailed(&txn)
			log.Error("sweep: commit failed", "transactionId", txn.TransactionID, "error", err)
			continue
		}
		if completed {
			result.Processed++
			e.publisher.PublishCompleted(&txn)
		} else {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, txn.TransactionID)
			e.publisher.PublishFailed(&txn)
		}
	}
	log.Info("sweep completed", "processed", result.Processed, "failed", result.Failed)
	return result, nil
}

// applyPendingTransaction validates and posts one PENDING transaction's
// pre-built entries. Business-rule failures (inactive account, currency
// mismatch, insufficient funds) are recorded as FAILED within the same
// commit and reported via the bool return, not the error return;
// the error return is reserved for infra/store failures that should
// abort and retry the whole commit.
func (e *Engine) applyPendingTransaction(ctx context.Context, tx ledger.Tx, txn *ledger.Transaction) (bool, error) {
	if err := tx.Journal().MarkStatus(ctx, txn.TransactionID, ledger.StatusProcessing, nil, ""); err != nil {
		return false, err
	}
	txn.Status = ledger.StatusProcessing

	fail := func(reason string) (bool, error) {
		if err := tx.Journal().MarkStatus(ctx, txn.TransactionID, ledger.StatusFailed, nil, reason); err != nil {
			return false, err
		}
		return false, nil
	}

	type update struct {
		accountID uuid.UUID
		balance   ledger.Balance
	}
	updates := make([]update, 0, len(txn.Entries))
	for _, entry := range txn.Entries {
		acct, err := tx.Accounts().Get(ctx, entry.AccountID)
		if err != nil {
			if k, ok := ledger.KindOf(err); ok && k == ledger.NotFound {
				return fail("account not found")
			}
			return false, err
		}
		if !acct.Active {
			return fail(fmt.Sprintf("account %s is not active", acct.AccountNumber))
		}
		if acct.Currency != txn.Currency {
			return fail("currency mismatch")
		}
		bal, err := tx.Balances().ReadBalance(ctx, acct.ID)
		if err != nil {
			return false, err
		}
		if entry.Side == ledger.Debit {
			if err := e.checkSufficiency(acct, bal, entry.Amount); err != nil {
				return fail("insufficient funds")
			}
		}
		newBal, err := applyEntry(*bal, entry)
		if err != nil {
			return false, err
		}
		updates = append(updates, update{acct.ID, newBal})
	}
	for _, u := range updates {
		if err := tx.Balances().WriteBalance(ctx, u.accountID, u.balance, now()); err != nil {
			return false, err
		}
	}
	processedAt := now()
	if err := tx.Journal().MarkStatus(ctx, txn.TransactionID, ledger.StatusCompleted, &processedAt, ""); err != nil {
		return false, err
	}
	return true, nil
}
