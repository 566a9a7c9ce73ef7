package gormstore

import (
	"github.com/northbank/ledgercore/pkg/ledger"
	"github.com/northbank/ledgercore/pkg/money"
	"github.com/shopspring/decimal"
)

func fromDomainAccount(a *ledger.Account) (accountModel, error) {
	meta, err := marshalMetadata(a.Metadata)
	if err != nil {
		return accountModel{}, ledger.Wrap(ledger.BadRequest, "invalid account metadata", err)
	}
	return accountModel{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		OwnerID:       a.OwnerID,
		Kind:          string(a.Kind),
		Currency:      string(a.Currency),
		Active:        a.Active,
		Metadata:      meta,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
		Version:       a.Version,
	}, nil
}

func (m accountModel) toDomain() (*ledger.Account, error) {
	meta, err := unmarshalMetadata(m.Metadata)
	if err != nil {
		return nil, ledger.Wrap(ledger.StoreUnavailable, "corrupt account metadata", err)
	}
	return &ledger.Account{
		ID:            m.ID,
		AccountNumber: m.AccountNumber,
		OwnerID:       m.OwnerID,
		Kind:          ledger.AccountKind(m.Kind),
		Currency:      money.Code(m.Currency),
		Active:        m.Active,
		Metadata:      meta,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		Version:       m.Version,
	}, nil
}

func fromDomainBalance(b ledger.Balance) balanceModel {
	return balanceModel{
		AccountID:   b.AccountID,
		Currency:    string(b.Currency),
		Amount:      b.Amount.Amount().String(),
		LastUpdated: b.LastUpdated,
	}
}

func (m balanceModel) toDomain() (*ledger.Balance, error) {
	d, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return nil, ledger.Wrap(ledger.StoreUnavailable, "corrupt balance amount", err)
	}
	amount, err := money.New(d, money.Code(m.Currency))
	if err != nil {
		return nil, ledger.Wrap(ledger.StoreUnavailable, "corrupt balance amount", err)
	}
	return &ledger.Balance{
		AccountID:   m.AccountID,
		Currency:    money.Code(m.Currency),
		Amount:      amount,
		LastUpdated: m.LastUpdated,
	}, nil
}

func fromDomainTransaction(t *ledger.Transaction) (transactionModel, []entryModel, error) {
	meta, err := marshalMetadata(t.Metadata)
	if err != nil {
		return transactionModel{}, nil, ledger.Wrap(ledger.BadRequest, "invalid transaction metadata", err)
	}
	var originalID *string
	if orig, ok := t.OriginalTransactionID(); ok {
		originalID = &orig
	}
	tm := transactionModel{
		ID:                    t.ID,
		TransactionID:         t.TransactionID,
		Kind:                  string(t.Kind),
		InitiatorUserID:       t.InitiatorUserID,
		Amount:                t.Amount.Amount().String(),
		Currency:              string(t.Currency),
		FromAccountNumber:     t.FromAccountNumber,
		ToAccountNumber:       t.ToAccountNumber,
		Status:                string(t.Status),
		Description:           t.Description,
		Reference:             t.Reference,
		Metadata:              meta,
		OriginalTransactionID: originalID,
		FailureReason:         t.FailureReason,
		ProcessedAt:           t.ProcessedAt,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
	entries := make([]entryModel, len(t.Entries))
	for i, e := range t.Entries {
		entries[i] = entryModel{
			TransactionID: t.TransactionID,
			AccountID:     e.AccountID,
			Side:          string(e.Side),
			Amount:        e.Amount.Amount().String(),
		}
	}
	return tm, entries, nil
}

func toDomainTransaction(m transactionModel, entries []entryModel) (*ledger.Transaction, error) {
	meta, err := unmarshalMetadata(m.Metadata)
	if err != nil {
		return nil, ledger.Wrap(ledger.StoreUnavailable, "corrupt transaction metadata", err)
	}
	currency := money.Code(m.Currency)
	amount, err := money.NewFromString(m.Amount, currency)
	if err != nil {
		return nil, ledger.Wrap(ledger.StoreUnavailable, "corrupt transaction amount", err)
	}
	domainEntries := make([]ledger.Entry, len(entries))
	for i, e := range entries {
		entryAmount, err := money.NewFromString(e.Amount, currency)
		if err != nil {
			return nil, ledger.Wrap(ledger.StoreUnavailable, "corrupt entry amount", err)
		}
		domainEntries[i] = ledger.Entry{
			AccountID: e.AccountID,
			Side:      ledger.EntrySide(e.Side),
			Amount:    entryAmount,
		}
	}
	return &ledger.Transaction{
		ID:                m.ID,
		TransactionID:     m.TransactionID,
		Kind:              ledger.TransactionKind(m.Kind),
		InitiatorUserID:   m.InitiatorUserID,
		Entries:           domainEntries,
		Amount:            amount,
		Currency:          currency,
		FromAccountNumber: m.FromAccountNumber,
		ToAccountNumber:   m.ToAccountNumber,
		Status:            ledger.Status(m.Status),
		Description:       m.Description,
		Reference:         m.Reference,
		Metadata:          meta,
		FailureReason:     m.FailureReason,
		ProcessedAt:       m.ProcessedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}, nil
}
