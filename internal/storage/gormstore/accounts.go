package gormstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/northbank/ledgercore/pkg/ledger"
	"gorm.io/gorm"
)

type accountStore struct {
	db *gorm.DB
}

func (s accountStore) Get(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	var m accountModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.New(ledger.NotFound, "account not found")
		}
		return nil, ledger.Wrap(ledger.StoreUnavailable, "account lookup failed", err)
	}
	return m.toDomain()
}

func (s accountStore) GetByAccountNumber(ctx context.Context, accountNumber string) (*ledger.Account, error) {
	var m accountModel
	if err := s.db.WithContext(ctx).Where("account_number = ?", accountNumber).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.New(ledger.NotFound, "account not found")
		}
		return nil, ledger.Wrap(ledger.StoreUnavailable, "account lookup failed", err)
	}
	return m.toDomain()
}

func (s accountStore) Create(ctx context.Context, a *ledger.Account) error {
	m, err := fromDomainAccount(a)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return ledger.New(ledger.Conflict, "duplicate account number")
		}
		return ledger.Wrap(ledger.StoreUnavailable, "account insert failed", err)
	}
	return nil
}

func (s accountStore) UpdateVersion(ctx context.Context, a *ledger.Account) error {
	m, err := fromDomainAccount(a)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("id = ? AND version = ?", a.ID, a.Version).
		Updates(map[string]any{
			"active":   m.Active,
			"metadata": m.Metadata,
			"version":  a.Version + 1,
		})
	if result.Error != nil {
		return ledger.Wrap(ledger.StoreUnavailable, "account update failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ledger.New(ledger.SerializationConflict, "account version changed since read")
	}
	a.Version++
	return nil
}
