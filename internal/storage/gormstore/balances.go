package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/northbank/ledgercore/pkg/ledger"
	"gorm.io/gorm"
)

type balanceStore struct {
	db *gorm.DB
}

func (s balanceStore) ReadBalance(ctx context.Context, accountID uuid.UUID) (*ledger.Balance, error) {
	var m balanceModel
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.New(ledger.NotFound, "balance not found")
		}
		return nil, ledger.Wrap(ledger.StoreUnavailable, "balance lookup failed", err)
	}
	return m.toDomain()
}

func (s balanceStore) WriteBalance(ctx context.Context, accountID uuid.UUID, newAmount ledger.Balance, now time.Time) error {
	newAmount.LastUpdated = now
	m := fromDomainBalance(newAmount)
	result := s.db.WithContext(ctx).
		Model(&balanceModel{}).
		Where("account_id = ?", accountID).
		Updates(map[string]any{
			"amount":       m.Amount,
			"last_updated": m.LastUpdated,
		})
	if result.Error != nil {
		return ledger.Wrap(ledger.StoreUnavailable, "balance update failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ledger.New(ledger.NotFound, "balance not found")
	}
	return nil
}

func (s balanceStore) InitBalance(ctx context.Context, accountID uuid.UUID, b ledger.Balance) error {
	m := fromDomainBalance(b)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return ledger.New(ledger.Conflict, "balance already initialized")
		}
		return ledger.Wrap(ledger.StoreUnavailable, "balance insert failed", err)
	}
	return nil
}
