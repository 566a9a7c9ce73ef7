package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/northbank/ledgercore/pkg/ledger"
	"github.com/northbank/ledgercore/pkg/money"
	"gorm.io/gorm"
)

type journalStore struct {
	db *gorm.DB
}

func (s journalStore) AppendTransaction(ctx context.Context, t *ledger.Transaction) error {
	tm, entries, err := fromDomainTransaction(t)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&tm).Error; err != nil {
		if isUniqueViolation(err) {
			return ledger.New(ledger.Conflict, "duplicate transaction id")
		}
		return ledger.Wrap(ledger.StoreUnavailable, "transaction insert failed", err)
	}
	if len(entries) > 0 {
		if err := s.db.WithContext(ctx).Create(&entries).Error; err != nil {
			return ledger.Wrap(ledger.StoreUnavailable, "entry insert failed", err)
		}
	}
	return nil
}

func (s journalStore) MarkStatus(ctx context.Context, transactionID string, status ledger.Status, processedAt *time.Time, failureReason string) error {
	var current transactionModel
	if err := s.db.WithContext(ctx).Select("status").Where("transaction_id = ?", transactionID).First(&current).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.New(ledger.NotFound, "transaction not found")
		}
		return ledger.Wrap(ledger.StoreUnavailable, "status lookup failed", err)
	}
	from := ledger.Status(current.Status)
	if !ledger.ValidTransition(from, status) {
		return ledger.New(ledger.IllegalStateTransition, fmt.Sprintf("cannot transition %s from %s to %s", transactionID, from, status))
	}

	updates := map[string]any{"status": string(status), "failure_reason": failureReason}
	if processedAt != nil {
		updates["processed_at"] = *processedAt
	}
	result := s.db.WithContext(ctx).Model(&transactionModel{}).
		Where("transaction_id = ? AND status = ?", transactionID, string(from)).Updates(updates)
	if result.Error != nil {
		return ledger.Wrap(ledger.StoreUnavailable, "status update failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return ledger.New(ledger.IllegalStateTransition, fmt.Sprintf("transaction %s status changed concurrently", transactionID))
	}
	return nil
}

func (s journalStore) loadEntries(ctx context.Context, transactionID string) ([]entryModel, error) {
	var entries []entryModel
	if err := s.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Find(&entries).Error; err != nil {
		return nil, ledger.Wrap(ledger.StoreUnavailable, "entry lookup failed", err)
	}
	return entries, nil
}

func (s journalStore) FindByTransactionID(ctx context.Context, transactionID string) (*ledger.Transaction, error) {
	var m transactionModel
	if err := s.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.New(ledger.NotFound, "transaction not found")
		}
		return nil, ledger.Wrap(ledger.StoreUnavailable, "transaction lookup failed", err)
	}
	entries, err := s.loadEntries(ctx, m.TransactionID)
	if err != nil {
		return nil, err
	}
	return toDomainTransaction(m, entries)
}

func (s journalStore) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var m transactionModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.New(ledger.NotFound, "transaction not found")
		}
		return nil, ledger.Wrap(ledger.StoreUnavailable, "transaction lookup failed", err)
	}
	entries, err := s.loadEntries(ctx, m.TransactionID)
	if err != nil {
		return nil, err
	}
	return toDomainTransaction(m, entries)
}

func (s journalStore) FindReversalOf(ctx context.Context, transactionID string) (*ledger.Transaction, error) {
	var m transactionModel
	err := s.db.WithContext(ctx).
		Where("kind = ? AND status = ? AND original_transaction_id = ?", string(ledger.Reversal), string(ledger.StatusCompleted), transactionID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.New(ledger.NotFound, "no reversal found")
		}
		return nil, ledger.Wrap(ledger.StoreUnavailable, "reversal lookup failed", err)
	}
	entries, err := s.loadEntries(ctx, m.TransactionID)
	if err != nil {
		return nil, err
	}
	return toDomainTransaction(m, entries)
}

func applyFilter(q *gorm.DB, filter ledger.Filter) *gorm.DB {
	if filter.Kind != nil {
		q = q.Where("kind = ?", string(*filter.Kind))
	}
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}
	if filter.FromTime != nil {
		q = q.Where("created_at >= ?", *filter.FromTime)
	}
	if filter.ToTime != nil {
		q = q.Where("created_at <= ?", *filter.ToTime)
	}
	if filter.AccountNumber != nil {
		q = q.Where("from_account_number = ? OR to_account_number = ?", *filter.AccountNumber, *filter.AccountNumber)
	}
	if filter.MinAmount != nil {
		q = q.Where("amount::numeric >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		q = q.Where("amount::numeric <= ?", *filter.MaxAmount)
	}
	return q
}

func (s journalStore) list(ctx context.Context, scope *gorm.DB, filter ledger.Filter, paging ledger.Paging) (ledger.Page[ledger.Transaction], error) {
	scope = applyFilter(scope.WithContext(ctx), filter)

	var total int64
	if err := scope.Session(&gorm.Session{}).Model(&transactionModel{}).Count(&total).Error; err != nil {
		return ledger.Page[ledger.Transaction]{}, ledger.Wrap(ledger.StoreUnavailable, "count failed", err)
	}

	order := "created_at DESC"
	if paging.SortDir == ledger.Asc {
		order = "created_at ASC"
	}
	var rows []transactionModel
	if err := scope.Order(order).Offset(paging.Offset()).Limit(paging.Limit).Find(&rows).Error; err != nil {
		return ledger.Page[ledger.Transaction]{}, ledger.Wrap(ledger.StoreUnavailable, "list failed", err)
	}

	items := make([]ledger.Transaction, 0, len(rows))
	for _, row := range rows {
		entries, err := s.loadEntries(ctx, row.TransactionID)
		if err != nil {
			return ledger.Page[ledger.Transaction]{}, err
		}
		t, err := toDomainTransaction(row, entries)
		if err != nil {
			return ledger.Page[ledger.Transaction]{}, err
		}
		items = append(items, *t)
	}
	return ledger.Page[ledger.Transaction]{Items: items, Total: total, Page: paging.Page, Limit: paging.Limit}, nil
}

func (s journalStore) ListByUser(ctx context.Context, userID uuid.UUID, filter ledger.Filter, paging ledger.Paging) (ledger.Page[ledger.Transaction], error) {
	return s.list(ctx, s.db.Where("initiator_user_id = ?", userID), filter, paging)
}

func (s journalStore) ListByAccount(ctx context.Context, accountNumber string, filter ledger.Filter, paging ledger.Paging) (ledger.Page[ledger.Transaction], error) {
	return s.list(ctx, s.db.Where("from_account_number = ? OR to_account_number = ?", accountNumber, accountNumber), filter, paging)
}

func (s journalStore) AggregateByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) (ledger.UserStats, error) {
	var stats ledger.UserStats

	var totals []struct {
		Currency string
		Count    int64
		Total    string
	}
	if err := s.db.WithContext(ctx).Model(&transactionModel{}).
		Select("currency, count(*) as count, coalesce(sum(amount::numeric),0) as total").
		Where("initiator_user_id = ? AND status = ? AND created_at BETWEEN ? AND ?", userID, string(ledger.StatusCompleted), from, to).
		Group("currency").Scan(&totals).Error; err != nil {
		return stats, ledger.Wrap(ledger.StoreUnavailable, "user summary aggregation failed", err)
	}
	for _, row := range totals {
		amount, err := money.NewFromString(row.Total, money.Code(row.Currency))
		if err != nil {
			return stats, ledger.Wrap(ledger.StoreUnavailable, "corrupt aggregate amount", err)
		}
		stats.Summary = append(stats.Summary, ledger.CurrencyTotal{Currency: money.Code(row.Currency), Count: row.Count, Total: amount})
	}

	var byType []struct {
		Kind     string
		Currency string
		Count    int64
		Total    string
	}
	if err := s.db.WithContext(ctx).Model(&transactionModel{}).
		Select("kind, currency, count(*) as count, coalesce(sum(amount::numeric),0) as total").
		Where("initiator_user_id = ? AND status = ? AND created_at BETWEEN ? AND ?", userID, string(ledger.StatusCompleted), from, to).
		Group("kind, currency").Scan(&byType).Error; err != nil {
		return stats, ledger.Wrap(ledger.StoreUnavailable, "user byType aggregation failed", err)
	}
	for _, row := range byType {
		amount, err := money.NewFromString(row.Total, money.Code(row.Currency))
		if err != nil {
			return stats, ledger.Wrap(ledger.StoreUnavailable, "corrupt aggregate amount", err)
		}
		stats.ByType = append(stats.ByType, ledger.TypeStat{Kind: ledger.TransactionKind(row.Kind), Currency: money.Code(row.Currency), Count: row.Count, Total: amount})
	}

	var monthly []struct {
		Year  int
		Month int
		Kind  string
		Count int64
		Total string
	}
	if err := s.db.WithContext(ctx).Model(&transactionModel{}).
		Select("extract(year from created_at)::int as year, extract(month from created_at)::int as month, kind, count(*) as count, coalesce(sum(amount::numeric),0) as total").
		Where("initiator_user_id = ? AND status = ? AND created_at BETWEEN ? AND ?", userID, string(ledger.StatusCompleted), from, to).
		Group("year, month, kind").Scan(&monthly).Error; err != nil {
		return stats, ledger.Wrap(ledger.StoreUnavailable, "user monthlyTrend aggregation failed", err)
	}
	for _, row := range monthly {
		currency := money.USD
		if len(stats.Summary) > 0 {
			currency = stats.Summary[0].Currency
		}
		amount, err := money.NewFromString(row.Total, currency)
		if err != nil {
			return stats, ledger.Wrap(ledger.StoreUnavailable, "corrupt aggregate amount", err)
		}
		stats.MonthlyTrend = append(stats.MonthlyTrend, ledger.MonthlyStat{Year: row.Year, Month: row.Month, Kind: ledger.TransactionKind(row.Kind), Count: row.Count, Total: amount})
	}

	return stats, nil
}

func (s journalStore) AggregateByAccount(ctx context.Context, accountNumber string, from, to time.Time) (ledger.AccountStats, error) {
	var stats ledger.AccountStats

	var net []struct {
		Currency string
		Net      string
	}
	if err := s.db.WithContext(ctx).Model(&transactionModel{}).
		Select(`currency, coalesce(sum(
			CASE WHEN to_account_number = ? THEN amount::numeric ELSE -amount::numeric END
		),0) as net`, accountNumber).
		Where("(from_account_number = ? OR to_account_number = ?) AND status = ? AND created_at BETWEEN ? AND ?",
			accountNumber, accountNumber, string(ledger.StatusCompleted), from, to).
		Group("currency").Scan(&net).Error; err != nil {
		return stats, ledger.Wrap(ledger.StoreUnavailable, "account net-flow aggregation failed", err)
	}
	for _, row := range net {
		amount, err := money.NewFromString(row.Net, money.Code(row.Currency))
		if err != nil {
			return stats, ledger.Wrap(ledger.StoreUnavailable, "corrupt aggregate amount", err)
		}
		stats.NetFlow = append(stats.NetFlow, ledger.NetFlow{Currency: money.Code(row.Currency), Net: amount})
	}

	var byDirection []struct {
		Direction string
		Kind      string
		Currency  string
		Count     int64
		Total     string
	}
	if err := s.db.WithContext(ctx).Model(&transactionModel{}).
		Select(`CASE WHEN to_account_number = ? THEN 'INCOMING' ELSE 'OUTGOING' END as direction,
			kind, currency, count(*) as count, coalesce(sum(amount::numeric),0) as total`, accountNumber).
		Where("(from_account_number = ? OR to_account_number = ?) AND status = ? AND created_at BETWEEN ? AND ?",
			accountNumber, accountNumber, string(ledger.StatusCompleted), from, to).
		Group("direction, kind, currency").Scan(&byDirection).Error; err != nil {
		return stats, ledger.Wrap(ledger.StoreUnavailable, "account byDirectionAndType aggregation failed", err)
	}
	for _, row := range byDirection {
		amount, err := money.NewFromString(row.Total, money.Code(row.Currency))
		if err != nil {
			return stats, ledger.Wrap(ledger.StoreUnavailable, "corrupt aggregate amount", err)
		}
		stats.ByDirectionAndType = append(stats.ByDirectionAndType, ledger.DirectionTypeStat{
			Direction: ledger.Direction(row.Direction), Kind: ledger.TransactionKind(row.Kind),
			Currency: money.Code(row.Currency), Count: row.Count, Total: amount,
		})
	}

	var daily []struct {
		Year  int
		Month int
		Day   int
		Count int64
		Total string
	}
	if err := s.db.WithContext(ctx).Model(&transactionModel{}).
		Select(`extract(year from created_at)::int as year, extract(month from created_at)::int as month,
			extract(day from created_at)::int as day, count(*) as count, coalesce(sum(amount::numeric),0) as total`).
		Where("(from_account_number = ? OR to_account_number = ?) AND status = ? AND created_at BETWEEN ? AND ?",
			accountNumber, accountNumber, string(ledger.StatusCompleted), from, to).
		Group("year, month, day").Scan(&daily).Error; err != nil {
		return stats, ledger.Wrap(ledger.StoreUnavailable, "account dailyTrend aggregation failed", err)
	}
	fallbackCurrency := money.USD
	if len(stats.NetFlow) > 0 {
		fallbackCurrency = stats.NetFlow[0].Currency
	}
	for _, row := range daily {
		amount, err := money.NewFromString(row.Total, fallbackCurrency)
		if err != nil {
			return stats, ledger.Wrap(ledger.StoreUnavailable, "corrupt aggregate amount", err)
		}
		stats.DailyTrend = append(stats.DailyTrend, ledger.DailyStat{Year: row.Year, Month: row.Month, Day: row.Day, Count: row.Count, Total: amount})
	}

	return stats, nil
}

func (s journalStore) SelectPendingOlderThan(ctx context.Context, olderThan time.Duration) ([]ledger.Transaction, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	var rows []transactionModel
	if err := s.db.WithContext(ctx).Where("status = ? AND created_at < ?", string(ledger.StatusPending), cutoff).Find(&rows).Error; err != nil {
		return nil, ledger.Wrap(ledger.StoreUnavailable, "pending sweep query failed", err)
	}
	out := make([]ledger.Transaction, 0, len(rows))
	for _, row := range rows {
		entries, err := s.loadEntries(ctx, row.TransactionID)
		if err != nil {
			return nil, err
		}
		t, err := toDomainTransaction(row, entries)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}
