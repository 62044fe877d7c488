package repository

import (
	"context"
	"time"

	"merchcrm/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CategoryTotal is one expense category bucket
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// FinanceRepository aggregates the monetary tables for the dashboards
type FinanceRepository interface {
	RevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	SalesCountBetween(ctx context.Context, from, to time.Time) (int64, error)
	ExpensesByCategory(ctx context.Context, from, to time.Time) ([]CategoryTotal, error)
	COGSBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)

	CreateExpense(ctx context.Context, expense *model.Expense) error
	ListExpenses(ctx context.Context, page, limit int, category string, from, to *time.Time) ([]model.Expense, int64, error)
}

type financeRepository struct {
	db *gorm.DB
}

// NewFinanceRepository returns a new instance of FinanceRepository
func NewFinanceRepository(db *gorm.DB) FinanceRepository {
	return &financeRepository{db: db}
}

// RevenueBetween is the sum of all payments received in the period
func (r *financeRepository) RevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := GetDB(ctx, r.db).Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("created_at >= ? AND created_at <= ?", from, to).
		Scan(&result).Error
	return result.Total, err
}

func (r *financeRepository) SalesCountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("created_at >= ? AND created_at <= ? AND status <> ?", from, to, model.OrderStatusCancelled).
		Count(&count).Error
	return count, err
}

func (r *financeRepository) ExpensesByCategory(ctx context.Context, from, to time.Time) ([]CategoryTotal, error) {
	var totals []CategoryTotal
	err := GetDB(ctx, r.db).Model(&model.Expense{}).
		Select("category, COALESCE(SUM(amount), 0) as total").
		Where("date >= ? AND date <= ?", from, to).
		Group("category").
		Order("category ASC").
		Scan(&totals).Error
	return totals, err
}

// COGSBetween sums the cost of goods that left the warehouse: for every "out"
// movement, the snapshotted cost price times the moved quantity.
func (r *financeRepository) COGSBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := GetDB(ctx, r.db).Model(&model.InventoryTransaction{}).
		Select("COALESCE(SUM(cost_price * ABS(change_amount)), 0) as total").
		Where("type = ? AND created_at >= ? AND created_at <= ?", model.TxTypeOut, from, to).
		Scan(&result).Error
	return result.Total, err
}

func (r *financeRepository) CreateExpense(ctx context.Context, expense *model.Expense) error {
	return GetDB(ctx, r.db).Create(expense).Error
}

func (r *financeRepository) ListExpenses(ctx context.Context, page, limit int, category string, from, to *time.Time) ([]model.Expense, int64, error) {
	var expenses []model.Expense
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Expense{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if from != nil {
		query = query.Where("date >= ?", *from)
	}
	if to != nil {
		query = query.Where("date <= ?", *to)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("date DESC").Offset(offset).Limit(limit).Find(&expenses).Error; err != nil {
		return nil, 0, err
	}

	return expenses, total, nil
}
