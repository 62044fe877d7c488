package service

import (
	"context"
	"testing"
	"time"

	"merchcrm/internal/errlog"
	"merchcrm/internal/model"
	"merchcrm/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireDecimal(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(raw)
	require.NoError(t, err)
	return d
}

// fakeFinanceRepo returns canned aggregates and records expenses
type fakeFinanceRepo struct {
	revenue    decimal.Decimal
	salesCount int64
	cogs       decimal.Decimal
	categories []repository.CategoryTotal
	expenses   []*model.Expense
}

func (f *fakeFinanceRepo) RevenueBetween(_ context.Context, _, _ time.Time) (decimal.Decimal, error) {
	return f.revenue, nil
}

func (f *fakeFinanceRepo) SalesCountBetween(_ context.Context, _, _ time.Time) (int64, error) {
	return f.salesCount, nil
}

func (f *fakeFinanceRepo) ExpensesByCategory(_ context.Context, _, _ time.Time) ([]repository.CategoryTotal, error) {
	return f.categories, nil
}

func (f *fakeFinanceRepo) COGSBetween(_ context.Context, _, _ time.Time) (decimal.Decimal, error) {
	return f.cogs, nil
}

func (f *fakeFinanceRepo) CreateExpense(_ context.Context, expense *model.Expense) error {
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	f.expenses = append(f.expenses, expense)
	return nil
}

func (f *fakeFinanceRepo) ListExpenses(_ context.Context, page, limit int, category string, from, to *time.Time) ([]model.Expense, int64, error) {
	var all []model.Expense
	for _, e := range f.expenses {
		if category != "" && e.Category != category {
			continue
		}
		all = append(all, *e)
	}
	return all, int64(len(all)), nil
}

func newFinanceService(t *testing.T, finance *fakeFinanceRepo) (FinanceService, *fakeAuditRepo) {
	t.Helper()
	audits := &fakeAuditRepo{}
	security := &fakeSecurityRepo{}
	svc := NewFinanceService(finance, audits, &fakeTxManager{}, errlog.NewRecorder(security))
	return svc, audits
}

func TestFinanceSummaryMath(t *testing.T) {
	finance := &fakeFinanceRepo{
		revenue:    requireDecimal(t, "100000.00"),
		salesCount: 42,
		cogs:       requireDecimal(t, "35000.50"),
		categories: []repository.CategoryTotal{
			{Category: "rent", Total: requireDecimal(t, "20000.00")},
			{Category: "salary", Total: requireDecimal(t, "30000.25")},
		},
	}
	svc, _ := newFinanceService(t, finance)

	to := time.Now()
	from := to.AddDate(0, -1, 0)
	summary, err := svc.Summary(context.Background(), from, to)
	require.NoError(t, err)

	assert.True(t, summary.GrossProfit.Equal(requireDecimal(t, "64999.50")))
	assert.True(t, summary.TotalExpenses.Equal(requireDecimal(t, "50000.25")))
	assert.True(t, summary.NetProfit.Equal(requireDecimal(t, "14999.25")))
	assert.EqualValues(t, 42, summary.SalesCount)
}

func TestFinanceSummaryEmptyPeriod(t *testing.T) {
	svc, _ := newFinanceService(t, &fakeFinanceRepo{})

	to := time.Now()
	summary, err := svc.Summary(context.Background(), to.AddDate(0, 0, -7), to)
	require.NoError(t, err)

	assert.True(t, summary.Revenue.IsZero())
	assert.True(t, summary.NetProfit.IsZero())
}

func TestCreateExpenseValidation(t *testing.T) {
	svc, audits := newFinanceService(t, &fakeFinanceRepo{})
	ctx := context.Background()
	actorID := uuid.New()

	_, err := svc.CreateExpense(ctx, actorID, CreateExpenseRequest{
		Amount:   requireDecimal(t, "-5"),
		Category: "rent",
	})
	require.Error(t, err)
	assert.Equal(t, "Сумма должна быть больше нуля", err.Error())

	_, err = svc.CreateExpense(ctx, actorID, CreateExpenseRequest{
		Amount:   requireDecimal(t, "10"),
		Category: "entertainment",
	})
	require.Error(t, err)
	assert.Equal(t, "Неизвестная категория расхода", err.Error())

	assert.Empty(t, audits.entries)
}

func TestCreateExpenseWritesAudit(t *testing.T) {
	finance := &fakeFinanceRepo{}
	svc, audits := newFinanceService(t, finance)
	actorID := uuid.New()

	expense, err := svc.CreateExpense(context.Background(), actorID, CreateExpenseRequest{
		Amount:   requireDecimal(t, "1500.00"),
		Category: "purchase",
		Date:     "2026-08-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-08-01", expense.Date.Format("2006-01-02"))

	require.Len(t, audits.entries, 1)
	assert.Equal(t, model.ActionCreateExpense, audits.entries[0].Action)
}
