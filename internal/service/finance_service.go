package service

import (
	"context"
	"errors"
	"time"

	"merchcrm/internal/errlog"
	"merchcrm/internal/model"
	"merchcrm/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	Description string          `json:"description"`
	Date        string          `json:"date"` // YYYY-MM-DD, defaults to today
}

// FinanceSummary is the profit and loss snapshot for a period
type FinanceSummary struct {
	From          time.Time                  `json:"from"`
	To            time.Time                  `json:"to"`
	Revenue       decimal.Decimal            `json:"revenue"`
	SalesCount    int64                      `json:"sales_count"`
	COGS          decimal.Decimal            `json:"cogs"`
	GrossProfit   decimal.Decimal            `json:"gross_profit"`
	Expenses      []repository.CategoryTotal `json:"expenses"`
	TotalExpenses decimal.Decimal            `json:"total_expenses"`
	NetProfit     decimal.Decimal            `json:"net_profit"`
}

// FinanceService aggregates revenue, costs and expenses
type FinanceService interface {
	Summary(ctx context.Context, from, to time.Time) (*FinanceSummary, error)
	CreateExpense(ctx context.Context, actorID uuid.UUID, req CreateExpenseRequest) (*model.Expense, error)
	ListExpenses(ctx context.Context, page, limit int, category string, from, to *time.Time) ([]model.Expense, int64, error)
}

type financeService struct {
	finance repository.FinanceRepository
	audits  repository.AuditRepository
	tx      repository.TransactionManager
	errors  *errlog.Recorder
}

// NewFinanceService returns a new instance of FinanceService
func NewFinanceService(
	finance repository.FinanceRepository,
	audits repository.AuditRepository,
	tx repository.TransactionManager,
	rec *errlog.Recorder,
) FinanceService {
	return &financeService{finance: finance, audits: audits, tx: tx, errors: rec}
}

// Summary computes the P&L for the period:
// gross profit = revenue - COGS, net profit = gross - operating expenses.
func (s *financeService) Summary(ctx context.Context, from, to time.Time) (*FinanceSummary, error) {
	revenue, err := s.finance.RevenueBetween(ctx, from, to)
	if err != nil {
		s.errors.Record(ctx, err, "/api/finance/summary", "Summary", nil, nil)
		return nil, errors.New("Не удалось загрузить финансовую сводку")
	}
	salesCount, err := s.finance.SalesCountBetween(ctx, from, to)
	if err != nil {
		s.errors.Record(ctx, err, "/api/finance/summary", "Summary", nil, nil)
		return nil, errors.New("Не удалось загрузить финансовую сводку")
	}
	cogs, err := s.finance.COGSBetween(ctx, from, to)
	if err != nil {
		s.errors.Record(ctx, err, "/api/finance/summary", "Summary", nil, nil)
		return nil, errors.New("Не удалось загрузить финансовую сводку")
	}
	expenses, err := s.finance.ExpensesByCategory(ctx, from, to)
	if err != nil {
		s.errors.Record(ctx, err, "/api/finance/summary", "Summary", nil, nil)
		return nil, errors.New("Не удалось загрузить финансовую сводку")
	}

	totalExpenses := decimal.Zero
	for _, e := range expenses {
		totalExpenses = totalExpenses.Add(e.Total)
	}
	grossProfit := revenue.Sub(cogs)

	return &FinanceSummary{
		From:          from,
		To:            to,
		Revenue:       revenue,
		SalesCount:    salesCount,
		COGS:          cogs,
		GrossProfit:   grossProfit,
		Expenses:      expenses,
		TotalExpenses: totalExpenses,
		NetProfit:     grossProfit.Sub(totalExpenses),
	}, nil
}

func (s *financeService) CreateExpense(ctx context.Context, actorID uuid.UUID, req CreateExpenseRequest) (*model.Expense, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("Сумма должна быть больше нуля")
	}
	if !validExpenseCategory(req.Category) {
		return nil, errors.New("Неизвестная категория расхода")
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, errors.New("Некорректная дата")
		}
		date = parsed
	}

	expense := &model.Expense{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
		CreatedBy:   &actorID,
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.finance.CreateExpense(txCtx, expense); err != nil {
			return err
		}
		return s.audits.Log(txCtx, newAuditLog(&actorID, model.ActionCreateExpense, model.EntityExpense, expense.ID.String(), map[string]interface{}{
			"amount":   req.Amount.String(),
			"category": req.Category,
		}))
	})
	if err != nil {
		s.errors.Record(ctx, err, "/api/finance/expenses", "CreateExpense", &actorID, nil)
		return nil, errors.New("Не удалось сохранить расход")
	}

	return expense, nil
}

func (s *financeService) ListExpenses(ctx context.Context, page, limit int, category string, from, to *time.Time) ([]model.Expense, int64, error) {
	expenses, total, err := s.finance.ListExpenses(ctx, page, limit, category, from, to)
	if err != nil {
		s.errors.Record(ctx, err, "/api/finance/expenses", "ListExpenses", nil, nil)
		return nil, 0, errors.New("Не удалось загрузить расходы")
	}
	return expenses, total, nil
}

func validExpenseCategory(category string) bool {
	for _, c := range model.ExpenseCategories {
		if c == category {
			return true
		}
	}
	return false
}
