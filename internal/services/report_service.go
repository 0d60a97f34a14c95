package services

import (
	"context"
	"fmt"
	"strings"

	"financeflow/internal/core"
	"financeflow/internal/storage"
)

// ReportService answers read-only analytics and budget questions.
type ReportService struct {
	storage *storage.SQLiteRepository
}

func NewReportService(storage *storage.SQLiteRepository) *ReportService {
	return &ReportService{storage: storage}
}

// SummarizeByCategory totals expenses per category; category and account are
// optional filters.
func (s *ReportService) SummarizeByCategory(ctx context.Context, rng core.DateRange, category, account string) ([]core.CategoryTotal, error) {
	totals, err := s.storage.SummarizeByCategory(ctx, rng, storage.CategoryFilter{Category: category, Account: account})
	if err != nil {
		return nil, fmt.Errorf("summarize by category: %w", err)
	}
	return totals, nil
}

func (s *ReportService) FinancialSummary(ctx context.Context, rng core.DateRange) (core.FinancialSummary, error) {
	summary, err := s.storage.FinancialSummary(ctx, rng)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("financial summary: %w", err)
	}
	return summary, nil
}

// TopCategories returns the largest expense categories; limit <= 0 means the default.
func (s *ReportService) TopCategories(ctx context.Context, rng core.DateRange, limit int) ([]core.CategoryTotal, error) {
	top, err := s.storage.TopCategories(ctx, rng, limit)
	if err != nil {
		return nil, fmt.Errorf("top categories: %w", err)
	}
	return top, nil
}

func (s *ReportService) CategoryTrend(ctx context.Context, category string, rng core.DateRange, period core.Period) ([]core.PeriodTotal, error) {
	if strings.TrimSpace(category) == "" {
		return nil, core.ErrEmptyCategory
	}
	trend, err := s.storage.CategoryTrend(ctx, category, rng, period)
	if err != nil {
		return nil, fmt.Errorf("category trend: %w", err)
	}
	return trend, nil
}

// SetBudget creates or replaces a category budget for a month.
func (s *ReportService) SetBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	saved, err := s.storage.SetBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("set budget: %w", err)
	}
	return saved, nil
}

// BudgetStatus reports budgeted, spent and remaining per budgeted category.
func (s *ReportService) BudgetStatus(ctx context.Context, month core.MonthYear, category string) ([]core.BudgetStatus, error) {
	status, err := s.storage.BudgetStatus(ctx, month, category)
	if err != nil {
		return nil, fmt.Errorf("budget status: %w", err)
	}
	return status, nil
}
