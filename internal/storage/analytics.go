package storage

import (
	"context"
	"strings"

	"financeflow/internal/core"
)

// DefaultTopCategories is used when TopCategories gets a non-positive limit.
const DefaultTopCategories = 5

// CategoryFilter narrows SummarizeByCategory. Empty fields match everything.
type CategoryFilter struct {
	Category string
	Account  string
}

// SummarizeByCategory totals expenses per category, largest first.
func (r *SQLiteRepository) SummarizeByCategory(ctx context.Context, rng core.DateRange, f CategoryFilter) ([]core.CategoryTotal, error) {
	return r.categoryTotals(ctx, rng, f, 0)
}

// TopCategories returns the limit categories with the largest expense totals.
func (r *SQLiteRepository) TopCategories(ctx context.Context, rng core.DateRange, limit int) ([]core.CategoryTotal, error) {
	if limit <= 0 {
		limit = DefaultTopCategories
	}
	return r.categoryTotals(ctx, rng, CategoryFilter{}, limit)
}

func (r *SQLiteRepository) categoryTotals(ctx context.Context, rng core.DateRange, f CategoryFilter, limit int) ([]core.CategoryTotal, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	var q strings.Builder
	q.WriteString(`SELECT e.category, SUM(e.amount_cents), COUNT(*)
		FROM expenses e JOIN accounts a ON a.id = e.account_id
		WHERE e.date BETWEEN ? AND ?`)
	args := []any{rng.From.String(), rng.To.String()}
	if c := strings.TrimSpace(f.Category); c != "" {
		q.WriteString(` AND e.category = ?`)
		args = append(args, c)
	}
	if acc := strings.TrimSpace(f.Account); acc != "" {
		// accounts.name carries NOCASE collation
		q.WriteString(` AND a.name = ?`)
		args = append(args, acc)
	}
	q.WriteString(` GROUP BY e.category ORDER BY SUM(e.amount_cents) DESC, e.category`)
	if limit > 0 {
		q.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, storeErr("summarize categories", err)
	}
	defer rows.Close()

	totals := []core.CategoryTotal{}
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total.Cents, &ct.Count); err != nil {
			return nil, storeErr("scan category total", err)
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate category totals", err)
	}
	return totals, nil
}

// FinancialSummary totals income and expenses in the range.
func (r *SQLiteRepository) FinancialSummary(ctx context.Context, rng core.DateRange) (core.FinancialSummary, error) {
	if err := rng.Validate(); err != nil {
		return core.FinancialSummary{}, err
	}
	s := core.FinancialSummary{From: rng.From, To: rng.To}
	err := r.db.QueryRowContext(ctx, `SELECT
		COALESCE((SELECT SUM(amount_cents) FROM income WHERE date BETWEEN ?1 AND ?2), 0),
		COALESCE((SELECT SUM(amount_cents) FROM expenses WHERE date BETWEEN ?1 AND ?2), 0)`,
		rng.From.String(), rng.To.String()).Scan(&s.TotalIncome.Cents, &s.TotalExpenses.Cents)
	if err != nil {
		return core.FinancialSummary{}, storeErr("financial summary", err)
	}
	s.NetSavings = core.Money{Cents: s.TotalIncome.Cents - s.TotalExpenses.Cents}
	return s, nil
}

// CategoryTrend buckets one category's expenses by month or year.
func (r *SQLiteRepository) CategoryTrend(ctx context.Context, category string, rng core.DateRange, period core.Period) ([]core.PeriodTotal, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	var format string
	switch period {
	case core.PeriodMonthly:
		format = "%Y-%m"
	case core.PeriodYearly:
		format = "%Y"
	default:
		return nil, core.Invalidf("unknown period %q", period)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT strftime(?, date) AS bucket, SUM(amount_cents)
		FROM expenses WHERE category = ? AND date BETWEEN ? AND ?
		GROUP BY bucket ORDER BY bucket`,
		format, strings.TrimSpace(category), rng.From.String(), rng.To.String())
	if err != nil {
		return nil, storeErr("category trend", err)
	}
	defer rows.Close()

	trend := []core.PeriodTotal{}
	for rows.Next() {
		var pt core.PeriodTotal
		if err := rows.Scan(&pt.Period, &pt.Total.Cents); err != nil {
			return nil, storeErr("scan category trend", err)
		}
		trend = append(trend, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate category trend", err)
	}
	return trend, nil
}
