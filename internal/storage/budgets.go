package storage

import (
	"context"
	"log/slog"
	"strings"

	"financeflow/internal/core"
)

// SetBudget creates or replaces the budget for a category and month.
func (r *SQLiteRepository) SetBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.Category = strings.TrimSpace(b.Category)
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO budgets (category, month_year, amount_cents) VALUES (?, ?, ?)
		ON CONFLICT (category, month_year) DO UPDATE SET amount_cents = excluded.amount_cents`,
		b.Category, b.MonthYear.String(), b.Amount.Cents)
	if err != nil {
		return core.Budget{}, storeErr("set budget", err)
	}

	slog.InfoContext(ctx, "Budget saved to SQLite", "category", b.Category, "month_year", b.MonthYear.String(), "amount_cents", b.Amount.Cents)
	return b, nil
}

// BudgetStatus compares each budget of the month with that month's expenses.
// Categories without a budget are not reported.
func (r *SQLiteRepository) BudgetStatus(ctx context.Context, month core.MonthYear, category string) ([]core.BudgetStatus, error) {
	rng := month.Range()
	query := `SELECT b.category, b.amount_cents, COALESCE(SUM(e.amount_cents), 0)
		FROM budgets b
		LEFT JOIN expenses e ON e.category = b.category AND e.date BETWEEN ? AND ?
		WHERE b.month_year = ?`
	args := []any{rng.From.String(), rng.To.String(), month.String()}
	if c := strings.TrimSpace(category); c != "" {
		query += ` AND b.category = ?`
		args = append(args, c)
	}
	query += ` GROUP BY b.id, b.category, b.amount_cents ORDER BY b.category`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("budget status", err)
	}
	defer rows.Close()

	statuses := []core.BudgetStatus{}
	for rows.Next() {
		s := core.BudgetStatus{MonthYear: month}
		if err := rows.Scan(&s.Category, &s.Budgeted.Cents, &s.Spent.Cents); err != nil {
			return nil, storeErr("scan budget status", err)
		}
		s.Remaining = core.Money{Cents: s.Budgeted.Cents - s.Spent.Cents}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate budget status", err)
	}
	return statuses, nil
}
