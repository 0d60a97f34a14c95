package core

// CategoryTotal is a sum of expenses aggregated by category.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    Money  `json:"total"`
	Count    int    `json:"count"`
}

// PeriodTotal is a category's expense sum for one month or year bucket.
type PeriodTotal struct {
	Period string `json:"period"`
	Total  Money  `json:"total"`
}

type FinancialSummary struct {
	From          Date  `json:"from"`
	To            Date  `json:"to"`
	TotalIncome   Money `json:"total_income"`
	TotalExpenses Money `json:"total_expenses"`
	NetSavings    Money `json:"net_savings"`
}

// BudgetStatus compares a category budget with the month's expenses.
// Remaining is negative when the budget is exceeded.
type BudgetStatus struct {
	Category  string    `json:"category"`
	MonthYear MonthYear `json:"month_year"`
	Budgeted  Money     `json:"budgeted"`
	Spent     Money     `json:"spent"`
	Remaining Money     `json:"remaining"`
}

type SearchResult struct {
	Expenses []Movement `json:"expenses"`
	Income   []Movement `json:"income"`
}

// TransferResult identifies the synthetic pair written by a transfer.
type TransferResult struct {
	ExpenseID int64  `json:"expense_id"`
	IncomeID  int64  `json:"income_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    Money  `json:"amount"`
	Date      Date   `json:"date"`
}

// Transfer markers on the synthetic movements.
const (
	TransferCategory    = "finance_fees"
	TransferSubcategory = "internal_transfer"
	TransferSource      = "internal_transfer"
)

// BalanceDrift reports an account whose cached balance disagrees with its movements.
type BalanceDrift struct {
	AccountID int64
	Name      string
	Cached    Money
	Computed  Money
}
