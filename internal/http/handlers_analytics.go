package http

import (
	"net/http"

	"financeflow/internal/core"
	"financeflow/internal/storage"
)

func (s *Server) handleSummarizeByCategory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := parseRange(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	totals, err := s.reports.SummarizeByCategory(r.Context(), rng, sanitizeInput(q.Get("category")), sanitizeInput(q.Get("account")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(totals))
}

func (s *Server) handleFinancialSummary(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.reports.FinancialSummary(r.Context(), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTopCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := parseRange(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := parseOptionalInt(q, "limit", storage.DefaultTopCategories)
	if err != nil {
		writeError(w, r, err)
		return
	}
	top, err := s.reports.TopCategories(r.Context(), rng, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(top))
}

func (s *Server) handleCategoryTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := parseRange(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	period, err := core.ParsePeriod(sanitizeInput(q.Get("period")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	trend, err := s.reports.CategoryTrend(r.Context(), sanitizeInput(q.Get("category")), rng, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(trend))
}

type budgetRequest struct {
	Category  string         `json:"category"`
	Amount    core.Money     `json:"amount"`
	MonthYear core.MonthYear `json:"month_year"`
	Month     core.MonthYear `json:"month"`
}

// handleSetBudget creates or replaces the budget of a category for a month.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	month := req.MonthYear
	if month.Year == 0 {
		month = req.Month
	}
	b, err := s.reports.SetBudget(r.Context(), core.Budget{
		Category:  sanitizeInput(req.Category),
		MonthYear: month,
		Amount:    req.Amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	month, err := core.ParseMonthYear(pathVar(r, "month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	status, err := s.reports.BudgetStatus(r.Context(), month, sanitizeInput(r.URL.Query().Get("category")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(status))
}
