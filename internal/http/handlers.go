package http

import (
	"context"
	"net/http"
	"time"

	"financeflow/internal/core"
	applog "financeflow/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady verifies the ledger store and the categories document
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if err := s.store.Ping(ctx); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "check", "store", applog.FieldError, err)
		checks["store"] = "failed"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	// A missing document degrades /api/categories only
	if _, err := s.catalog.Categories(); err != nil {
		checks["categories"] = "unavailable"
	} else {
		checks["categories"] = "ok"
	}

	writeJSON(w, httpStatus, map[string]any{"status": status, "checks": checks})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	doc, err := s.catalog.Categories()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := parseRange(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.ledger.SearchByNote(r.Context(), sanitizeInput(q.Get("q")), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res.Expenses = nonNil(res.Expenses)
	res.Income = nonNil(res.Income)
	writeJSON(w, http.StatusOK, res)
}

type transferRequest struct {
	From   string     `json:"from"`
	To     string     `json:"to"`
	Amount core.Money `json:"amount"`
	Date   core.Date  `json:"date"`
}

// handleTransfer moves money between two accounts. Date defaults to today.
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Date.IsZero() {
		req.Date = core.DateOf(s.now())
	}
	res, err := s.ledger.Transfer(r.Context(), sanitizeInput(req.From), sanitizeInput(req.To), req.Amount, req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
