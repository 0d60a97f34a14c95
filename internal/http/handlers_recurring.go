package http

import (
	"net/http"
	"strings"
	"time"

	"financeflow/internal/core"
	applog "financeflow/internal/log"
)

type recurringRequest struct {
	Kind             string     `json:"kind"`
	Amount           core.Money `json:"amount"`
	CategoryOrSource string     `json:"category_or_source"`
	Category         string     `json:"category"`
	Source           string     `json:"source"`
	Subcategory      string     `json:"subcategory"`
	Note             string     `json:"note"`
	Frequency        string     `json:"frequency"`
	StartDate        core.Date  `json:"start_date"`
	Account          string     `json:"account"`
}

func (req recurringRequest) toNewRecurring() (core.NewRecurring, error) {
	kind, err := core.ParseKind(sanitizeInput(req.Kind))
	if err != nil {
		return core.NewRecurring{}, err
	}
	freq, err := core.ParseFrequency(sanitizeInput(req.Frequency))
	if err != nil {
		return core.NewRecurring{}, err
	}
	return core.NewRecurring{
		Kind:             kind,
		Amount:           req.Amount,
		CategoryOrSource: firstNonEmpty(req.CategoryOrSource, req.Category, req.Source),
		Subcategory:      sanitizeInput(req.Subcategory),
		Note:             sanitizeInput(req.Note),
		Frequency:        freq,
		StartDate:        req.StartDate,
		AccountName:      sanitizeInput(req.Account),
	}, nil
}

type recurringPatchRequest struct {
	core.RecurringPatch
	Account *string `json:"account"`
}

type processResponse struct {
	ProcessedCount int       `json:"processed_count"`
	AsOf           core.Date `json:"as_of"`
}

func (s *Server) handleAddRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := req.toNewRecurring()
	if err != nil {
		writeError(w, r, err)
		return
	}
	ob, err := s.ledger.AddRecurring(r.Context(), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ob)
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	obs, err := s.ledger.ListRecurring(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(obs))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req recurringPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch := req.RecurringPatch
	if patch.AccountName == nil {
		patch.AccountName = req.Account
	}
	patch.AccountName = sanitizePtr(patch.AccountName)

	ob, err := s.ledger.UpdateRecurring(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ob)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteRecurring(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleProcessDue runs one catch-up pass. ?as_of=YYYY-MM-DD replays the pass
// as of that date instead of today.
func (s *Server) handleProcessDue(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	if v := strings.TrimSpace(r.URL.Query().Get("as_of")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		now = time.Date(d.Year(), time.Month(d.Month()), d.Day(), 12, 0, 0, 0, time.UTC)
	}

	n, err := s.processor.ProcessDue(r.Context(), now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Catch-up pass finished",
		applog.FieldOperation, applog.OpProcess,
		"processed", n)
	writeJSON(w, http.StatusOK, processResponse{ProcessedCount: n, AsOf: core.DateOf(now)})
}
