package http

import (
	"net/http"

	"financeflow/internal/core"
)

// movementRequest accepts "category" for expenses and "source" for income.
type movementRequest struct {
	Date        core.Date  `json:"date"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Source      string     `json:"source"`
	Subcategory string     `json:"subcategory"`
	Note        string     `json:"note"`
	Account     string     `json:"account"`
}

func (req movementRequest) toNewMovement(kind core.Kind) core.NewMovement {
	label := firstNonEmpty(req.Category, req.Source)
	if kind == core.KindIncome {
		label = firstNonEmpty(req.Source, req.Category)
	}
	return core.NewMovement{
		Kind:        kind,
		Date:        req.Date,
		Amount:      req.Amount,
		Category:    label,
		Subcategory: sanitizeInput(req.Subcategory),
		Note:        sanitizeInput(req.Note),
		AccountName: sanitizeInput(req.Account),
	}
}

type movementPatchRequest struct {
	core.MovementPatch
	Source  *string `json:"source"`
	Account *string `json:"account"`
}

func (req movementPatchRequest) toPatch() core.MovementPatch {
	p := req.MovementPatch
	if p.Category == nil {
		p.Category = req.Source
	}
	if p.AccountName == nil {
		p.AccountName = req.Account
	}
	p.Category = sanitizePtr(p.Category)
	p.Subcategory = sanitizePtr(p.Subcategory)
	p.Note = sanitizePtr(p.Note)
	p.AccountName = sanitizePtr(p.AccountName)
	return p
}

func (s *Server) handleCreateMovement(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req movementRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		m, err := s.ledger.RecordMovement(r.Context(), req.toNewMovement(kind))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

func (s *Server) handleListMovements(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, err := parseRange(r.URL.Query())
		if err != nil {
			writeError(w, r, err)
			return
		}
		items, err := s.ledger.ListMovements(r.Context(), kind, rng)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(items))
	}
}

func (s *Server) handleUpdateMovement(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req movementPatchRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		m, err := s.ledger.UpdateMovement(r.Context(), kind, id, req.toPatch())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func (s *Server) handleDeleteMovement(kind core.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.ledger.DeleteMovement(r.Context(), kind, id); err != nil {
			writeError(w, r, err)
			return
		}
		NewJSONResponse().Status(http.StatusNoContent).Write(w)
	}
}
