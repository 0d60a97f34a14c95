package http

import (
	"net/http"

	"financeflow/internal/core"
)

type createAccountRequest struct {
	Name           string     `json:"name"`
	Kind           string     `json:"kind"`
	InitialBalance core.Money `json:"initial_balance"`
}

type renameAccountRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	acct, err := s.ledger.CreateAccount(r.Context(), sanitizeInput(req.Name), sanitizeInput(req.Kind), req.InitialBalance)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(accounts))
}

func (s *Server) handleRenameAccount(w http.ResponseWriter, r *http.Request) {
	var req renameAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	acct, err := s.ledger.RenameAccount(r.Context(), pathVar(r, "name"), sanitizeInput(req.Name))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteAccount(r.Context(), pathVar(r, "name")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
