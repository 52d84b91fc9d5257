package http

import (
	"net/http"

	"saldo/internal/core"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	accounts, err := s.svc.Accounts.List(r.Context(), owner)
	if err != nil {
		s.fail(w, r, err, "list_accounts")
		return
	}
	if accounts == nil {
		accounts = []core.Account{}
	}
	NewJSONResponse().Body(accounts).Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	var in core.AccountInput
	if err := DecodeJSON(w, r, &in, "opening_balance"); err != nil {
		s.fail(w, r, err, "create_account")
		return
	}
	acc, err := s.svc.Accounts.Create(r.Context(), owner, in)
	if err != nil {
		s.fail(w, r, err, "create_account")
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(acc).Write(w)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	id, err := ParsePathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "get_account")
		return
	}
	acc, err := s.svc.Accounts.Get(r.Context(), owner, core.AccountID(id))
	if err != nil {
		s.fail(w, r, err, "get_account")
		return
	}
	NewJSONResponse().Body(acc).Write(w)
}

// handleUpdateAccount edits an account. The cached balance is not part of the
// input: only the opening balance can move it from here.
func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	id, err := ParsePathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "update_account")
		return
	}
	var in core.AccountInput
	if err := DecodeJSON(w, r, &in, "opening_balance"); err != nil {
		s.fail(w, r, err, "update_account")
		return
	}
	acc, err := s.svc.Accounts.Update(r.Context(), owner, core.AccountID(id), in)
	if err != nil {
		s.fail(w, r, err, "update_account")
		return
	}
	NewJSONResponse().Body(acc).Write(w)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	id, err := ParsePathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "delete_account")
		return
	}
	if err := s.svc.Accounts.Delete(r.Context(), owner, core.AccountID(id)); err != nil {
		s.fail(w, r, err, "delete_account")
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleReconcileAccount(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	id, err := ParsePathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "reconcile_account")
		return
	}
	rec, err := s.svc.Reconciler.ReconcileAccount(r.Context(), owner, core.AccountID(id))
	if err != nil {
		s.fail(w, r, err, "reconcile_account")
		return
	}
	NewJSONResponse().Body(map[string]any{
		"account_id": rec.AccountID,
		"cached":     rec.Cached,
		"expected":   rec.Expected,
		"drift":      rec.Drift(),
		"in_sync":    rec.InSync(),
		"repaired":   rec.Repaired,
	}).Write(w)
}
