package http

import (
	"net/http"

	"saldo/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	filter, err := ParseListFilter(r.URL.Query())
	if err != nil {
		s.fail(w, r, err, "list_transactions")
		return
	}
	txs, err := s.svc.Transactions.List(r.Context(), owner, filter)
	if err != nil {
		s.fail(w, r, err, "list_transactions")
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	NewJSONResponse().Body(txs).Write(w)
}

// handleCreateTransaction answers with the stored transaction and the
// committed balance of the account it moved.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	var in core.TransactionInput
	if err := DecodeJSON(w, r, &in, "amount"); err != nil {
		s.fail(w, r, err, "create_transaction")
		return
	}
	change, err := s.svc.Transactions.Create(r.Context(), owner, in)
	if err != nil {
		s.fail(w, r, err, "create_transaction")
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(change).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	id, err := ParsePathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "get_transaction")
		return
	}
	tx, err := s.svc.Transactions.Get(r.Context(), owner, core.TransactionID(id))
	if err != nil {
		s.fail(w, r, err, "get_transaction")
		return
	}
	NewJSONResponse().Body(tx).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	id, err := ParsePathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "update_transaction")
		return
	}
	var in core.TransactionInput
	if err := DecodeJSON(w, r, &in, "amount"); err != nil {
		s.fail(w, r, err, "update_transaction")
		return
	}
	change, err := s.svc.Transactions.Update(r.Context(), owner, core.TransactionID(id), in)
	if err != nil {
		s.fail(w, r, err, "update_transaction")
		return
	}
	NewJSONResponse().Body(change).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	id, err := ParsePathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "delete_transaction")
		return
	}
	change, err := s.svc.Transactions.Delete(r.Context(), owner, core.TransactionID(id))
	if err != nil {
		s.fail(w, r, err, "delete_transaction")
		return
	}
	NewJSONResponse().Body(change).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	d, err := s.svc.Dashboard.Summary(r.Context(), owner)
	if err != nil {
		s.fail(w, r, err, "dashboard")
		return
	}
	NewJSONResponse().Body(d).Write(w)
}
