package http

import (
	"net/http"

	"saldo/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	cats, err := s.svc.Categories.List(r.Context(), owner)
	if err != nil {
		s.fail(w, r, err, "list_categories")
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	NewJSONResponse().Body(cats).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	var in core.CategoryInput
	if err := DecodeJSON(w, r, &in, ""); err != nil {
		s.fail(w, r, err, "create_category")
		return
	}
	cat, err := s.svc.Categories.Create(r.Context(), owner, in)
	if err != nil {
		s.fail(w, r, err, "create_category")
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(cat).Write(w)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	id, err := ParsePathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "get_category")
		return
	}
	cat, err := s.svc.Categories.Get(r.Context(), owner, core.CategoryID(id))
	if err != nil {
		s.fail(w, r, err, "get_category")
		return
	}
	NewJSONResponse().Body(cat).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	id, err := ParsePathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "update_category")
		return
	}
	var in core.CategoryInput
	if err := DecodeJSON(w, r, &in, ""); err != nil {
		s.fail(w, r, err, "update_category")
		return
	}
	cat, err := s.svc.Categories.Update(r.Context(), owner, core.CategoryID(id), in)
	if err != nil {
		s.fail(w, r, err, "update_category")
		return
	}
	NewJSONResponse().Body(cat).Write(w)
}

// handleDeleteCategory leaves the category's transactions uncategorized.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	id, err := ParsePathID(r, "id")
	if err != nil {
		s.fail(w, r, err, "delete_category")
		return
	}
	if err := s.svc.Categories.Delete(r.Context(), owner, core.CategoryID(id)); err != nil {
		s.fail(w, r, err, "delete_category")
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
