package http

import (
	"net/http"

	"saldo/internal/core"
)

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var in core.NewUser
	if err := DecodeJSON(w, r, &in, ""); err != nil {
		s.fail(w, r, err, "register_user")
		return
	}
	u, err := s.svc.Users.Register(r.Context(), in)
	if err != nil {
		s.fail(w, r, err, "register_user")
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(u).Write(w)
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	u, err := s.svc.Users.Get(r.Context(), owner)
	if err != nil {
		s.fail(w, r, err, "get_user")
		return
	}
	NewJSONResponse().Body(u).Write(w)
}

// handleDeleteMe removes the requesting user together with everything they own.
func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request, owner core.UserID) {
	if err := s.svc.Users.Delete(r.Context(), owner); err != nil {
		s.fail(w, r, err, "delete_user")
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
