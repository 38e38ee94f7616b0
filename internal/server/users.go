package server

import (
	"errors"
	"net/http"

	"aitodo/internal/app"
	"aitodo/pkg/domain"
)

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	users, err := s.app.SearchUsers(user, r.URL.Query().Get("q"))
	if err != nil {
		if errors.Is(err, app.ErrQueryTooShort) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.audit(r, "users.search", "fail", "user_id", user.ID, "reason", err.Error())
		writeError(w, http.StatusInternalServerError, "搜索用户失败")
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"users":   users,
	})
}
