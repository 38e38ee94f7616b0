package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"aitodo/internal/app"
	"aitodo/pkg/domain"
)

type shareRequest struct {
	TodoID     string            `json:"todo_id"`
	UserID     string            `json:"user_id"`
	Permission domain.Permission `json:"permission"`
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodPost:
		s.handleShareTodo(w, r, user)
	case http.MethodDelete:
		s.handleUnshareTodo(w, r, user)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleShareTodo(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req shareRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "无效的请求数据")
		return
	}
	if strings.TrimSpace(req.TodoID) == "" || strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "缺少必要参数")
		return
	}
	target, err := s.app.ShareTodo(user, req.TodoID, req.UserID, req.Permission)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrShareForbidden), errors.Is(err, app.ErrTargetNotFound):
			s.audit(r, "share.create", "fail", "user_id", user.ID, "todo_id", req.TodoID, "reason", err.Error())
			writeError(w, http.StatusNotFound, err.Error())
		default:
			s.audit(r, "share.create", "fail", "user_id", user.ID, "todo_id", req.TodoID, "reason", err.Error())
			writeError(w, http.StatusInternalServerError, "分享失败，请重试")
		}
		return
	}
	s.audit(r, "share.create", "success", "user_id", user.ID, "todo_id", req.TodoID, "target_user_id", target.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("已与 %s 分享待办事项", target.Phone),
	})
}

func (s *Server) handleUnshareTodo(w http.ResponseWriter, r *http.Request, user domain.User) {
	q := r.URL.Query()
	todoID := strings.TrimSpace(q.Get("todo_id"))
	userID := strings.TrimSpace(q.Get("user_id"))
	if todoID == "" || userID == "" {
		writeError(w, http.StatusBadRequest, "缺少必要参数")
		return
	}
	if err := s.app.UnshareTodo(user, todoID, userID); err != nil {
		if errors.Is(err, app.ErrUnshareForbidden) {
			s.audit(r, "share.revoke", "fail", "user_id", user.ID, "todo_id", todoID, "reason", "forbidden")
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.audit(r, "share.revoke", "fail", "user_id", user.ID, "todo_id", todoID, "reason", err.Error())
		writeError(w, http.StatusInternalServerError, "取消分享失败，请重试")
		return
	}
	s.audit(r, "share.revoke", "success", "user_id", user.ID, "todo_id", todoID, "target_user_id", userID)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "已取消分享",
	})
}
