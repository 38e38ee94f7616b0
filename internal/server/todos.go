package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"aitodo/internal/app"
	"aitodo/pkg/domain"
)

func (s *Server) handleTodos(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTodos(w, r, user)
	case http.MethodPost:
		s.handleCreateTodo(w, r, user)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request, user domain.User) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	todos, err := s.app.ListTodos(user, q.Get("date"), page, limit)
	if err != nil {
		s.audit(r, "todos.list", "fail", "user_id", user.ID, "reason", err.Error())
		writeError(w, http.StatusInternalServerError, "获取待办事项失败")
		return
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"todos":   todos,
	})
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req app.CreateTodoInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "无效的请求数据")
		return
	}
	todo, err := s.app.CreateTodo(user, req)
	if err != nil {
		if errors.Is(err, app.ErrTitleRequired) || errors.Is(err, app.ErrInvalidPriority) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.audit(r, "todos.create", "fail", "user_id", user.ID, "reason", err.Error())
		writeError(w, http.StatusInternalServerError, "创建待办事项失败")
		return
	}
	s.audit(r, "todos.create", "success", "user_id", user.ID, "todo_id", todo.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"todo":    todo,
	})
}

func (s *Server) handleTodoByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/api/todos/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPut:
		s.handleUpdateTodo(w, r, user, id)
	case http.MethodDelete:
		s.handleDeleteTodo(w, r, user, id)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	var upd domain.TodoUpdate
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "无效的请求数据")
		return
	}
	todo, err := s.app.UpdateTodo(user, id, upd)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrEmptyUpdate), errors.Is(err, app.ErrInvalidPriority):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrUpdateForbidden):
			s.audit(r, "todos.update", "fail", "user_id", user.ID, "todo_id", id, "reason", "forbidden")
			writeError(w, http.StatusNotFound, err.Error())
		default:
			s.audit(r, "todos.update", "fail", "user_id", user.ID, "todo_id", id, "reason", err.Error())
			writeError(w, http.StatusInternalServerError, "更新待办事项失败")
		}
		return
	}
	s.audit(r, "todos.update", "success", "user_id", user.ID, "todo_id", id)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"todo":    todo,
	})
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	if err := s.app.DeleteTodo(user, id); err != nil {
		if errors.Is(err, app.ErrDeleteForbidden) {
			s.audit(r, "todos.delete", "fail", "user_id", user.ID, "todo_id", id, "reason", "forbidden")
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.audit(r, "todos.delete", "fail", "user_id", user.ID, "todo_id", id, "reason", err.Error())
		writeError(w, http.StatusInternalServerError, "删除待办事项失败")
		return
	}
	s.audit(r, "todos.delete", "success", "user_id", user.ID, "todo_id", id)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "删除成功",
	})
}
