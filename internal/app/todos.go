package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"aitodo/internal/store"
	"aitodo/internal/util"
	"aitodo/pkg/domain"
)

const defaultPageSize = 20

// CreateTodoInput carries the fields accepted when creating a todo.
type CreateTodoInput struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	DueDate         string          `json:"due_date"`
	DueTime         string          `json:"due_time"`
	Priority        domain.Priority `json:"priority"`
	Tags            []string        `json:"tags"`
	InvolvedUsers   []string        `json:"involved_users"`
	ReminderEnabled bool            `json:"reminder_enabled"`
	ReminderMethod  string          `json:"reminder_method"`
}

// ListTodos returns the todos the user created or was granted, ordered by
// priority weight then due date/time.
func (a *App) ListTodos(user domain.User, dueDate string, page, limit int) ([]domain.Todo, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	todos, err := a.store.ListTodosForUser(user.ID, store.ListFilter{
		DueDate: strings.TrimSpace(dueDate),
		Offset:  (page - 1) * limit,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// CreateTodo stores a new todo owned by the user. Each involved user gets a
// best-effort read grant; grant failures are logged and swallowed.
func (a *App) CreateTodo(user domain.User, in CreateTodoInput) (domain.Todo, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Todo{}, ErrTitleRequired
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !priority.Valid() {
		return domain.Todo{}, ErrInvalidPriority
	}
	now := a.now().UTC()
	todo := domain.Todo{
		ID:              util.NewID(),
		CreatorID:       user.ID,
		CreatorPhone:    user.Phone,
		Title:           title,
		Description:     strings.TrimSpace(in.Description),
		DueDate:         strings.TrimSpace(in.DueDate),
		DueTime:         strings.TrimSpace(in.DueTime),
		Priority:        priority,
		PriorityOrder:   priority.Order(),
		Tags:            emptyIfNil(in.Tags),
		InvolvedUsers:   emptyIfNil(in.InvolvedUsers),
		ReminderEnabled: in.ReminderEnabled,
		ReminderMethod:  in.ReminderMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := a.store.SaveTodo(todo); err != nil {
		return domain.Todo{}, fmt.Errorf("save todo: %w", err)
	}
	a.grantToInvolved(todo.ID, user.ID, todo.InvolvedUsers)
	todo.UserRelation = "owner"
	return todo, nil
}

// UpdateTodo applies a partial update when the user is the creator or holds
// a write grant. Authorization is re-derived from storage on every call.
func (a *App) UpdateTodo(user domain.User, todoID string, upd domain.TodoUpdate) (domain.Todo, error) {
	if upd.Empty() {
		return domain.Todo{}, ErrEmptyUpdate
	}
	if upd.Priority != nil && !upd.Priority.Valid() {
		return domain.Todo{}, ErrInvalidPriority
	}
	todo, relation, permission, err := a.relationTo(user, todoID)
	if err != nil {
		return domain.Todo{}, err
	}
	switch {
	case relation == "owner":
	case relation == "shared" && permission == domain.PermissionWrite:
	default:
		return domain.Todo{}, ErrUpdateForbidden
	}
	updated, err := a.store.UpdateTodo(todo.ID, upd)
	if errors.Is(err, store.ErrTodoNotFound) {
		return domain.Todo{}, ErrUpdateForbidden
	}
	if err != nil {
		return domain.Todo{}, fmt.Errorf("update todo: %w", err)
	}
	if upd.InvolvedUsers != nil {
		a.grantToInvolved(todo.ID, todo.CreatorID, *upd.InvolvedUsers)
	}
	updated.UserRelation = relation
	updated.SharedPermission = permission
	return updated, nil
}

// DeleteTodo removes a todo and, through the store, its grants. Creator only.
func (a *App) DeleteTodo(user domain.User, todoID string) error {
	todo, found, err := a.store.GetTodo(todoID)
	if err != nil {
		return fmt.Errorf("fetch todo: %w", err)
	}
	if !found || todo.CreatorID != user.ID {
		return ErrDeleteForbidden
	}
	if err := a.store.DeleteTodo(todoID); err != nil {
		if errors.Is(err, store.ErrTodoNotFound) {
			return ErrDeleteForbidden
		}
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

// relationTo loads the todo and derives the user's relation to it:
// "owner", "shared" (with the grant's permission), or not related.
func (a *App) relationTo(user domain.User, todoID string) (domain.Todo, string, domain.Permission, error) {
	todo, found, err := a.store.GetTodo(todoID)
	if err != nil {
		return domain.Todo{}, "", "", fmt.Errorf("fetch todo: %w", err)
	}
	if !found {
		return domain.Todo{}, "", "", ErrUpdateForbidden
	}
	if todo.CreatorID == user.ID {
		return todo, "owner", "", nil
	}
	share, ok, err := a.store.GetShare(todoID, user.ID)
	if err != nil {
		return domain.Todo{}, "", "", fmt.Errorf("fetch share: %w", err)
	}
	if !ok {
		return domain.Todo{}, "", "", ErrUpdateForbidden
	}
	return todo, "shared", share.Permission, nil
}

// grantToInvolved creates read grants for involved user ids that resolve to
// accounts. Best-effort: failures must never fail the todo write.
func (a *App) grantToInvolved(todoID, creatorID string, involved []string) {
	for _, userID := range involved {
		userID = strings.TrimSpace(userID)
		if userID == "" || userID == creatorID {
			continue
		}
		target, found, err := a.store.GetUserByID(userID)
		if err != nil {
			slog.Warn("involved user lookup failed", "todo_id", todoID, "user_id", userID, "err", err)
			continue
		}
		if !found {
			continue
		}
		if err := a.store.UpsertShare(todoID, target.ID, domain.PermissionRead); err != nil {
			slog.Warn("involved user grant failed", "todo_id", todoID, "user_id", target.ID, "err", err)
		}
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
