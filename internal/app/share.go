package app

import (
	"fmt"

	"aitodo/pkg/domain"
)

// ShareTodo grants the target user access to a todo. Creator only; the grant
// is upserted so re-sharing adjusts the permission.
func (a *App) ShareTodo(user domain.User, todoID, targetUserID string, permission domain.Permission) (domain.User, error) {
	if permission == "" {
		permission = domain.PermissionRead
	}
	if !permission.Valid() {
		return domain.User{}, ErrShareForbidden
	}
	todo, found, err := a.store.GetTodo(todoID)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch todo: %w", err)
	}
	if !found || todo.CreatorID != user.ID {
		return domain.User{}, ErrShareForbidden
	}
	target, found, err := a.store.GetUserByID(targetUserID)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch target user: %w", err)
	}
	if !found {
		return domain.User{}, ErrTargetNotFound
	}
	if err := a.store.UpsertShare(todoID, target.ID, permission); err != nil {
		return domain.User{}, fmt.Errorf("upsert share: %w", err)
	}
	return target, nil
}

// UnshareTodo revokes the target user's grant. Creator only.
func (a *App) UnshareTodo(user domain.User, todoID, targetUserID string) error {
	todo, found, err := a.store.GetTodo(todoID)
	if err != nil {
		return fmt.Errorf("fetch todo: %w", err)
	}
	if !found || todo.CreatorID != user.ID {
		return ErrUnshareForbidden
	}
	if err := a.store.DeleteShare(todoID, targetUserID); err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	return nil
}
