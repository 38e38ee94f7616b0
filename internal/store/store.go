package store

import (
	"errors"
	"time"

	"aitodo/pkg/domain"
)

// ErrTodoNotFound is returned when a todo id does not exist.
var ErrTodoNotFound = errors.New("todo not found")

// ListFilter narrows and pages a todo listing.
type ListFilter struct {
	DueDate string
	Offset  int
	Limit   int
}

// Store defines persistence operations for users, todos, and share grants.
type Store interface {
	// users
	SaveUser(domain.User) error
	GetUserByPhone(phone string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	SearchUsersByPhone(query, excludeUserID string, limit int) ([]domain.User, error)

	// todos
	SaveTodo(domain.Todo) error
	GetTodo(id string) (domain.Todo, bool, error)
	// ListTodosForUser returns rows where the user is creator or grantee,
	// ordered by priority weight descending then due date/time ascending.
	ListTodosForUser(userID string, filter ListFilter) ([]domain.Todo, error)
	UpdateTodo(id string, upd domain.TodoUpdate) (domain.Todo, error)
	DeleteTodo(id string) error

	// share grants
	UpsertShare(todoID, userID string, permission domain.Permission) error
	DeleteShare(todoID, userID string) error
	GetShare(todoID, userID string) (domain.Share, bool, error)
}

// Session is the value stored behind a bearer token.
type Session struct {
	UserID    string    `json:"user_id"`
	Phone     string    `json:"phone"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore persists session tokens with a TTL.
type SessionStore interface {
	NewSession(user domain.User) (string, error)
	// GetSession returns false for missing AND expired sessions; an expired
	// entry is deleted as a side effect.
	GetSession(token string) (Session, bool, error)
	DeleteSession(token string) error
}

// VerificationStore keeps short-lived SMS verification codes.
type VerificationStore interface {
	Put(phone, code string) error
	// Consume checks the code for the phone and deletes it when it matches.
	Consume(phone, code string) (bool, error)
}
