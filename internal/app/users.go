package app

import (
	"fmt"
	"strings"

	"aitodo/pkg/domain"
)

const searchLimit = 10

// SearchUsers matches users by phone substring, excluding the caller.
func (a *App) SearchUsers(user domain.User, query string) ([]domain.User, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 3 {
		return nil, ErrQueryTooShort
	}
	users, err := a.store.SearchUsersByPhone(query, user.ID, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}
