package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"aitodo/pkg/domain"
)

// MemoryStore keeps everything in-process. Used by tests.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]domain.User
	phones map[string]string // phone -> user ID
	todos  map[string]domain.Todo
	order  []string
	shares map[string]map[string]domain.Share // todo ID -> user ID -> grant
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]domain.User),
		phones: make(map[string]string),
		todos:  make(map[string]domain.Todo),
		shares: make(map[string]map[string]domain.Share),
	}
}

func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.phones[u.Phone] = u.ID
	return nil
}

func (m *MemoryStore) GetUserByPhone(phone string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.phones[phone]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) SearchUsersByPhone(query, excludeUserID string, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, limit)
	for _, u := range m.users {
		if u.ID == excludeUserID || !strings.Contains(u.Phone, query) {
			continue
		}
		res = append(res, u)
		if len(res) >= limit {
			break
		}
	}
	return res, nil
}

func (m *MemoryStore) SaveTodo(t domain.Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.todos[t.ID]; !exists {
		m.order = append(m.order, t.ID)
	}
	t.PriorityOrder = t.Priority.Order()
	m.todos[t.ID] = t
	return nil
}

func (m *MemoryStore) GetTodo(id string) (domain.Todo, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.todos[id]
	return t, ok, nil
}

func (m *MemoryStore) ListTodosForUser(userID string, filter ListFilter) ([]domain.Todo, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Todo, 0)
	for _, id := range m.order {
		t, ok := m.todos[id]
		if !ok {
			continue
		}
		if t.CreatorID != userID {
			if _, shared := m.shares[t.ID][userID]; !shared {
				continue
			}
		}
		if filter.DueDate != "" && t.DueDate != filter.DueDate {
			continue
		}
		if creator, ok := m.users[t.CreatorID]; ok {
			t.CreatorPhone = creator.Phone
		}
		res = append(res, t)
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Priority.Order() != res[j].Priority.Order() {
			return res[i].Priority.Order() > res[j].Priority.Order()
		}
		if res[i].DueDate != res[j].DueDate {
			return res[i].DueDate < res[j].DueDate
		}
		return res[i].DueTime < res[j].DueTime
	})
	if filter.Offset >= len(res) {
		return []domain.Todo{}, nil
	}
	res = res[filter.Offset:]
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (m *MemoryStore) UpdateTodo(id string, upd domain.TodoUpdate) (domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.todos[id]
	if !ok {
		return domain.Todo{}, ErrTodoNotFound
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.DueDate != nil {
		t.DueDate = *upd.DueDate
	}
	if upd.DueTime != nil {
		t.DueTime = *upd.DueTime
	}
	if upd.Priority != nil {
		t.Priority = *upd.Priority
		t.PriorityOrder = t.Priority.Order()
	}
	if upd.Tags != nil {
		t.Tags = *upd.Tags
	}
	if upd.InvolvedUsers != nil {
		t.InvolvedUsers = *upd.InvolvedUsers
	}
	if upd.ReminderEnabled != nil {
		t.ReminderEnabled = *upd.ReminderEnabled
	}
	if upd.ReminderMethod != nil {
		t.ReminderMethod = *upd.ReminderMethod
	}
	if upd.Completed != nil {
		t.Completed = *upd.Completed
	}
	t.UpdatedAt = time.Now().UTC()
	m.todos[id] = t
	return t, nil
}

func (m *MemoryStore) DeleteTodo(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.todos, id)
	delete(m.shares, id)
	filtered := m.order[:0]
	for _, item := range m.order {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	m.order = filtered
	return nil
}

func (m *MemoryStore) UpsertShare(todoID, userID string, permission domain.Permission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	grants, ok := m.shares[todoID]
	if !ok {
		grants = make(map[string]domain.Share)
		m.shares[todoID] = grants
	}
	grant, exists := grants[userID]
	if !exists {
		grant = domain.Share{TodoID: todoID, UserID: userID, CreatedAt: now}
	}
	grant.Permission = permission
	grant.UpdatedAt = now
	grants[userID] = grant
	return nil
}

func (m *MemoryStore) DeleteShare(todoID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shares[todoID], userID)
	return nil
}

func (m *MemoryStore) GetShare(todoID, userID string) (domain.Share, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	grant, ok := m.shares[todoID][userID]
	return grant, ok, nil
}
