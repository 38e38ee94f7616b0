package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aitodo/pkg/domain"
)

// priorityOrderExpr ranks priorities for listing: 非常紧急 > 紧急 > 一般.
const priorityOrderExpr = "CASE priority WHEN '非常紧急' THEN 3 WHEN '紧急' THEN 2 ELSE 1 END"

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &TodoModel{}, &ShareModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"phone", "name"}),
	}).Create(&model).Error
}

// GetUserByPhone looks up a user by phone number.
func (s *GormStore) GetUserByPhone(phone string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("phone = ?", phone).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// SearchUsersByPhone matches a phone substring, excluding the caller.
func (s *GormStore) SearchUsersByPhone(query, excludeUserID string, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 10
	}
	var models []UserModel
	if err := s.db.
		Where("phone LIKE ? AND id <> ?", "%"+query+"%", excludeUserID).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// SaveTodo stores or updates a todo.
func (s *GormStore) SaveTodo(t domain.Todo) error {
	model, err := todoToModel(t)
	if err != nil {
		return err
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "due_date", "due_time", "priority",
			"tags", "involved_users", "reminder_enabled", "reminder_method",
			"completed", "updated_at",
		}),
	}).Create(&model).Error
}

// GetTodo retrieves a todo by ID.
func (s *GormStore) GetTodo(id string) (domain.Todo, bool, error) {
	var model TodoModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Todo{}, false, nil
		}
		return domain.Todo{}, false, err
	}
	todo, err := todoFromModel(model)
	if err != nil {
		return domain.Todo{}, false, err
	}
	return todo, true, nil
}

// ListTodosForUser returns todos the user created or was granted access to.
func (s *GormStore) ListTodosForUser(userID string, filter ListFilter) ([]domain.Todo, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	q := s.db.
		Where("creator_id = ? OR id IN (SELECT todo_id FROM share_models WHERE user_id = ?)", userID, userID)
	if filter.DueDate != "" {
		q = q.Where("due_date = ?", filter.DueDate)
	}
	var models []TodoModel
	if err := q.
		Order(priorityOrderExpr + " DESC, due_date ASC, due_time ASC").
		Offset(filter.Offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	todos := make([]domain.Todo, 0, len(models))
	creatorIDs := make([]string, 0, len(models))
	for _, m := range models {
		todo, err := todoFromModel(m)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
		creatorIDs = append(creatorIDs, m.CreatorID)
	}
	phones, err := s.phonesByID(creatorIDs)
	if err != nil {
		return nil, err
	}
	for i := range todos {
		todos[i].CreatorPhone = phones[todos[i].CreatorID]
	}
	return todos, nil
}

func (s *GormStore) phonesByID(ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	var models []UserModel
	if err := s.db.Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(models))
	for _, m := range models {
		out[m.ID] = m.Phone
	}
	return out, nil
}

// UpdateTodo applies a partial update and returns the updated todo.
func (s *GormStore) UpdateTodo(id string, upd domain.TodoUpdate) (domain.Todo, error) {
	values, err := updateValues(upd)
	if err != nil {
		return domain.Todo{}, err
	}
	values["updated_at"] = time.Now().UTC()
	res := s.db.Model(&TodoModel{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return domain.Todo{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Todo{}, ErrTodoNotFound
	}
	todo, ok, err := s.GetTodo(id)
	if err != nil {
		return domain.Todo{}, err
	}
	if !ok {
		return domain.Todo{}, ErrTodoNotFound
	}
	return todo, nil
}

// DeleteTodo removes a todo; share grants go with it via the FK cascade.
func (s *GormStore) DeleteTodo(id string) error {
	return s.db.Delete(&TodoModel{}, "id = ?", id).Error
}

// UpsertShare creates a grant or updates the permission of an existing one.
func (s *GormStore) UpsertShare(todoID, userID string, permission domain.Permission) error {
	now := time.Now().UTC()
	model := ShareModel{
		TodoID:     todoID,
		UserID:     userID,
		Permission: string(permission),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "todo_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"permission", "updated_at"}),
	}).Create(&model).Error
}

// DeleteShare removes a grant.
func (s *GormStore) DeleteShare(todoID, userID string) error {
	return s.db.Delete(&ShareModel{}, "todo_id = ? AND user_id = ?", todoID, userID).Error
}

// GetShare fetches the grant for a (todo, user) pair.
func (s *GormStore) GetShare(todoID, userID string) (domain.Share, bool, error) {
	var model ShareModel
	if err := s.db.First(&model, "todo_id = ? AND user_id = ?", todoID, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Share{}, false, nil
		}
		return domain.Share{}, false, err
	}
	return domain.Share{
		TodoID:     model.TodoID,
		UserID:     model.UserID,
		Permission: domain.Permission(model.Permission),
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}, true, nil
}

func updateValues(upd domain.TodoUpdate) (map[string]any, error) {
	values := map[string]any{}
	if upd.Title != nil {
		values["title"] = *upd.Title
	}
	if upd.Description != nil {
		values["description"] = *upd.Description
	}
	if upd.DueDate != nil {
		values["due_date"] = *upd.DueDate
	}
	if upd.DueTime != nil {
		values["due_time"] = *upd.DueTime
	}
	if upd.Priority != nil {
		values["priority"] = string(*upd.Priority)
	}
	if upd.Tags != nil {
		raw, err := json.Marshal(*upd.Tags)
		if err != nil {
			return nil, fmt.Errorf("marshal tags: %w", err)
		}
		values["tags"] = datatypes.JSON(raw)
	}
	if upd.InvolvedUsers != nil {
		raw, err := json.Marshal(*upd.InvolvedUsers)
		if err != nil {
			return nil, fmt.Errorf("marshal involved users: %w", err)
		}
		values["involved_users"] = datatypes.JSON(raw)
	}
	if upd.ReminderEnabled != nil {
		values["reminder_enabled"] = *upd.ReminderEnabled
	}
	if upd.ReminderMethod != nil {
		values["reminder_method"] = *upd.ReminderMethod
	}
	if upd.Completed != nil {
		values["completed"] = *upd.Completed
	}
	return values, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:        u.ID,
		Phone:     u.Phone,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:        m.ID,
		Phone:     m.Phone,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
}

func todoToModel(t domain.Todo) (TodoModel, error) {
	tags, err := json.Marshal(emptyIfNil(t.Tags))
	if err != nil {
		return TodoModel{}, fmt.Errorf("marshal tags: %w", err)
	}
	involved, err := json.Marshal(emptyIfNil(t.InvolvedUsers))
	if err != nil {
		return TodoModel{}, fmt.Errorf("marshal involved users: %w", err)
	}
	return TodoModel{
		ID:              t.ID,
		CreatorID:       t.CreatorID,
		Title:           t.Title,
		Description:     t.Description,
		DueDate:         t.DueDate,
		DueTime:         t.DueTime,
		Priority:        string(t.Priority),
		Tags:            datatypes.JSON(tags),
		InvolvedUsers:   datatypes.JSON(involved),
		ReminderEnabled: t.ReminderEnabled,
		ReminderMethod:  t.ReminderMethod,
		Completed:       t.Completed,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}, nil
}

func todoFromModel(m TodoModel) (domain.Todo, error) {
	tags := []string{}
	if len(m.Tags) > 0 {
		if err := json.Unmarshal(m.Tags, &tags); err != nil {
			return domain.Todo{}, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	involved := []string{}
	if len(m.InvolvedUsers) > 0 {
		if err := json.Unmarshal(m.InvolvedUsers, &involved); err != nil {
			return domain.Todo{}, fmt.Errorf("unmarshal involved users: %w", err)
		}
	}
	priority := domain.Priority(m.Priority)
	return domain.Todo{
		ID:              m.ID,
		CreatorID:       m.CreatorID,
		Title:           m.Title,
		Description:     m.Description,
		DueDate:         m.DueDate,
		DueTime:         m.DueTime,
		Priority:        priority,
		PriorityOrder:   priority.Order(),
		Tags:            tags,
		InvolvedUsers:   involved,
		ReminderEnabled: m.ReminderEnabled,
		ReminderMethod:  m.ReminderMethod,
		Completed:       m.Completed,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
