package domain

import "time"

type Priority string

const (
	PriorityNormal Priority = "一般"
	PriorityUrgent Priority = "紧急"
	PriorityCrit   Priority = "非常紧急"
)

// Order maps a priority to its sort weight (higher sorts first).
func (p Priority) Order() int {
	switch p {
	case PriorityCrit:
		return 3
	case PriorityUrgent:
		return 2
	default:
		return 1
	}
}

// Valid reports whether p is one of the three known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityUrgent, PriorityCrit:
		return true
	default:
		return false
	}
}

type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

func (p Permission) Valid() bool {
	return p == PermissionRead || p == PermissionWrite
}

type User struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Todo struct {
	ID              string    `json:"id"`
	CreatorID       string    `json:"creator_id"`
	CreatorPhone    string    `json:"creator_phone,omitempty"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	DueDate         string    `json:"due_date,omitempty"`
	DueTime         string    `json:"due_time,omitempty"`
	Priority        Priority  `json:"priority"`
	PriorityOrder   int       `json:"priority_order"`
	Tags            []string  `json:"tags"`
	InvolvedUsers   []string  `json:"involved_users"`
	ReminderEnabled bool      `json:"reminder_enabled"`
	ReminderMethod  string    `json:"reminder_method,omitempty"`
	Completed       bool      `json:"completed"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Set for the acting user on single-todo responses.
	UserRelation     string     `json:"user_relation,omitempty"`
	SharedPermission Permission `json:"shared_permission,omitempty"`
}

type Share struct {
	TodoID     string     `json:"todo_id"`
	UserID     string     `json:"user_id"`
	Permission Permission `json:"permission"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TodoUpdate is a partial update: nil fields are left unchanged.
type TodoUpdate struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	DueDate         *string   `json:"due_date"`
	DueTime         *string   `json:"due_time"`
	Priority        *Priority `json:"priority"`
	Tags            *[]string `json:"tags"`
	InvolvedUsers   *[]string `json:"involved_users"`
	ReminderEnabled *bool     `json:"reminder_enabled"`
	ReminderMethod  *string   `json:"reminder_method"`
	Completed       *bool     `json:"completed"`
}

// Empty reports whether the update carries no fields at all.
func (u TodoUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.DueDate == nil &&
		u.DueTime == nil && u.Priority == nil && u.Tags == nil &&
		u.InvolvedUsers == nil && u.ReminderEnabled == nil &&
		u.ReminderMethod == nil && u.Completed == nil
}
