package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID        string    `gorm:"primaryKey"`
	Phone     string    `gorm:"uniqueIndex;not null"`
	Name      string
	CreatedAt time.Time `gorm:"not null"`
}

type TodoModel struct {
	ID              string `gorm:"primaryKey"`
	CreatorID       string `gorm:"not null;index"`
	Title           string `gorm:"not null"`
	Description     string
	DueDate         string `gorm:"index"`
	DueTime         string
	Priority        string         `gorm:"not null"`
	Tags            datatypes.JSON `gorm:"type:jsonb"`
	InvolvedUsers   datatypes.JSON `gorm:"type:jsonb"`
	ReminderEnabled bool
	ReminderMethod  string
	Completed       bool
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`

	Shares []ShareModel `gorm:"foreignKey:TodoID;constraint:OnDelete:CASCADE"`
}

type ShareModel struct {
	TodoID     string `gorm:"primaryKey"`
	UserID     string `gorm:"primaryKey;index"`
	Permission string `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
