package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type User struct {
	ID       uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Username string    `json:"username" gorm:"unique;not null"`
	Email    string    `json:"email" gorm:"unique;not null"`
	Password string    `json:"-" gorm:"not null"`

	// TasksCompleted is maintained incrementally on every completion
	// flip; it is never recomputed by scanning the tasks table.
	TasksCompleted int `json:"tasks_completed" gorm:"not null;default:0"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tasks    []Task    `json:"tasks,omitempty" gorm:"foreignKey:UserID"`
	Settings *Settings `json:"settings,omitempty" gorm:"foreignKey:UserID"`
}

type Token struct {
	ID           uuid.UUID `gorm:"primaryKey;type:uuid"`
	UserId       uuid.UUID `gorm:"type:uuid;not null;index"`
	RefreshToken uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ExpiresAt    time.Time `gorm:"not null"`
}
