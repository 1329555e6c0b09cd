package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// Settings holds per-user display preferences. A row is created lazily
// with defaults the first time a user's settings are read.
type Settings struct {
	ID                   uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID               uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	Theme                string    `json:"theme" gorm:"not null;default:'light'"`
	NotificationsEnabled bool      `json:"notifications_enabled" gorm:"not null;default:true"`
	DefaultPriority      Priority  `json:"default_priority" gorm:"not null;default:'medium'"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// SettingsPatch mirrors TaskPatch: nil means the field was not sent.
type SettingsPatch struct {
	Theme                *string   `json:"theme,omitempty"`
	NotificationsEnabled *bool     `json:"notifications_enabled,omitempty"`
	DefaultPriority      *Priority `json:"default_priority,omitempty"`
}

func (p SettingsPatch) Validate() error {
	if p.Theme != nil && *p.Theme != "light" && *p.Theme != "dark" {
		return NewValidationError("theme", "must be 'light' or 'dark'")
	}
	if p.DefaultPriority != nil && !ValidPriority(*p.DefaultPriority) {
		return NewValidationError("default_priority", "must be low, medium or high")
	}
	return nil
}

func (p SettingsPatch) Apply(s *Settings) {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.NotificationsEnabled != nil {
		s.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.DefaultPriority != nil {
		s.DefaultPriority = *p.DefaultPriority
	}
}

func DefaultSettings(userID uuid.UUID) Settings {
	return Settings{
		ID:                   uuid.Must(uuid.NewV4()),
		UserID:               userID,
		Theme:                "light",
		NotificationsEnabled: true,
		DefaultPriority:      PriorityMedium,
	}
}
