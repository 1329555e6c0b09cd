package services

import (
	"errors"
	"fmt"

	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type SettingsService interface {
	GetSettings(db *gorm.DB, userID uuid.UUID) (models.Settings, error)
	UpdateSettings(db *gorm.DB, userID uuid.UUID, patch models.SettingsPatch) (models.Settings, error)
}

type SettingsServiceImpl struct{}

func NewSettingsService() *SettingsServiceImpl {
	return &SettingsServiceImpl{}
}

// GetSettings returns the user's settings row, creating it with
// defaults on first access.
func (s *SettingsServiceImpl) GetSettings(db *gorm.DB, userID uuid.UUID) (models.Settings, error) {
	var settings models.Settings
	err := db.Where("user_id = ?", userID).First(&settings).Error
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	settings = models.DefaultSettings(userID)
	if err := db.Create(&settings).Error; err != nil {
		return models.Settings{}, fmt.Errorf("create default settings: %w", err)
	}
	return settings, nil
}

func (s *SettingsServiceImpl) UpdateSettings(db *gorm.DB, userID uuid.UUID, patch models.SettingsPatch) (models.Settings, error) {
	if err := patch.Validate(); err != nil {
		return models.Settings{}, err
	}

	settings, err := s.GetSettings(db, userID)
	if err != nil {
		return models.Settings{}, err
	}

	patch.Apply(&settings)
	if err := db.Save(&settings).Error; err != nil {
		return models.Settings{}, fmt.Errorf("update settings: %w", err)
	}
	return settings, nil
}
