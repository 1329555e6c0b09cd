package services

import (
	"errors"
	"fmt"
	"time"

	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type UserService interface {
	GetUserProfile(db *gorm.DB, userID uuid.UUID) (*models.User, error)
	TouchLastLogin(db *gorm.DB, userID uuid.UUID, at time.Time) error
}

type UserServiceImpl struct{}

func NewUserService() *UserServiceImpl {
	return &UserServiceImpl{}
}

func (s *UserServiceImpl) GetUserProfile(db *gorm.DB, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// TouchLastLogin records login activity. It runs as a best-effort
// background job after a successful login and its outcome never feeds
// back into the login response.
func (s *UserServiceImpl) TouchLastLogin(db *gorm.DB, userID uuid.UUID, at time.Time) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("last_login_at", at)
	if result.Error != nil {
		return fmt.Errorf("touch last login: %w", result.Error)
	}
	return nil
}
