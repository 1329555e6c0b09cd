package services_test

import (
	"testing"

	"taskflow/backend/internal/models"
	"taskflow/backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSettingsCreatesDefaultsOnFirstAccess(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "settings-lazy")
	svc := services.NewSettingsService()

	settings, err := svc.GetSettings(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "light", settings.Theme)
	assert.True(t, settings.NotificationsEnabled)
	assert.Equal(t, models.PriorityMedium, settings.DefaultPriority)

	var count int64
	require.NoError(t, db.Model(&models.Settings{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "first access creates exactly one row")

	// Second read returns the stored row, not another default.
	again, err := svc.GetSettings(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, settings.ID, again.ID)
}

func TestUpdateSettingsAppliesPatchAndValidates(t *testing.T) {
	db := openTestDB(t)
	user := createTestUser(t, db, "settings-update")
	svc := services.NewSettingsService()

	theme := "dark"
	high := models.PriorityHigh
	updated, err := svc.UpdateSettings(db, user.ID, models.SettingsPatch{
		Theme:           &theme,
		DefaultPriority: &high,
	})
	require.NoError(t, err)
	assert.Equal(t, "dark", updated.Theme)
	assert.Equal(t, models.PriorityHigh, updated.DefaultPriority)
	assert.True(t, updated.NotificationsEnabled, "unsupplied fields keep their value")

	bad := "sepia"
	_, err = svc.UpdateSettings(db, user.ID, models.SettingsPatch{Theme: &bad})
	assert.True(t, models.IsValidation(err))
}
