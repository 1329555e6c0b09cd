package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"taskflow/backend/internal/models"
	"taskflow/backend/internal/services"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// RegisterJobHandlers attaches the application's job implementations.
func RegisterJobHandlers(w *Worker, db *gorm.DB, userService services.UserService) {
	w.RegisterHandler(JobTypeLastActiveTouch, lastActiveTouchHandler(db, userService))
	w.RegisterHandler(JobTypeTaskReminder, taskReminderHandler(db))
}

func lastActiveTouchHandler(db *gorm.DB, userService services.UserService) JobHandler {
	return func(ctx context.Context, job *Job) error {
		rawID, _ := job.Payload["user_id"].(string)
		userID, err := uuid.FromString(rawID)
		if err != nil {
			// Malformed payloads are dropped, not retried.
			log.Printf("last_active_touch job %s has bad user_id %q", job.ID, rawID)
			return nil
		}

		at := time.Now()
		if raw, ok := job.Payload["at"].(string); ok {
			if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
				at = parsed
			}
		}

		return userService.TouchLastLogin(db.WithContext(ctx), userID, at)
	}
}

// taskReminderHandler finds pending tasks due within the next day. The
// notification transport is whatever is configured downstream; here it
// is logged.
func taskReminderHandler(db *gorm.DB) JobHandler {
	return func(ctx context.Context, job *Job) error {
		now := time.Now()
		var due []models.Task
		err := db.WithContext(ctx).
			Where("completed = ? AND due_date >= ? AND due_date < ?", false, now, now.AddDate(0, 0, 1)).
			Order("due_date ASC").
			Find(&due).Error
		if err != nil {
			return fmt.Errorf("scan due tasks: %w", err)
		}

		for _, task := range due {
			log.Printf("reminder: task %q for user %s due %s", task.Title, task.UserID, task.DueDate.Format(time.RFC3339))
		}
		return nil
	}
}
