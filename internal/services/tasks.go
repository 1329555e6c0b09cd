package services

import (
	"errors"
	"fmt"
	"time"

	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskService interface {
	ListTasks(db *gorm.DB, userID uuid.UUID, filters models.TaskFilters) ([]models.Task, error)
	GetTask(db *gorm.DB, userID, taskID uuid.UUID) (models.Task, error)
	CreateTask(db *gorm.DB, userID uuid.UUID, input models.NewTask) (models.Task, error)
	UpdateTask(db *gorm.DB, userID, taskID uuid.UUID, patch models.TaskPatch) (models.Task, error)
	DeleteTask(db *gorm.DB, userID, taskID uuid.UUID) error
	ToggleComplete(db *gorm.DB, userID, taskID uuid.UUID) (models.Task, error)
	BulkUpdateTasks(db *gorm.DB, userID uuid.UUID, taskIDs []uuid.UUID, patch models.TaskPatch) (int64, error)
}

type TaskServiceImpl struct{}

func NewTaskService() *TaskServiceImpl {
	return &TaskServiceImpl{}
}

const priorityOrderExpr = "CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END DESC, due_date ASC"

func (s *TaskServiceImpl) ListTasks(db *gorm.DB, userID uuid.UUID, filters models.TaskFilters) ([]models.Task, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	query := db.Model(&models.Task{}).Where("user_id = ?", userID)

	switch filters.Status {
	case models.StatusCompleted:
		query = query.Where("completed = ?", true)
	case models.StatusPending:
		query = query.Where("completed = ?", false)
	}

	// Unknown priority values are dropped, not rejected.
	if models.ValidPriority(filters.Priority) {
		query = query.Where("priority = ?", filters.Priority)
	}

	if filters.Date != nil {
		start := startOfDay(*filters.Date)
		query = query.Where("due_date >= ? AND due_date < ?", start, start.AddDate(0, 0, 1))
	} else if filters.StartDate != nil && filters.EndDate != nil {
		start := startOfDay(*filters.StartDate)
		end := startOfDay(*filters.EndDate).AddDate(0, 0, 1)
		query = query.Where("due_date >= ? AND due_date < ?", start, end)
	}

	switch filters.SortKey() {
	case models.SortPriority:
		query = query.Order(priorityOrderExpr)
	case models.SortCreated:
		query = query.Order("created_at DESC")
	default:
		query = query.Order("due_date ASC")
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask loads a task and enforces ownership, distinguishing a task
// that does not exist from one owned by somebody else.
func (s *TaskServiceImpl) GetTask(db *gorm.DB, userID, taskID uuid.UUID) (models.Task, error) {
	return getOwnedTask(db, userID, taskID)
}

func getOwnedTask(db *gorm.DB, userID, taskID uuid.UUID) (models.Task, error) {
	var task models.Task
	if err := db.Where("id = ?", taskID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, models.ErrNotFound
		}
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	if task.UserID != userID {
		return models.Task{}, models.ErrForbidden
	}
	return task, nil
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, userID uuid.UUID, input models.NewTask) (models.Task, error) {
	if err := input.Validate(); err != nil {
		return models.Task{}, err
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	task := models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    priority,
		Tags:        models.NormalizeTags(input.Tags),
	}
	if err := db.Create(&task).Error; err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, userID, taskID uuid.UUID, patch models.TaskPatch) (models.Task, error) {
	if err := patch.Validate(); err != nil {
		return models.Task{}, err
	}
	if patch.IsEmpty() {
		return models.Task{}, models.NewValidationError("patch", "no fields supplied")
	}

	var updated models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		task, err := getOwnedTask(tx, userID, taskID)
		if err != nil {
			return err
		}
		updated, err = applyPatchTx(tx, task, patch)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	return updated, nil
}

// applyPatchTx saves the patched task inside tx. A completion flip also
// sets/clears completed_at and adjusts the owner's tasks_completed
// counter in the same transaction, so a reader can never observe one
// effect without the other.
func applyPatchTx(tx *gorm.DB, task models.Task, patch models.TaskPatch) (models.Task, error) {
	wasCompleted := task.Completed
	patch.Apply(&task)

	if task.Completed != wasCompleted {
		if task.Completed {
			now := time.Now()
			task.CompletedAt = &now
		} else {
			task.CompletedAt = nil
		}
		if err := adjustCompletedCount(tx, task.UserID, completionDelta(task.Completed)); err != nil {
			return models.Task{}, err
		}
	}

	if err := tx.Save(&task).Error; err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

func completionDelta(nowCompleted bool) int {
	if nowCompleted {
		return 1
	}
	return -1
}

// adjustCompletedCount bumps the aggregate in SQL rather than
// read-modify-write, so concurrent toggles of different tasks for the
// same user cannot lose an update.
func adjustCompletedCount(tx *gorm.DB, userID uuid.UUID, delta int) error {
	result := tx.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("tasks_completed", gorm.Expr("tasks_completed + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("adjust completed count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("adjust completed count: owner %s missing", userID)
	}
	return nil
}

func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, userID, taskID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		task, err := getOwnedTask(tx, userID, taskID)
		if err != nil {
			return err
		}
		// A completed task leaving the table takes its contribution to
		// the aggregate with it.
		if task.Completed {
			if err := adjustCompletedCount(tx, userID, -1); err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.Task{}, "id = ?", taskID).Error; err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
}

func (s *TaskServiceImpl) ToggleComplete(db *gorm.DB, userID, taskID uuid.UUID) (models.Task, error) {
	var updated models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		task, err := getOwnedTask(tx, userID, taskID)
		if err != nil {
			return err
		}
		flipped := !task.Completed
		updated, err = applyPatchTx(tx, task, models.TaskPatch{Completed: &flipped})
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	return updated, nil
}

// BulkUpdateTasks applies one patch to a set of tasks as a unit: if any
// id is missing or owned by another user, nothing is modified.
func (s *TaskServiceImpl) BulkUpdateTasks(db *gorm.DB, userID uuid.UUID, taskIDs []uuid.UUID, patch models.TaskPatch) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, models.NewValidationError("task_ids", "must not be empty")
	}
	if err := patch.Validate(); err != nil {
		return 0, err
	}
	if patch.IsEmpty() {
		return 0, models.NewValidationError("patch", "no fields supplied")
	}

	var count int64
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, id := range taskIDs {
			task, err := getOwnedTask(tx, userID, id)
			if err != nil {
				return err
			}
			if _, err := applyPatchTx(tx, task, patch); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
