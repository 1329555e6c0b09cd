package services

import (
	"fmt"
	"time"

	"taskflow/backend/internal/cache"
	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const (
	taskCacheTTL = 30 * time.Minute
	listCacheTTL = 15 * time.Minute
)

// CachedTaskService decorates a TaskService with read-through caching
// and invalidates every affected key on mutation, so a stale listing is
// never served after a write. A cache outage silently degrades to the
// underlying service.
type CachedTaskService struct {
	taskService TaskService
	cache       cache.Cache
}

func NewCachedTaskService(taskService TaskService, cacheInstance cache.Cache) *CachedTaskService {
	return &CachedTaskService{taskService: taskService, cache: cacheInstance}
}

func taskKey(taskID uuid.UUID) string {
	return fmt.Sprintf("task:%s", taskID)
}

func listKey(userID uuid.UUID, filters models.TaskFilters) string {
	date, start, end := "", "", ""
	if filters.Date != nil {
		date = filters.Date.Format("2006-01-02")
	}
	if filters.StartDate != nil {
		start = filters.StartDate.Format("2006-01-02")
	}
	if filters.EndDate != nil {
		end = filters.EndDate.Format("2006-01-02")
	}
	return fmt.Sprintf("user_tasks:%s:%s:%s:%s:%s:%s:%s",
		userID, filters.Status, filters.Priority, date, start, end, filters.SortKey())
}

func (s *CachedTaskService) invalidateUser(userID uuid.UUID, taskID uuid.UUID) {
	s.cache.Delete(taskKey(taskID))
	s.cache.DeletePattern(fmt.Sprintf("user_tasks:%s:*", userID))
}

func (s *CachedTaskService) ListTasks(db *gorm.DB, userID uuid.UUID, filters models.TaskFilters) ([]models.Task, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	key := listKey(userID, filters)
	var cached []models.Task
	if err := s.cache.Get(key, &cached); err == nil {
		return cached, nil
	}

	tasks, err := s.taskService.ListTasks(db, userID, filters)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, tasks, listCacheTTL)
	return tasks, nil
}

func (s *CachedTaskService) GetTask(db *gorm.DB, userID, taskID uuid.UUID) (models.Task, error) {
	var cached models.Task
	if err := s.cache.Get(taskKey(taskID), &cached); err == nil {
		// Ownership still applies to cache hits.
		if cached.UserID != userID {
			return models.Task{}, models.ErrForbidden
		}
		return cached, nil
	}

	task, err := s.taskService.GetTask(db, userID, taskID)
	if err != nil {
		return task, err
	}

	s.cache.Set(taskKey(taskID), task, taskCacheTTL)
	return task, nil
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, userID uuid.UUID, input models.NewTask) (models.Task, error) {
	task, err := s.taskService.CreateTask(db, userID, input)
	if err != nil {
		return task, err
	}

	s.cache.Set(taskKey(task.ID), task, taskCacheTTL)
	s.cache.DeletePattern(fmt.Sprintf("user_tasks:%s:*", userID))
	return task, nil
}

func (s *CachedTaskService) UpdateTask(db *gorm.DB, userID, taskID uuid.UUID, patch models.TaskPatch) (models.Task, error) {
	task, err := s.taskService.UpdateTask(db, userID, taskID, patch)
	if err != nil {
		return task, err
	}

	s.invalidateUser(userID, taskID)
	return task, nil
}

func (s *CachedTaskService) DeleteTask(db *gorm.DB, userID, taskID uuid.UUID) error {
	if err := s.taskService.DeleteTask(db, userID, taskID); err != nil {
		return err
	}

	s.invalidateUser(userID, taskID)
	return nil
}

func (s *CachedTaskService) ToggleComplete(db *gorm.DB, userID, taskID uuid.UUID) (models.Task, error) {
	task, err := s.taskService.ToggleComplete(db, userID, taskID)
	if err != nil {
		return task, err
	}

	s.invalidateUser(userID, taskID)
	return task, nil
}

func (s *CachedTaskService) BulkUpdateTasks(db *gorm.DB, userID uuid.UUID, taskIDs []uuid.UUID, patch models.TaskPatch) (int64, error) {
	count, err := s.taskService.BulkUpdateTasks(db, userID, taskIDs, patch)
	if err != nil {
		return count, err
	}

	for _, id := range taskIDs {
		s.cache.Delete(taskKey(id))
	}
	s.cache.DeletePattern(fmt.Sprintf("user_tasks:%s:*", userID))
	return count, nil
}

func (s *CachedTaskService) GetCacheStats() map[string]interface{} {
	return s.cache.Stats()
}
