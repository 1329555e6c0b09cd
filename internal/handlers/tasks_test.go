package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskflow/backend/internal/handlers"
	"taskflow/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type MockTaskService struct {
	listErr     error
	mutErr      error
	lastFilters models.TaskFilters
	lastPatch   models.TaskPatch
	lastBulkIDs []uuid.UUID
	tasks       []models.Task
}

func (m *MockTaskService) ListTasks(db *gorm.DB, userID uuid.UUID, filters models.TaskFilters) ([]models.Task, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	m.lastFilters = filters
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.tasks, nil
}

func (m *MockTaskService) GetTask(db *gorm.DB, userID, taskID uuid.UUID) (models.Task, error) {
	if m.mutErr != nil {
		return models.Task{}, m.mutErr
	}
	return models.Task{ID: taskID, UserID: userID, Title: "Test Task"}, nil
}

func (m *MockTaskService) CreateTask(db *gorm.DB, userID uuid.UUID, input models.NewTask) (models.Task, error) {
	if err := input.Validate(); err != nil {
		return models.Task{}, err
	}
	if m.mutErr != nil {
		return models.Task{}, m.mutErr
	}
	task := models.Task{
		ID:      uuid.Must(uuid.NewV4()),
		UserID:  userID,
		Title:   input.Title,
		DueDate: input.DueDate,
	}
	m.tasks = append(m.tasks, task)
	return task, nil
}

func (m *MockTaskService) UpdateTask(db *gorm.DB, userID, taskID uuid.UUID, patch models.TaskPatch) (models.Task, error) {
	m.lastPatch = patch
	if m.mutErr != nil {
		return models.Task{}, m.mutErr
	}
	return models.Task{ID: taskID, UserID: userID}, nil
}

func (m *MockTaskService) DeleteTask(db *gorm.DB, userID, taskID uuid.UUID) error {
	return m.mutErr
}

func (m *MockTaskService) ToggleComplete(db *gorm.DB, userID, taskID uuid.UUID) (models.Task, error) {
	if m.mutErr != nil {
		return models.Task{}, m.mutErr
	}
	now := time.Now()
	return models.Task{ID: taskID, UserID: userID, Completed: true, CompletedAt: &now}, nil
}

func (m *MockTaskService) BulkUpdateTasks(db *gorm.DB, userID uuid.UUID, taskIDs []uuid.UUID, patch models.TaskPatch) (int64, error) {
	m.lastBulkIDs = taskIDs
	if m.mutErr != nil {
		return 0, m.mutErr
	}
	return int64(len(taskIDs)), nil
}

func setupTaskHandler() (*MockTaskService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	mockService := &MockTaskService{}
	handler := handlers.NewTaskHandler(nil, mockService)
	router := gin.New()

	// Mock authentication middleware
	router.Use(func(c *gin.Context) {
		c.Set("user_id", uuid.Must(uuid.NewV4()))
		c.Next()
	})

	router.GET("/tasks", handler.GetTasks)
	router.POST("/tasks", handler.CreateTask)
	router.PATCH("/tasks/bulk", handler.BulkUpdateTasks)
	router.GET("/tasks/:id", handler.GetTaskByID)
	router.PUT("/tasks/:id", handler.UpdateTask)
	router.DELETE("/tasks/:id", handler.DeleteTask)
	router.PATCH("/tasks/:id/toggle", handler.ToggleComplete)

	return mockService, router
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetTasksParsesFilters(t *testing.T) {
	mock, router := setupTaskHandler()

	w := doRequest(router, "GET", "/tasks?status=pending&priority=high&date=2024-01-02&sort=priority", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	if mock.lastFilters.Status != models.StatusPending {
		t.Errorf("Expected pending status filter, got %q", mock.lastFilters.Status)
	}
	if mock.lastFilters.Priority != models.PriorityHigh {
		t.Errorf("Expected high priority filter, got %q", mock.lastFilters.Priority)
	}
	if mock.lastFilters.Date == nil || mock.lastFilters.Date.Format("2006-01-02") != "2024-01-02" {
		t.Errorf("Expected date filter 2024-01-02, got %v", mock.lastFilters.Date)
	}
	if mock.lastFilters.Sort != models.SortPriority {
		t.Errorf("Expected priority sort, got %q", mock.lastFilters.Sort)
	}
}

func TestGetTasksRejectsMalformedDate(t *testing.T) {
	_, router := setupTaskHandler()

	w := doRequest(router, "GET", "/tasks?date=not-a-date", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestGetTasksRejectsDateRangeCombination(t *testing.T) {
	_, router := setupTaskHandler()

	w := doRequest(router, "GET", "/tasks?date=2024-01-02&startDate=2024-01-01&endDate=2024-01-03", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestCreateTask(t *testing.T) {
	_, router := setupTaskHandler()

	w := doRequest(router, "POST", "/tasks", map[string]interface{}{
		"title":    "Test Task",
		"due_date": time.Now().Format(time.RFC3339),
	})
	if w.Code != http.StatusCreated {
		t.Errorf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
}

func TestCreateTaskMissingTitle(t *testing.T) {
	_, router := setupTaskHandler()

	w := doRequest(router, "POST", "/tasks", map[string]interface{}{
		"due_date": time.Now().Format(time.RFC3339),
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestUpdateTaskErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", models.ErrNotFound, http.StatusNotFound},
		{"forbidden", models.ErrForbidden, http.StatusForbidden},
		{"conflict", models.ErrConflict, http.StatusConflict},
		{"validation", models.NewValidationError("title", "too long"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, router := setupTaskHandler()
			mock.mutErr = tt.err

			w := doRequest(router, "PUT", "/tasks/"+uuid.Must(uuid.NewV4()).String(), map[string]string{"title": "x"})
			if w.Code != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, w.Code)
			}
		})
	}
}

func TestDeleteTask(t *testing.T) {
	_, router := setupTaskHandler()

	w := doRequest(router, "DELETE", "/tasks/"+uuid.Must(uuid.NewV4()).String(), nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status %d, got %d", http.StatusNoContent, w.Code)
	}
}

func TestDeleteTaskInvalidID(t *testing.T) {
	_, router := setupTaskHandler()

	w := doRequest(router, "DELETE", "/tasks/not-a-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestToggleComplete(t *testing.T) {
	_, router := setupTaskHandler()

	w := doRequest(router, "PATCH", "/tasks/"+uuid.Must(uuid.NewV4()).String()+"/toggle", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var task models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !task.Completed || task.CompletedAt == nil {
		t.Error("Expected toggled task with completed_at set")
	}
}

func TestBulkUpdate(t *testing.T) {
	mock, router := setupTaskHandler()

	ids := []string{uuid.Must(uuid.NewV4()).String(), uuid.Must(uuid.NewV4()).String()}
	w := doRequest(router, "PATCH", "/tasks/bulk", map[string]interface{}{
		"task_ids": ids,
		"patch":    map[string]string{"priority": "high"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if len(mock.lastBulkIDs) != 2 {
		t.Errorf("Expected 2 bulk ids, got %d", len(mock.lastBulkIDs))
	}
}

func TestBulkUpdateForbiddenLeavesNothingApplied(t *testing.T) {
	mock, router := setupTaskHandler()
	mock.mutErr = models.ErrForbidden

	w := doRequest(router, "PATCH", "/tasks/bulk", map[string]interface{}{
		"task_ids": []string{uuid.Must(uuid.NewV4()).String()},
		"patch":    map[string]string{"priority": "high"},
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status %d, got %d", http.StatusForbidden, w.Code)
	}
}
