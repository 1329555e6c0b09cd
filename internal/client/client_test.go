package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskflow/backend/internal/client"
	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTasksSendsFilterParams(t *testing.T) {
	var gotQuery map[string]string
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]models.Task{})
	}))
	defer server.Close()

	c := client.New(server.URL, time.Second)
	c.SetToken("token123")

	date := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	_, err := c.ListTasks(context.Background(), models.TaskFilters{
		Status:   models.StatusPending,
		Priority: models.PriorityHigh,
		Date:     &date,
		Sort:     models.SortPriority,
	})
	require.NoError(t, err)

	assert.Equal(t, "pending", gotQuery["status"])
	assert.Equal(t, "high", gotQuery["priority"])
	assert.Equal(t, "2024-02-10", gotQuery["date"])
	assert.Equal(t, "priority", gotQuery["sort"])
	assert.Equal(t, "Bearer token123", gotAuth)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"not found", http.StatusNotFound, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, models.ErrNotFound)
		}},
		{"forbidden", http.StatusForbidden, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, models.ErrForbidden)
		}},
		{"bad request", http.StatusBadRequest, func(t *testing.T, err error) {
			assert.True(t, models.IsValidation(err))
		}},
		{"server error", http.StatusInternalServerError, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, models.ErrConflict)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]string{"error": "nope"})
			}))
			defer server.Close()

			c := client.New(server.URL, time.Second)
			_, err := c.GetTask(context.Background(), uuid.Must(uuid.NewV4()))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestTimeoutSurfacesAsTransientFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := client.New(server.URL, 20*time.Millisecond)
	_, err := c.ListTasks(context.Background(), models.TaskFilters{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestCreateAndToggleRoundTrip(t *testing.T) {
	taskID := uuid.Must(uuid.NewV4())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/tasks":
			var input models.NewTask
			require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(models.Task{ID: taskID, Title: input.Title, DueDate: input.DueDate})
		case r.Method == http.MethodPatch && r.URL.Path == "/api/tasks/"+taskID.String()+"/toggle":
			now := time.Now()
			json.NewEncoder(w).Encode(models.Task{ID: taskID, Completed: true, CompletedAt: &now})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := client.New(server.URL, time.Second)

	created, err := c.CreateTask(context.Background(), models.NewTask{Title: "wired", DueDate: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, taskID, created.ID)
	assert.Equal(t, "wired", created.Title)

	toggled, err := c.ToggleComplete(context.Background(), taskID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	require.NotNil(t, toggled.CompletedAt)
}

func TestLoginStoresToken(t *testing.T) {
	var sawLogin bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/login" {
			sawLogin = true
			json.NewEncoder(w).Encode(map[string]string{"access_token": "abc", "refresh_token": "def"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]models.Task{})
	}))
	defer server.Close()

	c := client.New(server.URL, time.Second)
	require.NoError(t, c.Login(context.Background(), "alice", "secret"))
	require.True(t, sawLogin)

	_, err := c.ListTasks(context.Background(), models.TaskFilters{})
	require.NoError(t, err)
}
