package store

import (
	"context"
	"testing"
	"time"

	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAPI is the minimal persistence backend for white-box tests.
type stubAPI struct {
	fail bool
}

func (a *stubAPI) ListTasks(ctx context.Context, filters models.TaskFilters) ([]models.Task, error) {
	return nil, nil
}

func (a *stubAPI) CreateTask(ctx context.Context, input models.NewTask) (models.Task, error) {
	if a.fail {
		return models.Task{}, models.ErrConflict
	}
	return models.Task{
		ID:       uuid.Must(uuid.NewV4()),
		Title:    input.Title,
		DueDate:  input.DueDate,
		Priority: models.PriorityMedium,
	}, nil
}

func (a *stubAPI) UpdateTask(ctx context.Context, taskID uuid.UUID, patch models.TaskPatch) (models.Task, error) {
	if a.fail {
		return models.Task{}, models.ErrConflict
	}
	return models.Task{ID: taskID}, nil
}

func (a *stubAPI) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	if a.fail {
		return models.ErrConflict
	}
	return nil
}

func (a *stubAPI) ToggleComplete(ctx context.Context, taskID uuid.UUID) (models.Task, error) {
	if a.fail {
		return models.Task{}, models.ErrConflict
	}
	return models.Task{ID: taskID, Completed: true}, nil
}

func TestSequenceEntriesReleasedWithTheirKeys(t *testing.T) {
	api := &stubAPI{fail: true}
	s := NewTaskStore(api)

	_, err := s.AddTask(context.Background(), models.NewTask{Title: "x", DueDate: time.Now()})
	require.Error(t, err)
	assert.Empty(t, s.seqs, "failed create must release the placeholder's sequence entry")

	api.fail = false
	created, err := s.AddTask(context.Background(), models.NewTask{Title: "y", DueDate: time.Now()})
	require.NoError(t, err)
	assert.Empty(t, s.seqs, "confirmed create must not leave the temp key's entry behind")

	require.NoError(t, s.DeleteTask(context.Background(), created.ID.String()))
	assert.Empty(t, s.seqs, "confirmed delete must release the key's sequence entry")
	assert.Empty(t, s.tasks)
	assert.Empty(t, s.order)
}
