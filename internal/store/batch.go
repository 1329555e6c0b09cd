package store

import (
	"context"
	"fmt"
	"sync"

	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
)

// BatchItem pairs one task with the patch to apply to it.
type BatchItem struct {
	ID    string
	Patch models.TaskPatch
}

// BatchUpdate applies every patch optimistically in one pass, issues
// the server calls concurrently, and if any of them fails restores
// every target to its pre-batch snapshot. Either the whole batch sticks
// or none of it does, mirroring the server's all-or-nothing acceptance.
// Repeated ids are coalesced in order into a single patch per task, so
// the result holds one entry per distinct task.
func (s *TaskStore) BatchUpdate(ctx context.Context, items []BatchItem) ([]models.Task, error) {
	if len(items) == 0 {
		return nil, models.NewValidationError("updates", "must not be empty")
	}

	// Coalesce before applying anything. A second snapshot of an
	// already-patched task would not be its pre-batch state, and the
	// sequence guard would then treat the first rollback as stale.
	index := make(map[string]int, len(items))
	merged := make([]BatchItem, 0, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if err := item.Patch.Validate(); err != nil {
			return nil, err
		}
		taskID, err := realID(item.ID)
		if err != nil {
			return nil, err
		}
		if i, ok := index[item.ID]; ok {
			merged[i].Patch = merged[i].Patch.Merge(item.Patch)
			continue
		}
		index[item.ID] = len(merged)
		merged = append(merged, item)
		ids = append(ids, taskID)
	}
	items = merged

	s.mu.Lock()
	muts := make([]*mutation, 0, len(items))
	for _, item := range items {
		current, ok := s.tasks[item.ID]
		if !ok {
			// Undo patches already applied for earlier items before
			// reporting, so the cache never holds half a batch.
			for _, m := range muts {
				s.rollback(m)
			}
			s.mu.Unlock()
			return nil, models.ErrNotFound
		}
		snapshot := current.Clone()
		m := s.begin(item.ID, &snapshot, s.indexOf(item.ID))
		applied := current.Clone()
		item.Patch.Apply(&applied)
		s.tasks[item.ID] = applied
		muts = append(muts, m)
	}
	s.touch()
	s.mu.Unlock()

	// One concurrent call per task; first error wins.
	results := make([]models.Task, len(items))
	errs := make([]error, len(items))
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.api.UpdateTask(ctx, ids[i], items[i].Patch)
		}(i)
	}
	wg.Wait()

	var firstErr error
	for _, err := range errs {
		if err != nil {
			firstErr = err
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if firstErr != nil {
		for _, m := range muts {
			s.rollback(m)
		}
		return nil, fmt.Errorf("batch update: %w", firstErr)
	}
	confirmed := make([]models.Task, len(items))
	for i, m := range muts {
		s.confirm(m, results[i])
		confirmed[i] = results[i].Clone()
	}
	return confirmed, nil
}
