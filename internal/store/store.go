// Package store holds a local, in-memory mirror of one user's tasks.
// Mutations are applied optimistically before the server answers and
// reconciled or rolled back afterwards. The cache is only reachable
// through the exported entry points, so no caller can leave it in a
// half-applied state.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
)

// PersistenceAPI is the server surface the store reconciles against.
// Implemented by the REST client in production and by fakes in tests.
type PersistenceAPI interface {
	ListTasks(ctx context.Context, filters models.TaskFilters) ([]models.Task, error)
	CreateTask(ctx context.Context, input models.NewTask) (models.Task, error)
	UpdateTask(ctx context.Context, taskID uuid.UUID, patch models.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, taskID uuid.UUID) error
	ToggleComplete(ctx context.Context, taskID uuid.UUID) (models.Task, error)
}

type mutationState int

const (
	mutationApplied mutationState = iota
	mutationConfirmed
	mutationRolledBack
)

// mutation is the record of one in-flight optimistic change: its state,
// the pre-mutation snapshot and a per-key sequence number. The sequence
// is what keeps a slow failure from clobbering a later success on the
// same task.
type mutation struct {
	state    mutationState
	key      string
	seq      uint64
	snapshot *models.Task // nil for create: nothing to restore
	pos      int          // list position, for delete reinsertion
}

const tempIDPrefix = "tmp-"

func isTempID(key string) bool {
	return strings.HasPrefix(key, tempIDPrefix)
}

// TaskStore is a single-writer optimistic cache. All exported methods
// are safe for concurrent use; mutations against the same task are
// serialized by sequence numbers so the last issued mutation wins.
type TaskStore struct {
	mu  sync.Mutex
	api PersistenceAPI

	order []string
	tasks map[string]models.Task
	seqs  map[string]uint64
	next  uint64

	gen  uint64 // bumped on every cache change; invalidates memos
	memo memoViews
}

func NewTaskStore(api PersistenceAPI) *TaskStore {
	return &TaskStore{
		api:   api,
		tasks: make(map[string]models.Task),
		seqs:  make(map[string]uint64),
	}
}

// Refresh replaces the cache with the server's task list.
func (s *TaskStore) Refresh(ctx context.Context, filters models.TaskFilters) error {
	tasks, err := s.api.ListTasks(ctx, filters)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = s.order[:0]
	s.tasks = make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		key := t.ID.String()
		s.order = append(s.order, key)
		s.tasks[key] = t.Clone()
	}
	s.touch()
	return nil
}

// Tasks returns the visible list in order. Entries are clones; editing
// them does not reach the cache.
func (s *TaskStore) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotList()
}

func (s *TaskStore) snapshotList() []models.Task {
	out := make([]models.Task, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.tasks[key].Clone())
	}
	return out
}

// AddTask inserts a placeholder immediately and swaps in the server's
// authoritative task on success. The placeholder id exists only for
// list-key stability and is never sent over the wire.
func (s *TaskStore) AddTask(ctx context.Context, input models.NewTask) (models.Task, error) {
	if err := input.Validate(); err != nil {
		return models.Task{}, err
	}

	tempKey := tempIDPrefix + uuid.Must(uuid.NewV4()).String()
	placeholder := models.Task{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    input.Priority,
		Tags:        models.NormalizeTags(input.Tags),
	}
	if placeholder.Priority == "" {
		placeholder.Priority = models.PriorityMedium
	}

	s.mu.Lock()
	m := s.begin(tempKey, nil, len(s.order))
	s.order = append(s.order, tempKey)
	s.tasks[tempKey] = placeholder
	s.touch()
	s.mu.Unlock()

	created, err := s.api.CreateTask(ctx, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.rollback(m)
		return models.Task{}, fmt.Errorf("add task: %w", err)
	}
	s.confirmCreate(m, created)
	return created.Clone(), nil
}

// UpdateTask applies the patch locally, then reconciles with the
// server's representation (authoritative for computed fields).
func (s *TaskStore) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	if err := patch.Validate(); err != nil {
		return models.Task{}, err
	}

	taskID, err := realID(id)
	if err != nil {
		return models.Task{}, err
	}

	s.mu.Lock()
	current, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return models.Task{}, models.ErrNotFound
	}
	snapshot := current.Clone()
	m := s.begin(id, &snapshot, s.indexOf(id))
	applied := current.Clone()
	patch.Apply(&applied)
	s.tasks[id] = applied
	s.touch()
	s.mu.Unlock()

	confirmed, err := s.api.UpdateTask(ctx, taskID, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.rollback(m)
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	s.confirm(m, confirmed)
	return confirmed.Clone(), nil
}

// ToggleComplete flips the completion flag locally (tentatively stamping
// completed_at) and adopts the server's timestamps on confirmation.
func (s *TaskStore) ToggleComplete(ctx context.Context, id string) (models.Task, error) {
	taskID, err := realID(id)
	if err != nil {
		return models.Task{}, err
	}

	s.mu.Lock()
	current, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return models.Task{}, models.ErrNotFound
	}
	snapshot := current.Clone()
	m := s.begin(id, &snapshot, s.indexOf(id))
	applied := current.Clone()
	applied.Completed = !applied.Completed
	if applied.Completed {
		now := time.Now()
		applied.CompletedAt = &now
	} else {
		applied.CompletedAt = nil
	}
	s.tasks[id] = applied
	s.touch()
	s.mu.Unlock()

	confirmed, err := s.api.ToggleComplete(ctx, taskID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.rollback(m)
		return models.Task{}, fmt.Errorf("toggle complete: %w", err)
	}
	s.confirm(m, confirmed)
	return confirmed.Clone(), nil
}

// DeleteTask removes the entry immediately and reinserts it at its old
// position if the server refuses.
func (s *TaskStore) DeleteTask(ctx context.Context, id string) error {
	taskID, err := realID(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	current, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return models.ErrNotFound
	}
	snapshot := current.Clone()
	m := s.begin(id, &snapshot, s.indexOf(id))
	s.removeKey(id)
	s.touch()
	s.mu.Unlock()

	err = s.api.DeleteTask(ctx, taskID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.rollback(m)
		return fmt.Errorf("delete task: %w", err)
	}
	s.confirmDelete(m)
	return nil
}

// realID rejects placeholder ids before they could reach the wire.
func realID(id string) (uuid.UUID, error) {
	if isTempID(id) {
		return uuid.Nil, models.NewValidationError("id", "task is not confirmed yet")
	}
	taskID, err := uuid.FromString(id)
	if err != nil {
		return uuid.Nil, models.NewValidationError("id", "malformed task id")
	}
	return taskID, nil
}

// begin records an in-flight mutation and advances the key's sequence.
// Callers must hold s.mu.
func (s *TaskStore) begin(key string, snapshot *models.Task, pos int) *mutation {
	s.next++
	s.seqs[key] = s.next
	return &mutation{state: mutationApplied, key: key, seq: s.next, snapshot: snapshot, pos: pos}
}

// rollback restores the pre-mutation state, unless a later mutation of
// the same key has been applied since; then the stale rollback is a
// no-op. Callers must hold s.mu.
func (s *TaskStore) rollback(m *mutation) {
	m.state = mutationRolledBack
	if s.seqs[m.key] != m.seq {
		return
	}

	switch {
	case m.snapshot == nil:
		// Failed create: drop the placeholder and its sequence entry,
		// the temp key is never reused.
		s.removeKey(m.key)
		delete(s.seqs, m.key)
	case !s.hasKey(m.key):
		// Failed delete: put the entry back where it was.
		s.insertKey(m.key, m.pos)
		s.tasks[m.key] = m.snapshot.Clone()
	default:
		s.tasks[m.key] = m.snapshot.Clone()
	}
	s.touch()
}

// confirm adopts the server's representation for an update/toggle,
// respecting later mutations the same way rollback does.
func (s *TaskStore) confirm(m *mutation, authoritative models.Task) {
	m.state = mutationConfirmed
	if s.seqs[m.key] != m.seq || !s.hasKey(m.key) {
		return
	}
	s.tasks[m.key] = authoritative.Clone()
	s.touch()
}

// confirmDelete settles a successful delete. The key is gone for good,
// so its sequence entry is released; otherwise seqs would accumulate
// one dead entry per deleted task over the store's lifetime.
func (s *TaskStore) confirmDelete(m *mutation) {
	m.state = mutationConfirmed
	if s.seqs[m.key] != m.seq {
		return
	}
	delete(s.seqs, m.key)
}

// confirmCreate replaces the placeholder in place, keeping its list
// position, and re-keys it under the server-assigned id.
func (s *TaskStore) confirmCreate(m *mutation, created models.Task) {
	m.state = mutationConfirmed
	if s.seqs[m.key] != m.seq || !s.hasKey(m.key) {
		return
	}

	realKey := created.ID.String()
	for i, key := range s.order {
		if key == m.key {
			s.order[i] = realKey
			break
		}
	}
	delete(s.tasks, m.key)
	delete(s.seqs, m.key)
	s.tasks[realKey] = created.Clone()
	s.touch()
}

func (s *TaskStore) hasKey(key string) bool {
	_, ok := s.tasks[key]
	return ok
}

func (s *TaskStore) indexOf(key string) int {
	for i, k := range s.order {
		if k == key {
			return i
		}
	}
	return -1
}

func (s *TaskStore) removeKey(key string) {
	if i := s.indexOf(key); i >= 0 {
		s.order = append(s.order[:i], s.order[i+1:]...)
	}
	delete(s.tasks, key)
}

func (s *TaskStore) insertKey(key string, pos int) {
	if pos < 0 || pos > len(s.order) {
		pos = len(s.order)
	}
	s.order = append(s.order, "")
	copy(s.order[pos+1:], s.order[pos:])
	s.order[pos] = key
}

// touch marks the cache changed, invalidating all memoized views.
// Callers must hold s.mu.
func (s *TaskStore) touch() {
	s.gen++
}
