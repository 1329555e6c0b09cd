package store

import (
	"time"

	"taskflow/backend/internal/models"
)

// memoViews caches derived slices until the next cache mutation. The
// generation stamp decides validity; nothing is recomputed eagerly.
type memoViews struct {
	gen          uint64
	byDate       map[string][]models.Task
	completed    []models.Task
	pending      []models.Task
	highPriority []models.Task
	haveStatus   bool
}

const dateKeyLayout = "2006-01-02"

// ensureFresh drops stale memos. Callers must hold s.mu.
func (s *TaskStore) ensureFresh() {
	if s.memo.gen == s.gen && s.memo.byDate != nil {
		return
	}
	s.memo = memoViews{gen: s.gen, byDate: make(map[string][]models.Task)}
}

// TasksByDate returns tasks due on the given calendar day, memoized per
// day until the cache changes.
func (s *TaskStore) TasksByDate(date time.Time) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureFresh()

	key := date.Format(dateKeyLayout)
	if cached, ok := s.memo.byDate[key]; ok {
		return cloneSlice(cached)
	}

	var matched []models.Task
	for _, k := range s.order {
		if s.tasks[k].DueDate.Format(dateKeyLayout) == key {
			matched = append(matched, s.tasks[k].Clone())
		}
	}
	s.memo.byDate[key] = matched
	return cloneSlice(matched)
}

func (s *TaskStore) CompletedTasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildStatusViews()
	return cloneSlice(s.memo.completed)
}

func (s *TaskStore) PendingTasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildStatusViews()
	return cloneSlice(s.memo.pending)
}

func (s *TaskStore) HighPriorityTasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildStatusViews()
	return cloneSlice(s.memo.highPriority)
}

func (s *TaskStore) CompletedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildStatusViews()
	return len(s.memo.completed)
}

// buildStatusViews fills the completion/priority memos in one pass.
// Callers must hold s.mu.
func (s *TaskStore) buildStatusViews() {
	s.ensureFresh()
	if s.memo.haveStatus {
		return
	}

	s.memo.completed = []models.Task{}
	s.memo.pending = []models.Task{}
	s.memo.highPriority = []models.Task{}
	for _, k := range s.order {
		task := s.tasks[k].Clone()
		if task.Completed {
			s.memo.completed = append(s.memo.completed, task)
		} else {
			s.memo.pending = append(s.memo.pending, task)
		}
		if task.Priority == models.PriorityHigh {
			s.memo.highPriority = append(s.memo.highPriority, task)
		}
	}
	s.memo.haveStatus = true
}

func cloneSlice(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
