package testutils

import (
	"context"
	"errors"
	"sort"
	"sync"

	"taskboard/model"
	"taskboard/repository"
)

var ErrDuplicateOccurrence = errors.New("duplicate occurrence")

// MemoryTaskStore keeps tasks in memory and hands out copies, like the
// Mongo repository would. Occurrence indexes are unique per series.
type MemoryTaskStore struct {
	mu    sync.Mutex
	tasks map[string]*model.Task
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]*model.Task)}
}

func clone(t *model.Task) *model.Task {
	c := *t
	return &c
}

func (s *MemoryTaskStore) Put(t *model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.TaskID] = clone(t)
}

func (s *MemoryTaskStore) CreateTask(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.UserID == "" {
		return repository.ErrMissingUserID
	}
	for _, t := range s.tasks {
		if task.RecurrenceSeriesID != "" && t.RecurrenceSeriesID == task.RecurrenceSeriesID &&
			t.RecurrenceOccurrence == task.RecurrenceOccurrence {
			return ErrDuplicateOccurrence
		}
	}
	s.tasks[task.TaskID] = clone(task)
	return nil
}

func (s *MemoryTaskStore) GetTaskByID(_ context.Context, userID, taskID string) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok || t.UserID != userID {
		return nil, repository.ErrTaskNotFound
	}
	return clone(t), nil
}

func (s *MemoryTaskStore) filter(keep func(*model.Task) bool) []*model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Task
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, clone(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}

func (s *MemoryTaskStore) GetUserTasks(_ context.Context, userID string) ([]*model.Task, error) {
	return s.filter(func(t *model.Task) bool { return t.UserID == userID }), nil
}

func (s *MemoryTaskStore) GetOpenTasks(_ context.Context, userID string) ([]*model.Task, error) {
	return s.filter(func(t *model.Task) bool { return t.UserID == userID && !t.IsCompleted() }), nil
}

func (s *MemoryTaskStore) GetSeries(_ context.Context, userID, seriesID string) ([]*model.Task, error) {
	series := s.filter(func(t *model.Task) bool { return t.UserID == userID && t.RecurrenceSeriesID == seriesID })
	sort.Slice(series, func(i, j int) bool { return series[i].RecurrenceOccurrence < series[j].RecurrenceOccurrence })
	return series, nil
}

func (s *MemoryTaskStore) UpdateTask(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[task.TaskID]
	if !ok || existing.UserID != task.UserID {
		return repository.ErrTaskNotFound
	}
	s.tasks[task.TaskID] = clone(task)
	return nil
}

func (s *MemoryTaskStore) DeleteTask(_ context.Context, userID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok || t.UserID != userID {
		return repository.ErrTaskNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

func (s *MemoryTaskStore) CountByStatus(_ context.Context, userID string) (map[model.TaskStatus]int, error) {
	counts := make(map[model.TaskStatus]int)
	for _, t := range s.filter(func(t *model.Task) bool { return t.UserID == userID }) {
		counts[t.Status]++
	}
	return counts, nil
}
