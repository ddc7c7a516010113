// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"taskdesk/internal/service"
)

// BaseTime is the timestamp of the first task a FakeService creates.
// Each further task is one minute later.
var BaseTime = time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC)

// FakeService is an in-memory implementation of service.Service for testing.
// Tasks are listed newest first, like the reference backend.
type FakeService struct {
	mu     sync.RWMutex
	tasks  []service.Task // oldest first
	nextID int64
	calls  map[string]int

	// Error injection for testing
	ListTasksErr  error
	GetTaskErr    error
	CreateTaskErr error
	UpdateTaskErr error
	DeleteTaskErr error
	ToggleTaskErr error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		nextID: 1,
		calls:  make(map[string]int),
	}
}

// AddTask seeds a task and returns it.
func (f *FakeService) AddTask(title, description string, completed bool) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	task := f.insert(title, description)
	f.tasks[len(f.tasks)-1].Completed = completed
	task.Completed = completed
	return task
}

// Calls returns how many times method was invoked.
func (f *FakeService) Calls(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls[method]
}

func (f *FakeService) insert(title, description string) service.Task {
	task := service.Task{
		ID:          f.nextID,
		Title:       title,
		Description: description,
		Timestamp:   BaseTime.Add(time.Duration(f.nextID-1) * time.Minute),
	}
	f.nextID++
	f.tasks = append(f.tasks, task)
	return task
}

func (f *FakeService) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

func (f *FakeService) index(id int64) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func notFound(id int64) error {
	return fmt.Errorf("task %d: %w", id, service.ErrNotFound)
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.record("ListTasks")
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make([]service.Task, 0, len(f.tasks))
	for i := len(f.tasks) - 1; i >= 0; i-- {
		result = append(result, f.tasks[i])
	}
	return result, nil
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id int64) (service.Task, error) {
	f.record("GetTask")
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	i := f.index(id)
	if i < 0 {
		return service.Task{}, notFound(id)
	}
	return f.tasks[i], nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	if err := draft.Validate(); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(strings.TrimSpace(draft.Title), draft.Description), nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, task service.Task) (service.Task, error) {
	f.record("UpdateTask")
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	if err := task.Validate(); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.index(task.ID)
	if i < 0 {
		return service.Task{}, notFound(task.ID)
	}
	f.tasks[i].Title = strings.TrimSpace(task.Title)
	f.tasks[i].Description = task.Description
	f.tasks[i].Completed = task.Completed
	return f.tasks[i], nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int64) error {
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.index(id)
	if i < 0 {
		return notFound(id)
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

// ToggleTask implements service.Service.
func (f *FakeService) ToggleTask(ctx context.Context, id int64, completed bool) (service.Task, error) {
	f.record("ToggleTask")
	if f.ToggleTaskErr != nil {
		return service.Task{}, f.ToggleTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.index(id)
	if i < 0 {
		return service.Task{}, notFound(id)
	}
	f.tasks[i].Completed = completed
	return f.tasks[i], nil
}
