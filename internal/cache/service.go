package cache

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/singleflight"

	"taskdesk/internal/service"
)

// Service decorates a service.Service with a read cache.
// Mutations always reach the backend; on success they invalidate the keys
// from InvalidationKeys. A failed mutation leaves the cache untouched.
type Service struct {
	next  service.Service
	store *Store
	group singleflight.Group
}

// Wrap returns a caching decorator around next.
func Wrap(next service.Service, store *Store) *Service {
	return &Service{next: next, store: store}
}

// Store exposes the underlying store.
func (s *Service) Store() *Store {
	return s.store
}

// ListTasks returns the cached list or fetches it once for all concurrent callers.
func (s *Service) ListTasks(ctx context.Context) ([]service.Task, error) {
	if v, ok := s.store.Get(ListKey); ok {
		return slices.Clone(v.([]service.Task)), nil
	}

	v, err := s.shared(ctx, ListKey, func(fetchCtx context.Context) (any, error) {
		gen := s.store.Generation()
		tasks, err := s.next.ListTasks(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.store.SetAt(gen, ListKey, tasks)
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]service.Task)), nil
}

// GetTask serves the per-task entry, then the cached list, then the backend.
func (s *Service) GetTask(ctx context.Context, id int64) (service.Task, error) {
	key := TaskKey(id)
	if v, ok := s.store.Get(key); ok {
		return v.(service.Task), nil
	}

	gen := s.store.Generation()
	if v, ok := s.store.Get(ListKey); ok {
		for _, t := range v.([]service.Task) {
			if t.ID == id {
				s.store.SetAt(gen, key, t)
				return t, nil
			}
		}
		return service.Task{}, fmt.Errorf("task %d: %w", id, service.ErrNotFound)
	}

	v, err := s.shared(ctx, key, func(fetchCtx context.Context) (any, error) {
		gen := s.store.Generation()
		task, err := s.next.GetTask(fetchCtx, id)
		if err != nil {
			return nil, err
		}
		s.store.SetAt(gen, key, task)
		return task, nil
	})
	if err != nil {
		return service.Task{}, err
	}
	return v.(service.Task), nil
}

// shared runs fetch once for all concurrent callers of key. The fetch is
// detached from the cancellation of whichever caller started it; each caller
// still stops waiting when its own ctx is done.
func (s *Service) shared(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return fetch(fetchCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	task, err := s.next.CreateTask(ctx, draft)
	if err != nil {
		return service.Task{}, err
	}
	s.store.Invalidate(InvalidationKeys(OpCreate, task.ID)...)
	return task, nil
}

func (s *Service) UpdateTask(ctx context.Context, task service.Task) (service.Task, error) {
	updated, err := s.next.UpdateTask(ctx, task)
	if err != nil {
		return service.Task{}, err
	}
	s.store.Invalidate(InvalidationKeys(OpUpdate, task.ID)...)
	return updated, nil
}

func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if err := s.next.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.store.Invalidate(InvalidationKeys(OpDelete, id)...)
	return nil
}

func (s *Service) ToggleTask(ctx context.Context, id int64, completed bool) (service.Task, error) {
	task, err := s.next.ToggleTask(ctx, id, completed)
	if err != nil {
		return service.Task{}, err
	}
	s.store.Invalidate(InvalidationKeys(OpToggle, id)...)
	return task, nil
}
