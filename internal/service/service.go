// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"context"
	"errors"
)

// Sentinel errors shared by every backend. Match them with errors.Is.
var (
	// ErrNotFound indicates the task id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalid indicates the request was rejected as malformed.
	ErrInvalid = errors.New("invalid task")

	// ErrUnauthorized indicates missing or rejected credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// Service defines the interface for task backend operations.
// Views (terminal and browser) only talk to this interface and never
// import a transport package directly.
type Service interface {
	// ListTasks returns every task in server order. No pagination.
	ListTasks(ctx context.Context) ([]Task, error)

	// GetTask returns a single task by id.
	// Returns ErrNotFound if the id does not exist.
	GetTask(ctx context.Context, id int64) (Task, error)

	// CreateTask creates a task from a draft.
	// The server assigns id, timestamp and completed=false.
	CreateTask(ctx context.Context, draft Draft) (Task, error)

	// UpdateTask replaces title, description and completed of task.ID.
	UpdateTask(ctx context.Context, task Task) (Task, error)

	// DeleteTask removes a task permanently.
	DeleteTask(ctx context.Context, id int64) error

	// ToggleTask sets only the completed flag.
	ToggleTask(ctx context.Context, id int64, completed bool) (Task, error)
}
