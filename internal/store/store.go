// Package store persists tasks for the reference backend.
package store

import (
	"context"
	"errors"
	"strings"

	"taskdesk/internal/service"
)

// ErrNotFound is returned when no row matches the id.
var ErrNotFound = errors.New("task not found")

// Store is the persistence contract of the reference backend.
// List returns newest first.
type Store interface {
	List(ctx context.Context) ([]service.Task, error)
	Get(ctx context.Context, id int64) (service.Task, error)
	Create(ctx context.Context, draft service.Draft) (service.Task, error)
	Update(ctx context.Context, task service.Task) (service.Task, error)
	SetCompleted(ctx context.Context, id int64, completed bool) (service.Task, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

// Open picks a driver from the URL: postgres:// and postgresql:// go to
// PostgreSQL, anything else is treated as a SQLite path (":memory:" included).
func Open(ctx context.Context, url string) (Store, error) {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return OpenPostgres(ctx, url)
	}
	return OpenSQLite(ctx, strings.TrimPrefix(url, "sqlite://"))
}
