package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"taskdesk/internal/service"
)

func openMemory(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_CreateAndList(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	first, err := s.Create(ctx, service.Draft{Title: "Buy milk", Description: "2%"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID == 0 {
		t.Error("expected an id")
	}
	if first.Completed {
		t.Error("expected new task to be open")
	}
	if !first.Timestamp.Equal(base.Add(time.Second)) {
		t.Errorf("unexpected timestamp %v", first.Timestamp)
	}

	second, err := s.Create(ctx, service.Draft{Title: "Walk dog"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tasks, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Errorf("expected newest first, got ids %d, %d", tasks[0].ID, tasks[1].ID)
	}
}

func TestSQLite_EmptyListIsNotNil(t *testing.T) {
	s := openMemory(t)
	tasks, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", tasks)
	}
}

func TestSQLite_UpdateKeepsIDAndTimestamp(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	created, err := s.Create(ctx, service.Draft{Title: "Old", Description: "old"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	changed := created
	changed.Title = "New"
	changed.Completed = true
	changed.Timestamp = time.Unix(0, 0)

	updated, err := s.Update(ctx, changed)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("id changed: %d -> %d", created.ID, updated.ID)
	}
	if updated.Title != "New" || updated.Description != "old" || !updated.Completed {
		t.Errorf("unexpected task after update: %+v", updated)
	}
	if !updated.Timestamp.Equal(created.Timestamp) {
		t.Errorf("timestamp changed: %v -> %v", created.Timestamp, updated.Timestamp)
	}
}

func TestSQLite_SetCompleted(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	created, _ := s.Create(ctx, service.Draft{Title: "Buy milk", Description: "2%"})

	toggled, err := s.SetCompleted(ctx, created.ID, true)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Completed || toggled.Title != "Buy milk" || toggled.Description != "2%" {
		t.Errorf("unexpected task after toggle: %+v", toggled)
	}

	// Setting the same value again still matches the row.
	if _, err := s.SetCompleted(ctx, created.ID, true); err != nil {
		t.Errorf("repeat toggle: %v", err)
	}
}

func TestSQLite_NotFound(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("get: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Update(ctx, service.Task{ID: 42, Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update: expected ErrNotFound, got %v", err)
	}
	if _, err := s.SetCompleted(ctx, 42, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("toggle: expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}
}

func TestSQLite_DeleteAndReopenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	keep, _ := s.Create(ctx, service.Draft{Title: "keep"})
	drop, _ := s.Create(ctx, service.Draft{Title: "drop"})
	if err := s.Delete(ctx, drop.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	s.Close()

	s, err = Open(ctx, "sqlite://"+path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	tasks, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != keep.ID {
		t.Errorf("expected only %d to survive, got %+v", keep.ID, tasks)
	}
}
