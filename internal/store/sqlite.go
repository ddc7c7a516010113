package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"taskdesk/internal/service"
)

// timeLayout is fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TEXT NOT NULL
)`

// SQLite stores tasks in a SQLite database file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection: keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tasks table: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) List(ctx context.Context) ([]service.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, description, completed, created_at FROM tasks ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	defer rows.Close()

	tasks := []service.Task{}
	for rows.Next() {
		task, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *SQLite) Get(ctx context.Context, id int64) (service.Task, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, description, completed, created_at FROM tasks WHERE id = ?", id)
	task, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return service.Task{}, ErrNotFound
	}
	return task, err
}

func (s *SQLite) Create(ctx context.Context, draft service.Draft) (service.Task, error) {
	created := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (title, description, completed, created_at) VALUES (?, ?, FALSE, ?)",
		draft.Title, draft.Description, created.Format(timeLayout))
	if err != nil {
		return service.Task{}, fmt.Errorf("failed to insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return service.Task{}, err
	}
	return s.Get(ctx, id)
}

func (s *SQLite) Update(ctx context.Context, task service.Task) (service.Task, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET title = ?, description = ?, completed = ? WHERE id = ?",
		task.Title, task.Description, task.Completed, task.ID)
	if err != nil {
		return service.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	if err := expectOne(res); err != nil {
		return service.Task{}, err
	}
	return s.Get(ctx, task.ID)
}

func (s *SQLite) SetCompleted(ctx context.Context, id int64, completed bool) (service.Task, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE tasks SET completed = ? WHERE id = ?", completed, id)
	if err != nil {
		return service.Task{}, fmt.Errorf("failed to toggle task: %w", err)
	}
	if err := expectOne(res); err != nil {
		return service.Task{}, err
	}
	return s.Get(ctx, id)
}

func (s *SQLite) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return expectOne(res)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row scanner) (service.Task, error) {
	var task service.Task
	var created string
	if err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Completed, &created); err != nil {
		return service.Task{}, err
	}
	ts, err := time.Parse(timeLayout, created)
	if err != nil {
		return service.Task{}, fmt.Errorf("task %d: bad created_at %q: %w", task.ID, created, err)
	}
	task.Timestamp = ts
	return task, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
