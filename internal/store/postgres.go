package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskdesk/internal/service"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id BIGSERIAL PRIMARY KEY,
	title VARCHAR(100) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const taskColumns = "id, title, description, completed, created_at"

// Postgres stores tasks in PostgreSQL through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL and ensures the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tasks table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) List(ctx context.Context) ([]service.Task, error) {
	rows, err := p.pool.Query(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	defer rows.Close()

	tasks := []service.Task{}
	for rows.Next() {
		task, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (p *Postgres) Get(ctx context.Context, id int64) (service.Task, error) {
	return p.one(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = $1", id)
}

func (p *Postgres) Create(ctx context.Context, draft service.Draft) (service.Task, error) {
	return p.one(ctx,
		"INSERT INTO tasks (title, description) VALUES ($1, $2) RETURNING "+taskColumns,
		draft.Title, draft.Description)
}

func (p *Postgres) Update(ctx context.Context, task service.Task) (service.Task, error) {
	return p.one(ctx,
		"UPDATE tasks SET title = $1, description = $2, completed = $3 WHERE id = $4 RETURNING "+taskColumns,
		task.Title, task.Description, task.Completed, task.ID)
}

func (p *Postgres) SetCompleted(ctx context.Context, id int64, completed bool) (service.Task, error) {
	return p.one(ctx,
		"UPDATE tasks SET completed = $1 WHERE id = $2 RETURNING "+taskColumns,
		completed, id)
}

func (p *Postgres) Delete(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) one(ctx context.Context, query string, args ...any) (service.Task, error) {
	task, err := scanPostgres(p.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return service.Task{}, ErrNotFound
	}
	return task, err
}

func scanPostgres(row pgx.Row) (service.Task, error) {
	var task service.Task
	if err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Completed, &task.Timestamp); err != nil {
		return service.Task{}, err
	}
	task.Timestamp = task.Timestamp.UTC()
	return task, nil
}
