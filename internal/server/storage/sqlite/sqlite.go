// Package sqlite stores tasks in a single SQLite file. Timestamps are
// stored as Unix nanoseconds.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"todo/internal/server/tasks"
	"todo/internal/service"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	listQuery = `
		SELECT id, owner_id, title, completed, created_at, updated_at
		FROM tasks WHERE owner_id = ? ORDER BY created_at, rowid`

	getQuery = `
		SELECT id, owner_id, title, completed, created_at, updated_at
		FROM tasks WHERE owner_id = ? AND id = ?`

	createQuery = `
		INSERT INTO tasks (id, owner_id, title, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	updateQuery = `
		UPDATE tasks SET title = ?, completed = ?, updated_at = ?
		WHERE owner_id = ? AND id = ?`

	deleteQuery = `DELETE FROM tasks WHERE owner_id = ? AND id = ?`
)

// Repository implements tasks.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies
// migrations.
func Open(ctx context.Context, path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

// Migrate applies the embedded schema migrations to db.
func Migrate(ctx context.Context, db *sql.DB) ([]*goose.MigrationResult, error) {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, err
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return results, fmt.Errorf("goose up: %w", err)
	}
	return results, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) List(ctx context.Context, ownerID string) ([]service.Task, error) {
	rows, err := r.db.QueryContext(ctx, listQuery, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	list := []service.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *Repository) Create(ctx context.Context, t service.Task) (service.Task, error) {
	_, err := r.db.ExecContext(ctx, createQuery,
		t.ID, t.OwnerID, t.Title, t.Completed, t.CreatedAt.UnixNano(), t.UpdatedAt.UnixNano())
	if err != nil {
		return service.Task{}, fmt.Errorf("create task: %w", err)
	}
	return normalize(t), nil
}

func (r *Repository) Get(ctx context.Context, ownerID, id string) (service.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, getQuery, ownerID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return service.Task{}, tasks.ErrNotFound
	}
	if err != nil {
		return service.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (r *Repository) Update(ctx context.Context, t service.Task) (service.Task, error) {
	res, err := r.db.ExecContext(ctx, updateQuery,
		t.Title, t.Completed, t.UpdatedAt.UnixNano(), t.OwnerID, t.ID)
	if err != nil {
		return service.Task{}, fmt.Errorf("update task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return service.Task{}, tasks.ErrNotFound
	}
	return normalize(t), nil
}

func (r *Repository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, deleteQuery, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tasks.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (service.Task, error) {
	var (
		t                service.Task
		created, updated int64
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Completed, &created, &updated); err != nil {
		return service.Task{}, err
	}
	t.CreatedAt = time.Unix(0, created).UTC()
	t.UpdatedAt = time.Unix(0, updated).UTC()
	return t, nil
}

// normalize makes a written task compare equal to what a read returns.
func normalize(t service.Task) service.Task {
	t.CreatedAt = time.Unix(0, t.CreatedAt.UnixNano()).UTC()
	t.UpdatedAt = time.Unix(0, t.UpdatedAt.UnixNano()).UTC()
	return t
}

var _ tasks.Repository = (*Repository)(nil)
