// Package postgres stores tasks in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"todo/internal/server/tasks"
	"todo/internal/service"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	listQuery = `
		SELECT id::text, owner_id, title, completed, created_at, updated_at
		FROM tasks WHERE owner_id = $1 ORDER BY created_at, id`

	getQuery = `
		SELECT id::text, owner_id, title, completed, created_at, updated_at
		FROM tasks WHERE owner_id = $1 AND id = CAST($2::text AS uuid)`

	createQuery = `
		INSERT INTO tasks (id, owner_id, title, completed, created_at, updated_at)
		VALUES (CAST($1::text AS uuid), $2, $3, $4, $5, $6)
		RETURNING id::text, owner_id, title, completed, created_at, updated_at`

	updateQuery = `
		UPDATE tasks SET title = $3, completed = $4, updated_at = $5
		WHERE owner_id = $1 AND id = CAST($2::text AS uuid)
		RETURNING id::text, owner_id, title, completed, created_at, updated_at`

	deleteQuery = `DELETE FROM tasks WHERE owner_id = $1 AND id = CAST($2::text AS uuid)`
)

// Connect opens a pool for dsn and pings it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	return pool, nil
}

// Migrate applies the embedded schema migrations to dsn.
func Migrate(ctx context.Context, dsn string) ([]*goose.MigrationResult, error) {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()

	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, err
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return results, fmt.Errorf("goose up: %w", err)
	}
	return results, nil
}

// Repository implements tasks.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// New returns a Repository using pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) List(ctx context.Context, ownerID string) ([]service.Task, error) {
	rows, err := r.pool.Query(ctx, listQuery, ownerID)
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
	out, err := scanTask(r.pool.QueryRow(ctx, createQuery,
		t.ID, t.OwnerID, t.Title, t.Completed, t.CreatedAt, t.UpdatedAt))
	if err != nil {
		return service.Task{}, mapError("create task", err)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, ownerID, id string) (service.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, getQuery, ownerID, id))
	if err != nil {
		return service.Task{}, mapError("get task", err)
	}
	return t, nil
}

func (r *Repository) Update(ctx context.Context, t service.Task) (service.Task, error) {
	out, err := scanTask(r.pool.QueryRow(ctx, updateQuery,
		t.OwnerID, t.ID, t.Title, t.Completed, t.UpdatedAt))
	if err != nil {
		return service.Task{}, mapError("update task", err)
	}
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := r.pool.Exec(ctx, deleteQuery, ownerID, id)
	if err != nil {
		return mapError("delete task", err)
	}
	if tag.RowsAffected() == 0 {
		return tasks.ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (service.Task, error) {
	var t service.Task
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, err
}

// mapError turns "no row" and malformed ids into tasks.ErrNotFound and a
// violated title check into a validation error.
func mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return tasks.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.InvalidTextRepresentation:
			return tasks.ErrNotFound
		case pgerrcode.CheckViolation:
			return service.NewValidationError(service.MsgTitleTooLong, map[string][]string{
				"title": {service.MsgTitleTooLong},
			})
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ tasks.Repository = (*Repository)(nil)
