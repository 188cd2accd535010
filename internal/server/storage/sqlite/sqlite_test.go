package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"todo/internal/server/tasks"
	"todo/internal/service"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	r, err := Open(context.Background(), filepath.Join(t.TempDir(), "todo.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func task(id, owner, title string, created time.Time) service.Task {
	return service.Task{ID: id, OwnerID: owner, Title: title, CreatedAt: created, UpdatedAt: created}
}

func TestRepository_CreateListOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	second := task("b", "u1", "Walk dog", base.Add(time.Second))
	first := task("a", "u1", "Buy milk", base)
	for _, tk := range []service.Task{second, first, task("c", "u2", "Other", base)} {
		if _, err := r.Create(ctx, tk); err != nil {
			t.Fatalf("create %s: %v", tk.ID, err)
		}
	}

	list, err := r.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]service.Task{first, second}, list); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestRepository_UpdateAndGet(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	created, _ := r.Create(ctx, task("a", "u1", "Buy milk", base))

	created.Completed = true
	created.Title = "Buy oat milk"
	created.UpdatedAt = base.Add(time.Minute)
	if _, err := r.Update(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := r.Get(ctx, "u1", "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("task mismatch (-want +got):\n%s", diff)
	}
}

func TestRepository_NotFound(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	r.Create(ctx, task("a", "u1", "Buy milk", time.Now()))

	if _, err := r.Get(ctx, "u2", "a"); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("get: expected ErrNotFound, got %v", err)
	}
	if _, err := r.Update(ctx, task("a", "u2", "x", time.Now())); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("update: expected ErrNotFound, got %v", err)
	}
	if err := r.Delete(ctx, "u2", "a"); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}
	if err := r.Delete(ctx, "u1", "a"); err != nil {
		t.Errorf("delete: unexpected error %v", err)
	}
}

func TestOpen_MigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.db")
	for i := 0; i < 2; i++ {
		r, err := Open(context.Background(), path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		r.Close()
	}
}
