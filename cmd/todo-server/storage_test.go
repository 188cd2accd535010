package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"todo/internal/server/config"
	"todo/internal/service"
)

func TestOpenRepository_Memory(t *testing.T) {
	repo, closeRepo, err := openRepository(context.Background(), config.StorageConfig{Driver: config.StorageMemory}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeRepo()

	if _, err := repo.Create(context.Background(), service.Task{ID: "a", OwnerID: "u1"}); err != nil {
		t.Errorf("create: %v", err)
	}
}

func TestOpenRepository_SQLite(t *testing.T) {
	cfg := config.StorageConfig{Driver: config.StorageSQLite, SQLitePath: filepath.Join(t.TempDir(), "todo.db")}
	repo, closeRepo, err := openRepository(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeRepo()

	list, err := repo.List(context.Background(), "u1")
	if err != nil || len(list) != 0 {
		t.Errorf("expected empty list, got %+v (err %v)", list, err)
	}
}

func TestOpenRepository_Unknown(t *testing.T) {
	if _, _, err := openRepository(context.Background(), config.StorageConfig{Driver: "mongo"}, zerolog.Nop()); err == nil {
		t.Error("expected error for unknown driver")
	}
}
