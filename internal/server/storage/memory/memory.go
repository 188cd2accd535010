// Package memory is an in-process task repository. Data is lost on restart.
package memory

import (
	"context"
	"sync"

	"todo/internal/server/tasks"
	"todo/internal/service"
)

// Repository keeps each owner's tasks in creation order.
type Repository struct {
	mu     sync.RWMutex
	owners map[string][]service.Task
}

// New returns an empty Repository.
func New() *Repository {
	return &Repository{owners: make(map[string][]service.Task)}
}

func (r *Repository) List(ctx context.Context, ownerID string) ([]service.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.owners[ownerID]
	out := make([]service.Task, len(list))
	copy(out, list)
	return out, nil
}

func (r *Repository) Create(ctx context.Context, t service.Task) (service.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.owners[t.OwnerID] = append(r.owners[t.OwnerID], t)
	return t, nil
}

func (r *Repository) Get(ctx context.Context, ownerID, id string) (service.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.index(ownerID, id)
	if i < 0 {
		return service.Task{}, tasks.ErrNotFound
	}
	return r.owners[ownerID][i], nil
}

func (r *Repository) Update(ctx context.Context, t service.Task) (service.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(t.OwnerID, t.ID)
	if i < 0 {
		return service.Task{}, tasks.ErrNotFound
	}
	r.owners[t.OwnerID][i] = t
	return t, nil
}

func (r *Repository) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(ownerID, id)
	if i < 0 {
		return tasks.ErrNotFound
	}
	list := r.owners[ownerID]
	r.owners[ownerID] = append(list[:i:i], list[i+1:]...)
	return nil
}

// index must be called with mu held.
func (r *Repository) index(ownerID, id string) int {
	for i, t := range r.owners[ownerID] {
		if t.ID == id {
			return i
		}
	}
	return -1
}

var _ tasks.Repository = (*Repository)(nil)
