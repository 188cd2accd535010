// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for task backend operations.
// Every backend (REST API, Google Tasks) goes through this interface.
// Commands and the store never import a backend package directly.
type Service interface {
	// ListTasks returns the signed-in user's tasks in server order.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task with the given title and returns the
	// server's copy of it.
	CreateTask(ctx context.Context, title string) (Task, error)

	// UpdateTask applies a partial update and returns the updated task.
	UpdateTask(ctx context.Context, id string, patch Patch) (Task, error)

	// DeleteTask deletes a task by ID.
	DeleteTask(ctx context.Context, id string) error
}
