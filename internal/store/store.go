// Package store owns the client-side task cache and coordinates optimistic
// mutations against a service.Service.
//
// Every mutation snapshots the cache, applies the change locally, notifies
// subscribers, then performs the network write. On success the cache is
// reconciled with a fresh read from the server; on failure the snapshot is
// restored exactly and the error is returned to the caller.
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"todo/internal/service"
)

// ProvisionalPrefix marks ids assigned locally before the server responds.
const ProvisionalPrefix = "tmp-"

// Store is the single owner of the cached task collection.
type Store struct {
	svc            service.Service
	logger         zerolog.Logger
	newID          func() string
	now            func() time.Time
	onUnauthorized func(error)

	mu      sync.RWMutex
	tasks   []service.Task
	loaded  bool
	subs    map[int]func([]service.Task)
	nextSub int

	refresh singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithUnauthorizedHandler registers fn to run whenever a backend call
// fails with an authentication error, after any rollback.
func WithUnauthorizedHandler(fn func(error)) Option {
	return func(s *Store) { s.onUnauthorized = fn }
}

// WithIDGenerator overrides provisional id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New creates a Store backed by svc. The cache starts empty and unloaded.
func New(svc service.Service, opts ...Option) *Store {
	s := &Store{
		svc:    svc,
		logger: zerolog.Nop(),
		newID:  func() string { return ProvisionalPrefix + uuid.NewString() },
		now:    time.Now,
		subs:   make(map[int]func([]service.Task)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tasks returns a copy of the cached collection.
func (s *Store) Tasks() []service.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.tasks)
}

// View returns the cached tasks narrowed by status filter and search text.
func (s *Store) View(f service.StatusFilter, search string) []service.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return service.FilterTasks(s.tasks, f, search)
}

// Loaded reports whether the cache has been filled from the server at least once.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Find returns the cached task with the given id.
func (s *Store) Find(id string) (service.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.tasks, id)
	if i < 0 {
		return service.Task{}, false
	}
	return s.tasks[i], true
}

// Subscribe registers fn to receive a copy of the collection after every
// change. The returned func removes the subscription.
func (s *Store) Subscribe(fn func([]service.Task)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Refresh replaces the cache with the server's collection. Concurrent
// calls share a single backend read.
func (s *Store) Refresh(ctx context.Context) error {
	_, err, _ := s.refresh.Do("tasks", func() (any, error) {
		tasks, err := s.svc.ListTasks(ctx)
		if err != nil {
			return nil, err
		}
		s.replace(tasks)
		return nil, nil
	})
	if err != nil {
		s.logger.Debug().Err(err).Msg("refresh failed")
		s.handleAuth(err)
		return err
	}
	return nil
}

// Create validates title and inserts a provisional task, then creates it
// on the server. Invalid titles fail without any network call.
func (s *Store) Create(ctx context.Context, title string) (service.Task, error) {
	if err := service.ValidateTitle(title); err != nil {
		return service.Task{}, err
	}
	title = strings.TrimSpace(title)

	now := s.now()
	provisional := service.Task{
		ID:        s.newID(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return s.mutate(ctx, "create",
		func(tasks []service.Task) []service.Task {
			return append(tasks, provisional)
		},
		func(ctx context.Context) (service.Task, error) {
			return s.svc.CreateTask(ctx, title)
		},
		func(tasks []service.Task, created service.Task) []service.Task {
			return replaceTask(tasks, provisional.ID, created)
		},
	)
}

// Update applies patch to the cached task and then on the server.
func (s *Store) Update(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	if err := patch.Validate(); err != nil {
		return service.Task{}, err
	}
	if _, ok := s.Find(id); !ok {
		return service.Task{}, service.NewNotFoundError("task not found")
	}

	return s.mutate(ctx, "update",
		func(tasks []service.Task) []service.Task {
			if i := indexOf(tasks, id); i >= 0 {
				t := patch.Apply(tasks[i])
				t.UpdatedAt = s.now()
				tasks[i] = t
			}
			return tasks
		},
		func(ctx context.Context) (service.Task, error) {
			return s.svc.UpdateTask(ctx, id, patch)
		},
		func(tasks []service.Task, updated service.Task) []service.Task {
			return replaceTask(tasks, id, updated)
		},
	)
}

// Toggle flips the completed flag of a cached task.
func (s *Store) Toggle(ctx context.Context, id string) (service.Task, error) {
	t, ok := s.Find(id)
	if !ok {
		return service.Task{}, service.NewNotFoundError("task not found")
	}
	return s.Update(ctx, id, service.Patch{Completed: service.BoolPtr(!t.Completed)})
}

// Delete removes the cached task and then deletes it on the server.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, ok := s.Find(id); !ok {
		return service.NewNotFoundError("task not found")
	}

	_, err := s.mutate(ctx, "delete",
		func(tasks []service.Task) []service.Task {
			return removeTask(tasks, id)
		},
		func(ctx context.Context) (service.Task, error) {
			return service.Task{ID: id}, s.svc.DeleteTask(ctx, id)
		},
		func(tasks []service.Task, _ service.Task) []service.Task {
			return removeTask(tasks, id)
		},
	)
	return err
}

// mutate runs one optimistic write: snapshot, apply, write, then reconcile
// or roll back. settle folds the write response into the cache when the
// follow-up read fails.
func (s *Store) mutate(
	ctx context.Context,
	op string,
	apply func([]service.Task) []service.Task,
	write func(context.Context) (service.Task, error),
	settle func([]service.Task, service.Task) []service.Task,
) (service.Task, error) {
	s.mu.Lock()
	snapshot := s.tasks
	s.tasks = apply(clone(s.tasks))
	s.mu.Unlock()
	s.notify()

	result, err := write(ctx)
	if err != nil {
		s.mu.Lock()
		s.tasks = snapshot
		s.mu.Unlock()
		s.notify()

		s.logger.Warn().
			Err(err).
			Str("op", op).
			Msg("rolled back optimistic update")
		s.handleAuth(err)
		return service.Task{}, err
	}

	if rerr := s.Refresh(ctx); rerr != nil {
		s.logger.Warn().
			Err(rerr).
			Str("op", op).
			Msg("refresh after write failed, using write response")
		s.mu.Lock()
		s.tasks = settle(clone(s.tasks), result)
		s.mu.Unlock()
		s.notify()
	}

	s.logger.Debug().
		Str("op", op).
		Str("task_id", result.ID).
		Msg("write settled")
	return result, nil
}

func (s *Store) replace(tasks []service.Task) {
	s.mu.Lock()
	s.tasks = clone(tasks)
	s.loaded = true
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.mu.RLock()
	subs := make([]func([]service.Task), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	tasks := s.tasks
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(clone(tasks))
	}
}

func (s *Store) handleAuth(err error) {
	if s.onUnauthorized != nil && service.IsAuth(err) {
		s.onUnauthorized(err)
	}
}

func clone(tasks []service.Task) []service.Task {
	out := make([]service.Task, len(tasks))
	copy(out, tasks)
	return out
}

func indexOf(tasks []service.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func replaceTask(tasks []service.Task, id string, t service.Task) []service.Task {
	if i := indexOf(tasks, id); i >= 0 {
		tasks[i] = t
		return tasks
	}
	if indexOf(tasks, t.ID) >= 0 {
		return tasks
	}
	return append(tasks, t)
}

func removeTask(tasks []service.Task, id string) []service.Task {
	i := indexOf(tasks, id)
	if i < 0 {
		return tasks
	}
	return append(tasks[:i], tasks[i+1:]...)
}
