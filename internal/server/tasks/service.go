// Package tasks implements the server side of the task API: title
// validation, per-owner scoping and the optional list cache.
package tasks

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"todo/internal/service"
)

// ErrNotFound is returned by repositories when no task matches the owner
// and id.
var ErrNotFound = errors.New("task not found")

// MsgNotFound is the message sent to clients for a missing task.
const MsgNotFound = "Task not found"

// Repository stores tasks. Every read and write is scoped to an owner.
type Repository interface {
	// List returns the owner's tasks ordered by creation time.
	List(ctx context.Context, ownerID string) ([]service.Task, error)
	Create(ctx context.Context, t service.Task) (service.Task, error)
	Get(ctx context.Context, ownerID, id string) (service.Task, error)
	Update(ctx context.Context, t service.Task) (service.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Cache holds list results per owner and version. Invalidate moves the
// owner to a new version, so a list read before a write and stored after it
// lands under a version nobody reads. A miss is (nil, false, nil).
type Cache interface {
	Version(ctx context.Context, ownerID string) (int64, error)
	Get(ctx context.Context, ownerID string, version int64) ([]service.Task, bool, error)
	Set(ctx context.Context, ownerID string, version int64, tasks []service.Task) error
	Invalidate(ctx context.Context, ownerID string) error
}

// Service implements the task operations behind the HTTP handlers.
type Service struct {
	repo   Repository
	cache  Cache
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
	sf     singleflight.Group

	mu   sync.Mutex
	gens map[string]uint64 // bumped after every write, per owner
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables list caching.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the UUID generator for new task ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService creates a Service over repo.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: zerolog.Nop(),
		now:    time.Now,
		newID:  uuid.NewString,
		gens:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the owner's tasks. Concurrent calls for the same owner
// share one repository read unless a write completed in between.
func (s *Service) List(ctx context.Context, ownerID string) ([]service.Task, error) {
	key := ownerID + "#" + strconv.FormatUint(s.generation(ownerID), 10)
	v, err, _ := s.sf.Do(key, func() (any, error) {
		return s.list(ctx, ownerID)
	})
	if err != nil {
		return nil, s.wrap(err)
	}

	// Callers sharing the result must not share the slice.
	tasks := v.([]service.Task)
	out := make([]service.Task, len(tasks))
	copy(out, tasks)
	return out, nil
}

func (s *Service) list(ctx context.Context, ownerID string) ([]service.Task, error) {
	// Read the version before the repository: a write landing during the
	// read moves the owner on, and the Set below goes to a dead version.
	version, cached := int64(0), s.cache != nil
	if cached {
		var err error
		version, err = s.cache.Version(ctx, ownerID)
		if err != nil {
			s.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("cache version read failed")
			cached = false
		}
	}
	if cached {
		tasks, ok, err := s.cache.Get(ctx, ownerID, version)
		if err != nil {
			s.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("cache read failed")
		} else if ok {
			return tasks, nil
		}
	}

	tasks, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	if cached {
		if err := s.cache.Set(ctx, ownerID, version, tasks); err != nil {
			s.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("cache write failed")
		}
	}
	return tasks, nil
}

// Create validates title and stores a new incomplete task.
func (s *Service) Create(ctx context.Context, ownerID, title string) (service.Task, error) {
	if err := service.ValidateTitle(title); err != nil {
		return service.Task{}, err
	}

	now := s.now().UTC()
	t, err := s.repo.Create(ctx, service.Task{
		ID:        s.newID(),
		Title:     strings.TrimSpace(title),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return service.Task{}, s.wrap(err)
	}
	s.invalidate(ctx, ownerID)

	s.logger.Debug().Str("owner_id", ownerID).Str("task_id", t.ID).Msg("task created")
	return t, nil
}

// Update applies patch to the owner's task.
func (s *Service) Update(ctx context.Context, ownerID, id string, patch service.Patch) (service.Task, error) {
	if err := patch.Validate(); err != nil {
		return service.Task{}, err
	}

	existing, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return service.Task{}, s.wrap(err)
	}

	updated := patch.Apply(existing)
	updated.UpdatedAt = s.now().UTC()
	t, err := s.repo.Update(ctx, updated)
	if err != nil {
		return service.Task{}, s.wrap(err)
	}
	s.invalidate(ctx, ownerID)

	s.logger.Debug().Str("owner_id", ownerID).Str("task_id", t.ID).Msg("task updated")
	return t, nil
}

// Delete removes the owner's task.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return s.wrap(err)
	}
	s.invalidate(ctx, ownerID)

	s.logger.Debug().Str("owner_id", ownerID).Str("task_id", id).Msg("task deleted")
	return nil
}

func (s *Service) generation(ownerID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[ownerID]
}

// invalidate runs after every committed write, before the response.
func (s *Service) invalidate(ctx context.Context, ownerID string) {
	s.mu.Lock()
	s.gens[ownerID]++
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("cache invalidation failed")
	}
}

// wrap converts repository errors to *service.Error.
func (s *Service) wrap(err error) error {
	var se *service.Error
	switch {
	case errors.As(err, &se):
		return se
	case errors.Is(err, ErrNotFound):
		return service.NewNotFoundError(MsgNotFound)
	default:
		s.logger.Error().Err(err).Msg("storage error")
		return service.NewServerError("storage error", err)
	}
}
