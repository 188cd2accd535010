// Package cache keeps each owner's task list in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"todo/internal/server/tasks"
	"todo/internal/service"
)

const keyPrefix = "todo:tasks:"

// TaskCache caches list results per owner and version with a fixed TTL.
// The version key itself has no TTL.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns a TaskCache.
func New(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

// Connect creates a client for opts and pings it.
func Connect(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Key returns the list key for ownerID at version.
func Key(ownerID string, version int64) string {
	return keyPrefix + ownerID + ":" + strconv.FormatInt(version, 10)
}

// VersionKey returns the key holding ownerID's current list version.
func VersionKey(ownerID string) string {
	return keyPrefix + ownerID + ":version"
}

// Version returns ownerID's current list version, 0 if none was recorded.
func (c *TaskCache) Version(ctx context.Context, ownerID string) (int64, error) {
	v, err := c.rdb.Get(ctx, VersionKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *TaskCache) Get(ctx context.Context, ownerID string, version int64) ([]service.Task, bool, error) {
	b, err := c.rdb.Get(ctx, Key(ownerID, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var list []service.Task
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, false, err
	}
	if list == nil {
		list = []service.Task{}
	}
	return list, true, nil
}

func (c *TaskCache) Set(ctx context.Context, ownerID string, version int64, list []service.Task) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, Key(ownerID, version), b, c.ttl).Err()
}

// Invalidate moves ownerID to the next version. Lists stored under older
// versions are never read again and expire with the TTL.
func (c *TaskCache) Invalidate(ctx context.Context, ownerID string) error {
	return c.rdb.Incr(ctx, VersionKey(ownerID)).Err()
}

var _ tasks.Cache = (*TaskCache)(nil)
