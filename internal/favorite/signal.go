package favorite

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	goredis "github.com/redis/go-redis/v9"
)

// ChangeSignal is a process-wide counter bumped after every successful toggle.
// Readers compare versions to know when favorite lists are stale.
type ChangeSignal interface {
	Bump(ctx context.Context) (int64, error)
	Version(ctx context.Context) (int64, error)
}

// MemoryChangeSignal counts in process.
type MemoryChangeSignal struct {
	v atomic.Int64
}

func NewMemoryChangeSignal() *MemoryChangeSignal { return &MemoryChangeSignal{} }

func (s *MemoryChangeSignal) Bump(context.Context) (int64, error) { return s.v.Add(1), nil }

func (s *MemoryChangeSignal) Version(context.Context) (int64, error) { return s.v.Load(), nil }

// RedisChangeSignalKey holds the shared counter.
const RedisChangeSignalKey = "favorites:changed"

// RedisChangeSignal shares the counter between instances with INCR.
type RedisChangeSignal struct {
	client goredis.Cmdable
	key    string
}

func NewRedisChangeSignal(client goredis.Cmdable) *RedisChangeSignal {
	return &RedisChangeSignal{client: client, key: RedisChangeSignalKey}
}

func (s *RedisChangeSignal) Bump(ctx context.Context) (int64, error) {
	v, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("bump favorites counter: %w", err)
	}
	return v, nil
}

func (s *RedisChangeSignal) Version(ctx context.Context) (int64, error) {
	v, err := s.client.Get(ctx, s.key).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read favorites counter: %w", err)
	}
	return v, nil
}

// NewChangeSignal picks Redis when a client is configured.
func NewChangeSignal(client *goredis.Client) ChangeSignal {
	if client == nil {
		return NewMemoryChangeSignal()
	}
	return NewRedisChangeSignal(client)
}
