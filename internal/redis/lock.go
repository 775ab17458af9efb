package redisclient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("resource lock not acquired")
)

type ResourceLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResourceLocker creates a locker that holds one Redis key per OT resource.
// Keys are always acquired in sorted id order so two assigners reserving
// overlapping resource sets cannot deadlock each other.
func NewResourceLocker(client *redis.Client, ttl time.Duration) *ResourceLocker {
	return &ResourceLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *ResourceLocker) WithResourceLocks(ctx context.Context, ids []uuid.UUID, fn func(ctx context.Context) error) error {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	token := uuid.NewString()
	var held []string

	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			_ = l.release(ctx, held[i], token)
		}
	}

	for _, id := range sorted {
		key := fmt.Sprintf("lock:resource:%s", id.String())

		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			releaseAll()
			return fmt.Errorf("acquire resource lock %s: %w", id, err)
		}
		if !ok {
			releaseAll()
			return ErrLockNotAcquired
		}
		held = append(held, key)
	}

	defer releaseAll()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *ResourceLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release resource lock: %w", err)
	}
	return nil
}
