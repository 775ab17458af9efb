package schedule

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Locker guards the check-then-reserve sequence across the resources of one
// assignment. The redis implementation backs multi-node deployments; a
// LocalLocker is enough for a single process.
type Locker interface {
	WithResourceLocks(ctx context.Context, ids []uuid.UUID, fn func(ctx context.Context) error) error
}

// LocalLocker serializes assignments per resource with in-process mutexes.
// Locks are taken in sorted id order, matching the redis locker, so mixed
// resource sets cannot deadlock.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *LocalLocker) WithResourceLocks(ctx context.Context, ids []uuid.UUID, fn func(ctx context.Context) error) error {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	held := make([]*sync.Mutex, 0, len(sorted))
	for _, id := range sorted {
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}()

	return fn(ctx)
}

func (l *LocalLocker) get(id uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}
