package resource

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps resources in a map. Used by tests and by the
// single-process demo wiring; production runs on PgRepository.
type MemoryRepository struct {
	mu        sync.RWMutex
	resources map[uuid.UUID]*Resource
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{resources: make(map[uuid.UUID]*Resource)}
}

func (r *MemoryRepository) Create(_ context.Context, res *Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := cloneResource(res)
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.resources[cp.ID] = cp
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.resources[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneResource(res), nil
}

func (r *MemoryRepository) List(_ context.Context) ([]Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Resource, 0, len(r.resources))
	for _, res := range r.resources {
		out = append(out, *cloneResource(res))
	}
	return out, nil
}

func (r *MemoryRepository) UpdateDay(_ context.Context, id uuid.UUID, date string, day DaySchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.resources[id]
	if !ok {
		return ErrNotFound
	}
	if res.Availability == nil {
		res.Availability = Availability{}
	}
	cp := make(DaySchedule, len(day))
	copy(cp, day)
	res.Availability[date] = cp
	res.UpdatedAt = time.Now()
	return nil
}

func cloneResource(res *Resource) *Resource {
	cp := *res
	cp.Availability = make(Availability, len(res.Availability))
	for date, day := range res.Availability {
		d := make(DaySchedule, len(day))
		copy(d, day)
		cp.Availability[date] = d
	}
	if res.Specialty != nil {
		s := *res.Specialty
		cp.Specialty = &s
	}
	return &cp
}
