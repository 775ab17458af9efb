package surgery

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps requests in a map with the same compare-and-set
// semantics as PgRepository. Used by tests and single-process wiring.
type MemoryRepository struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*Request
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{requests: make(map[uuid.UUID]*Request)}
}

func (r *MemoryRepository) Create(_ context.Context, req *Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := cloneRequest(req)
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.requests[cp.ID] = cp
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	return cloneRequest(req), nil
}

func (r *MemoryRepository) List(_ context.Context, f ListFilter) ([]Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Request
	for _, req := range r.requests {
		if f.Status != nil && req.Status != *f.Status {
			continue
		}
		if f.Urgency != nil && req.Urgency != *f.Urgency {
			continue
		}
		out = append(out, *cloneRequest(req))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	return paginate(out, f.Limit, f.Offset), nil
}

func (r *MemoryRepository) ListCandidates(_ context.Context) ([]Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Request
	for _, req := range r.requests {
		if req.Status == StatusPending || req.Status == StatusReviewed {
			out = append(out, *cloneRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if ri, rj := out[i].Urgency.Rank(), out[j].Urgency.Rank(); ri != rj {
			return ri < rj
		}
		return out[i].RequestedAt.Before(out[j].RequestedAt)
	})
	return out, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok || req.Status != from {
		return nil, ErrStatusChanged
	}
	req.Status = to
	req.UpdatedAt = time.Now()
	return cloneRequest(req), nil
}

func (r *MemoryRepository) SetSchedule(_ context.Context, id uuid.UUID, from Status, sch Schedule) (*Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok || req.Status != from {
		return nil, ErrStatusChanged
	}
	cp := sch
	cp.ResourceIDs = append([]uuid.UUID(nil), sch.ResourceIDs...)
	req.Status = StatusScheduled
	req.Schedule = &cp
	req.UpdatedAt = time.Now()
	return cloneRequest(req), nil
}

func (r *MemoryRepository) ClearSchedule(_ context.Context, id uuid.UUID, from, to Status) (*Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok || req.Status != from {
		return nil, ErrStatusChanged
	}
	req.Status = to
	req.Schedule = nil
	req.UpdatedAt = time.Now()
	return cloneRequest(req), nil
}

func (r *MemoryRepository) CountByStatus(_ context.Context) (map[Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[Status]int)
	for _, req := range r.requests {
		counts[req.Status]++
	}
	return counts, nil
}

func (r *MemoryRepository) CountByUrgency(_ context.Context) (map[Urgency]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[Urgency]int)
	for _, req := range r.requests {
		counts[req.Urgency]++
	}
	return counts, nil
}

func paginate(in []Request, limit, offset int) []Request {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

func cloneRequest(req *Request) *Request {
	cp := *req
	if req.Schedule != nil {
		sch := *req.Schedule
		sch.ResourceIDs = append([]uuid.UUID(nil), req.Schedule.ResourceIDs...)
		cp.Schedule = &sch
	}
	return &cp
}
