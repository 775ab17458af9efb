package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps slots in a map. Used by tests and single-process
// wiring.
type MemoryRepository struct {
	mu    sync.RWMutex
	slots map[uuid.UUID]*Slot
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{slots: make(map[uuid.UUID]*Slot)}
}

func (r *MemoryRepository) Create(_ context.Context, slot *Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := cloneSlot(slot)
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.slots[cp.ID] = cp
	return nil
}

func (r *MemoryRepository) GetActiveByRequest(_ context.Context, requestID uuid.UUID) (*Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.slots {
		if s.SurgeryRequestID == requestID && s.Status == SlotBooked {
			return cloneSlot(s), nil
		}
	}
	return nil, ErrSlotNotFound
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, to SlotStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[id]
	if !ok {
		return ErrSlotNotFound
	}
	s.Status = to
	s.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) ListByDate(_ context.Context, date string, roomID *uuid.UUID) ([]Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Slot
	for _, s := range r.slots {
		if s.Date != date {
			continue
		}
		if roomID != nil && s.RoomID != *roomID {
			continue
		}
		out = append(out, *cloneSlot(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func cloneSlot(s *Slot) *Slot {
	cp := *s
	cp.ResourceIDs = append([]uuid.UUID(nil), s.ResourceIDs...)
	return &cp
}
