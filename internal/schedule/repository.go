package schedule

import (
	"context"

	"github.com/google/uuid"
)

// Repository contains the DB interactions needed by the assigner.
type Repository interface {
	Create(ctx context.Context, slot *Slot) error

	// GetActiveByRequest returns the request's booked slot, if any.
	GetActiveByRequest(ctx context.Context, requestID uuid.UUID) (*Slot, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, to SlotStatus) error

	// ListByDate returns slots for one date, optionally restricted to a room.
	ListByDate(ctx context.Context, date string, roomID *uuid.UUID) ([]Slot, error)
}
