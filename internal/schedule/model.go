package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medops/ot-scheduling/internal/resource"
)

type SlotStatus string

const (
	// SlotBooked covers the owning request's scheduled and in-progress states.
	SlotBooked SlotStatus = "booked"
	// SlotReleased marks a booking given back by cancellation or postponement.
	SlotReleased SlotStatus = "released"
	// SlotCompleted closes a booking whose surgery finished; its intervals
	// stay busy as history.
	SlotCompleted SlotStatus = "completed"
)

// Slot is one committed reservation binding a surgery request to a room and
// time window. Slots are owned by the assigner; nothing else writes them.
type Slot struct {
	ID               uuid.UUID
	Date             string
	Start            resource.TimeOfDay
	End              resource.TimeOfDay
	RoomID           uuid.UUID
	SurgeryRequestID uuid.UUID
	ResourceIDs      []uuid.UUID
	Status           SlotStatus
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

var (
	ErrSlotNotFound = errors.New("slot not found")

	// ErrRequestAlreadyBooked rejects an assign for a request that already
	// holds a different active slot. Reschedules go through postponed.
	ErrRequestAlreadyBooked = errors.New("request already holds an active slot")
)

// ConflictError names the first resource whose reservation failed. By the
// time a caller sees it, every reservation made in the same assign call has
// been rolled back.
type ConflictError struct {
	ResourceID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("resource %s conflicts with an existing reservation", e.ResourceID)
}
