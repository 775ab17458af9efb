package surgery

import (
	"time"

	"github.com/google/uuid"

	"github.com/medops/ot-scheduling/internal/resource"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusReviewed   Status = "reviewed"
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusPostponed  Status = "postponed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusScheduled, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusPostponed:
		return true
	}
	return false
}

// Terminal statuses have no outgoing transitions. Requests in them are kept
// for reporting, never deleted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Urgency string

const (
	UrgencyRoutine   Urgency = "routine"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyRoutine, UrgencyUrgent, UrgencyEmergency:
		return true
	}
	return false
}

// Rank orders urgencies for the candidate listing; lower sorts first.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyEmergency:
		return 0
	case UrgencyUrgent:
		return 1
	default:
		return 2
	}
}

// Schedule carries the attributes a request gains when it is assigned a slot.
type Schedule struct {
	Date          string             `json:"date"`
	Start         resource.TimeOfDay `json:"start"`
	End           resource.TimeOfDay `json:"end"`
	RoomID        uuid.UUID          `json:"room_id"`
	ResourceIDs   []uuid.UUID        `json:"resource_ids"`
	ConsentSigned bool               `json:"consent_signed"`
}

// Request is a surgery request moving through the coordination lifecycle.
// Schedule is non-nil exactly while Status is scheduled, in-progress, or
// completed.
type Request struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	SurgeryType string
	Urgency     Urgency
	Diagnosis   string
	Notes       string
	RequestedAt time.Time
	Status      Status
	Schedule    *Schedule
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
