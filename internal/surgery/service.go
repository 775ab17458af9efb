package surgery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medops/ot-scheduling/internal/notify"
	"github.com/medops/ot-scheduling/internal/resource"
)

var (
	ErrPayloadRequired = errors.New("schedule payload required for transition to scheduled")
	ErrInvalidStatus   = errors.New("unknown target status")
)

// SchedulePayload is what a coordinator submits when moving a request into
// scheduled: the concrete slot plus the resources to hold.
type SchedulePayload struct {
	Date          string
	Start         resource.TimeOfDay
	End           resource.TimeOfDay
	RoomID        uuid.UUID
	SurgeonIDs    []uuid.UUID
	EquipmentIDs  []uuid.UUID
	ConsentSigned bool
}

// ResourceIDs returns surgeons then equipment as one list.
func (p SchedulePayload) ResourceIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(p.SurgeonIDs)+len(p.EquipmentIDs))
	out = append(out, p.SurgeonIDs...)
	out = append(out, p.EquipmentIDs...)
	return out
}

// Assigner is the slot-assignment boundary the lifecycle controller drives.
// It owns OTSlot records and is the only writer of resource availability.
type Assigner interface {
	// Assign reserves the room and resources and creates the slot record.
	// All-or-nothing: on conflict nothing is held afterwards.
	Assign(ctx context.Context, req *Request, p SchedulePayload) error

	// Release frees the request's active slot and its reservations.
	// Unconditional and idempotent; never fails with a conflict.
	Release(ctx context.Context, requestID uuid.UUID) error

	// Finish closes the slot record for a completed surgery without touching
	// the booked intervals, which stay busy as history.
	Finish(ctx context.Context, requestID uuid.UUID) error
}

type CreateInput struct {
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	SurgeryType string
	Urgency     Urgency
	Diagnosis   string
	Notes       string
}

// Service is the lifecycle controller: it enforces the transition table and
// drives the assigner on the way into and out of scheduled states.
type Service struct {
	repo     Repository
	assigner Assigner
	emitter  notify.Emitter
	log      zerolog.Logger
}

func NewService(repo Repository, assigner Assigner, emitter notify.Emitter, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		assigner: assigner,
		emitter:  emitter,
		log:      log.With().Str("component", "lifecycle").Logger(),
	}
}

func (s *Service) CreateRequest(ctx context.Context, in CreateInput) (*Request, error) {
	if in.PatientID == uuid.Nil {
		return nil, errors.New("patient_id is required")
	}
	if in.DoctorID == uuid.Nil {
		return nil, errors.New("requesting_doctor_id is required")
	}
	if in.SurgeryType == "" {
		return nil, errors.New("surgery_type is required")
	}
	if in.Urgency == "" {
		in.Urgency = UrgencyRoutine
	}
	if !in.Urgency.Valid() {
		return nil, fmt.Errorf("invalid urgency %q", in.Urgency)
	}

	req := &Request{
		ID:          uuid.New(),
		PatientID:   in.PatientID,
		DoctorID:    in.DoctorID,
		SurgeryType: in.SurgeryType,
		Urgency:     in.Urgency,
		Diagnosis:   in.Diagnosis,
		Notes:       in.Notes,
		RequestedAt: time.Now(),
		Status:      StatusPending,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create surgery request: %w", err)
	}

	s.emit(ctx, req, notify.EventRequestCreated,
		fmt.Sprintf("surgery request %s created (%s, %s)", req.ID, req.SurgeryType, req.Urgency))

	return req, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Request, error) {
	return s.repo.List(ctx, f)
}

// Candidates lists pending and reviewed requests in scheduling priority
// order: emergency before urgent before routine, first-come-first-served
// inside one urgency. The listing never auto-picks; a coordinator does.
func (s *Service) Candidates(ctx context.Context) ([]Request, error) {
	return s.repo.ListCandidates(ctx)
}

// Transition moves a request to target, enforcing the lifecycle table.
// Moving into scheduled requires the assigner to commit the slot first;
// leaving scheduled or in-progress releases the slot unconditionally.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, target Status, payload *SchedulePayload) (*Request, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}

	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(req.Status, target) {
		return nil, &InvalidTransitionError{From: req.Status, To: target}
	}

	var updated *Request

	switch target {
	case StatusScheduled:
		if payload == nil {
			return nil, ErrPayloadRequired
		}
		if err := s.assigner.Assign(ctx, req, *payload); err != nil {
			return nil, err
		}
		sch := Schedule{
			Date:          payload.Date,
			Start:         payload.Start,
			End:           payload.End,
			RoomID:        payload.RoomID,
			ResourceIDs:   payload.ResourceIDs(),
			ConsentSigned: payload.ConsentSigned,
		}
		updated, err = s.repo.SetSchedule(ctx, id, req.Status, sch)
		if err != nil {
			// The status moved under us; give the reservation back so no slot
			// is held by a request that never reached scheduled.
			if relErr := s.assigner.Release(ctx, id); relErr != nil {
				s.log.Error().Err(relErr).Str("request_id", id.String()).
					Msg("rollback release after failed schedule commit")
			}
			return nil, err
		}

	case StatusCancelled, StatusPostponed:
		if req.Status == StatusScheduled || req.Status == StatusInProgress {
			if err := s.assigner.Release(ctx, id); err != nil {
				return nil, fmt.Errorf("release slot: %w", err)
			}
			updated, err = s.repo.ClearSchedule(ctx, id, req.Status, target)
		} else {
			updated, err = s.repo.UpdateStatus(ctx, id, req.Status, target)
		}
		if err != nil {
			return nil, err
		}

	case StatusCompleted:
		if err := s.assigner.Finish(ctx, id); err != nil {
			return nil, fmt.Errorf("finish slot: %w", err)
		}
		updated, err = s.repo.UpdateStatus(ctx, id, req.Status, target)
		if err != nil {
			return nil, err
		}

	default: // reviewed, in-progress
		updated, err = s.repo.UpdateStatus(ctx, id, req.Status, target)
		if err != nil {
			return nil, err
		}
	}

	s.emit(ctx, updated, eventFor(target),
		fmt.Sprintf("surgery request %s is now %s", updated.ID, updated.Status))

	return updated, nil
}

func eventFor(target Status) string {
	switch target {
	case StatusReviewed:
		return notify.EventRequestReviewed
	case StatusScheduled:
		return notify.EventSurgeryScheduled
	case StatusInProgress:
		return notify.EventSurgeryStarted
	case StatusCompleted:
		return notify.EventSurgeryCompleted
	case StatusCancelled:
		return notify.EventSurgeryCancelled
	case StatusPostponed:
		return notify.EventSurgeryPostponed
	}
	return "SURGERY_REQUEST_UPDATED"
}

// emit enqueues a notification for the requesting doctor. Failures are
// logged, never propagated: delivery sits outside the transactional boundary.
func (s *Service) emit(ctx context.Context, req *Request, eventType, message string) {
	if err := s.emitter.Notify(ctx, []uuid.UUID{req.DoctorID}, eventType, message); err != nil {
		s.log.Warn().Err(err).
			Str("request_id", req.ID.String()).
			Str("event_type", eventType).
			Msg("notification enqueue failed")
	}
}
