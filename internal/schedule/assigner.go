package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medops/ot-scheduling/internal/notify"
	"github.com/medops/ot-scheduling/internal/resource"
	"github.com/medops/ot-scheduling/internal/surgery"
)

// Assigner is the conflict detector and slot assigner. It is the single
// writer path for resource availability: reservations happen room-first then
// resources sorted by id, under the resource locks, and a failed reservation
// rolls back every earlier one in the same call.
type Assigner struct {
	dir     *resource.Directory
	slots   Repository
	locker  Locker
	emitter notify.Emitter
	log     zerolog.Logger
}

func NewAssigner(dir *resource.Directory, slots Repository, locker Locker, emitter notify.Emitter, log zerolog.Logger) *Assigner {
	return &Assigner{
		dir:     dir,
		slots:   slots,
		locker:  locker,
		emitter: emitter,
		log:     log.With().Str("component", "slot_assigner").Logger(),
	}
}

// Assign reserves the room and every resource in the payload for the
// requested window and commits a slot record. All-or-nothing: a conflict
// leaves availability exactly as it was. Re-assigning a request to the slot
// it already holds is a no-op success.
func (a *Assigner) Assign(ctx context.Context, req *surgery.Request, p surgery.SchedulePayload) error {
	if p.End <= p.Start {
		return &resource.InvalidIntervalError{Start: p.Start, End: p.End}
	}
	if !resource.ValidDate(p.Date) {
		return fmt.Errorf("invalid date %q", p.Date)
	}
	if p.RoomID == uuid.Nil {
		return errors.New("room_id is required")
	}
	if len(p.SurgeonIDs) == 0 {
		return errors.New("at least one surgeon is required")
	}

	existing, err := a.slots.GetActiveByRequest(ctx, req.ID)
	if err != nil && !errors.Is(err, ErrSlotNotFound) {
		return fmt.Errorf("check active slot: %w", err)
	}
	if existing != nil {
		if existing.Date == p.Date && existing.Start == p.Start &&
			existing.End == p.End && existing.RoomID == p.RoomID {
			return nil
		}
		return ErrRequestAlreadyBooked
	}

	if err := a.validateResources(ctx, p); err != nil {
		return err
	}

	// Room first, then resources sorted by id. The fixed order keeps the
	// reserve sequence deterministic across competing assign calls.
	rest := dedupe(p.ResourceIDs())
	rest = without(rest, p.RoomID)
	sort.Slice(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })
	order := append([]uuid.UUID{p.RoomID}, rest...)

	err = a.locker.WithResourceLocks(ctx, dedupe(order), func(ctx context.Context) error {
		var reserved []uuid.UUID
		rollback := func() {
			for i := len(reserved) - 1; i >= 0; i-- {
				if relErr := a.dir.Release(ctx, reserved[i], p.Date, p.Start, p.End); relErr != nil {
					a.log.Error().Err(relErr).
						Str("resource_id", reserved[i].String()).
						Msg("rollback release failed")
				}
			}
		}

		for _, id := range order {
			if err := a.dir.Reserve(ctx, id, p.Date, p.Start, p.End); err != nil {
				rollback()
				var already *resource.AlreadyReservedError
				if errors.As(err, &already) {
					return &ConflictError{ResourceID: id}
				}
				return err
			}
			reserved = append(reserved, id)
		}

		slot := &Slot{
			ID:               uuid.New(),
			Date:             p.Date,
			Start:            p.Start,
			End:              p.End,
			RoomID:           p.RoomID,
			SurgeryRequestID: req.ID,
			ResourceIDs:      rest,
			Status:           SlotBooked,
		}
		if err := a.slots.Create(ctx, slot); err != nil {
			rollback()
			return fmt.Errorf("create slot: %w", err)
		}
		return nil
	})

	var conflict *ConflictError
	if errors.As(err, &conflict) {
		a.notifyConflict(ctx, req, p, conflict)
		return err
	}
	return err
}

// Release frees the request's active slot: every reserved interval goes back
// to available and the slot is marked released. Idempotent, and a conflict
// can never fail it.
func (a *Assigner) Release(ctx context.Context, requestID uuid.UUID) error {
	slot, err := a.slots.GetActiveByRequest(ctx, requestID)
	if errors.Is(err, ErrSlotNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load active slot: %w", err)
	}

	ids := append([]uuid.UUID{slot.RoomID}, slot.ResourceIDs...)

	return a.locker.WithResourceLocks(ctx, dedupe(ids), func(ctx context.Context) error {
		for _, id := range ids {
			if err := a.dir.Release(ctx, id, slot.Date, slot.Start, slot.End); err != nil {
				// Keep going: a partially released booking is worse than a
				// noisy log line, and release is safe to repeat.
				a.log.Error().Err(err).
					Str("resource_id", id.String()).
					Str("slot_id", slot.ID.String()).
					Msg("release interval failed")
			}
		}
		return a.slots.UpdateStatus(ctx, slot.ID, SlotReleased)
	})
}

// Finish closes the slot of a completed surgery. The reserved intervals stay
// busy; the theatre time was genuinely used.
func (a *Assigner) Finish(ctx context.Context, requestID uuid.UUID) error {
	slot, err := a.slots.GetActiveByRequest(ctx, requestID)
	if errors.Is(err, ErrSlotNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load active slot: %w", err)
	}
	return a.slots.UpdateStatus(ctx, slot.ID, SlotCompleted)
}

// ListSlots returns committed bookings for a date, optionally per room.
func (a *Assigner) ListSlots(ctx context.Context, date string, roomID *uuid.UUID) ([]Slot, error) {
	if !resource.ValidDate(date) {
		return nil, fmt.Errorf("invalid date %q", date)
	}
	return a.slots.ListByDate(ctx, date, roomID)
}

func (a *Assigner) validateResources(ctx context.Context, p surgery.SchedulePayload) error {
	room, err := a.dir.Get(ctx, p.RoomID)
	if err != nil {
		return err
	}
	if room.Type != resource.TypeRoom {
		return fmt.Errorf("resource %s is %s, not an OT room", room.ID, room.Type)
	}

	for _, id := range p.SurgeonIDs {
		res, err := a.dir.Get(ctx, id)
		if err != nil {
			return err
		}
		if res.Type != resource.TypeSurgeon {
			return fmt.Errorf("resource %s is %s, not a surgeon", res.ID, res.Type)
		}
	}
	for _, id := range p.EquipmentIDs {
		res, err := a.dir.Get(ctx, id)
		if err != nil {
			return err
		}
		if res.Type != resource.TypeEquipment {
			return fmt.Errorf("resource %s is %s, not equipment", res.ID, res.Type)
		}
	}
	return nil
}

func (a *Assigner) notifyConflict(ctx context.Context, req *surgery.Request, p surgery.SchedulePayload, c *ConflictError) {
	msg := fmt.Sprintf("could not schedule request %s on %s [%s, %s): resource %s already reserved",
		req.ID, p.Date, p.Start, p.End, c.ResourceID)
	if err := a.emitter.Notify(ctx, []uuid.UUID{req.DoctorID}, notify.EventScheduleConflict, msg); err != nil {
		a.log.Warn().Err(err).Str("request_id", req.ID.String()).Msg("conflict notification failed")
	}
}

func without(ids []uuid.UUID, drop uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
