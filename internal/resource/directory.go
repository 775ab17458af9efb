package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Directory is the single writer for resource availability. Callers that need
// atomic check-then-reserve across several resources (the slot assigner) hold
// the resource locks around these calls; the directory itself only guarantees
// a consistent interval list per (resource, date).
type Directory struct {
	repo Repository
	log  zerolog.Logger
}

func NewDirectory(repo Repository, log zerolog.Logger) *Directory {
	return &Directory{repo: repo, log: log.With().Str("component", "resource_directory").Logger()}
}

func (d *Directory) Create(ctx context.Context, res *Resource) error {
	if !res.Type.Valid() {
		return fmt.Errorf("invalid resource type %q", res.Type)
	}
	if res.Name == "" {
		return errors.New("name is required")
	}
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if res.Availability == nil {
		res.Availability = Availability{}
	}
	for date, day := range res.Availability {
		if !ValidDate(date) {
			return fmt.Errorf("invalid availability date %q", date)
		}
		if err := day.Validate(); err != nil {
			return fmt.Errorf("availability for %s: %w", date, err)
		}
	}
	return d.repo.Create(ctx, res)
}

func (d *Directory) Get(ctx context.Context, id uuid.UUID) (*Resource, error) {
	res, err := d.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &UnknownResourceError{ID: id}
		}
		return nil, fmt.Errorf("load resource: %w", err)
	}
	return res, nil
}

func (d *Directory) List(ctx context.Context) ([]Resource, error) {
	return d.repo.List(ctx)
}

// GetAvailability returns the ordered interval list for one date. A date with
// nothing modeled returns an empty list.
func (d *Directory) GetAvailability(ctx context.Context, id uuid.UUID, date string) (DaySchedule, error) {
	if !ValidDate(date) {
		return nil, fmt.Errorf("invalid date %q", date)
	}
	res, err := d.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	day := res.Availability[date]
	if day == nil {
		day = DaySchedule{}
	}
	return day, nil
}

// SetAvailability replaces one date's interval list. Administrative use only;
// bookings go through Reserve.
func (d *Directory) SetAvailability(ctx context.Context, id uuid.UUID, date string, day DaySchedule) error {
	if !ValidDate(date) {
		return fmt.Errorf("invalid date %q", date)
	}
	sorted := day.normalize()
	if err := sorted.Validate(); err != nil {
		return err
	}
	if _, err := d.Get(ctx, id); err != nil {
		return err
	}
	return d.repo.UpdateDay(ctx, id, date, sorted)
}

// Reserve marks [start, end) busy for the resource on the given date. It
// fails with AlreadyReservedError when any part of the span is busy,
// unavailable, or not modeled as available time.
func (d *Directory) Reserve(ctx context.Context, id uuid.UUID, date string, start, end TimeOfDay) error {
	if end <= start {
		return &InvalidIntervalError{Start: start, End: end}
	}
	if !ValidDate(date) {
		return fmt.Errorf("invalid date %q", date)
	}

	res, err := d.Get(ctx, id)
	if err != nil {
		return err
	}

	day, err := res.Availability[date].reserve(start, end)
	if err != nil {
		if errors.Is(err, errSpanNotOpen) {
			return &AlreadyReservedError{ResourceID: id, Date: date, Start: start, End: end}
		}
		return err
	}

	return d.repo.UpdateDay(ctx, id, date, day)
}

// Release flips the busy portions of [start, end) back to available. Safe to
// call for a span that was never reserved; the stored intervals are
// normalized so no overlapping fragments can appear.
func (d *Directory) Release(ctx context.Context, id uuid.UUID, date string, start, end TimeOfDay) error {
	if end <= start {
		return &InvalidIntervalError{Start: start, End: end}
	}
	if !ValidDate(date) {
		return fmt.Errorf("invalid date %q", date)
	}

	res, err := d.Get(ctx, id)
	if err != nil {
		return err
	}

	day := res.Availability[date].release(start, end)
	if err := d.repo.UpdateDay(ctx, id, date, day); err != nil {
		return fmt.Errorf("persist release: %w", err)
	}
	return nil
}
