package resource

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeRoom      Type = "ot-room"
	TypeSurgeon   Type = "surgeon"
	TypeEquipment Type = "equipment"
)

func (t Type) Valid() bool {
	switch t {
	case TypeRoom, TypeSurgeon, TypeEquipment:
		return true
	}
	return false
}

type IntervalStatus string

const (
	IntervalAvailable   IntervalStatus = "available"
	IntervalBusy        IntervalStatus = "busy"
	IntervalUnavailable IntervalStatus = "unavailable"
)

func (s IntervalStatus) Valid() bool {
	switch s {
	case IntervalAvailable, IntervalBusy, IntervalUnavailable:
		return true
	}
	return false
}

// DateLayout is the calendar-date key format used throughout availability maps.
const DateLayout = "2006-01-02"

func ValidDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

// TimeOfDay is minutes since midnight. It marshals as "HH:MM".
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	// "24:00" is a legal exclusive end for an interval running to midnight.
	if h == 24 && m != 0 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Interval is a half-open [Start, End) span of one calendar day.
type Interval struct {
	Start  TimeOfDay      `json:"start"`
	End    TimeOfDay      `json:"end"`
	Status IntervalStatus `json:"status"`
}

// Overlaps reports whether the interval intersects [start, end).
// Touching endpoints do not overlap, so back-to-back bookings are legal.
func (iv Interval) Overlaps(start, end TimeOfDay) bool {
	return iv.Start < end && start < iv.End
}

// DaySchedule is the ordered, non-overlapping interval list for one
// (resource, date). Gaps between intervals are not modeled time, not free time.
type DaySchedule []Interval

// Validate checks ordering, non-overlap, and well-formed intervals. Used when
// a schedule arrives from outside (admin configuration, stored JSON).
func (d DaySchedule) Validate() error {
	for i, iv := range d {
		if iv.End <= iv.Start {
			return &InvalidIntervalError{Start: iv.Start, End: iv.End}
		}
		if !iv.Status.Valid() {
			return fmt.Errorf("invalid interval status %q", iv.Status)
		}
		if i > 0 && iv.Start < d[i-1].End {
			return fmt.Errorf("intervals overlap at %s", iv.Start)
		}
	}
	return nil
}

// Availability maps calendar date -> that day's interval list.
type Availability map[string]DaySchedule

// Resource is an allocatable OT entity: a theatre room, a surgeon, or a piece
// of equipment. Specialty is only meaningful for surgeons.
type Resource struct {
	ID           uuid.UUID
	Type         Type
	Name         string
	Specialty    *string
	Availability Availability
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
