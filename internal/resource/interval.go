package resource

import (
	"errors"
	"sort"
)

// errSpanNotOpen is internal to the availability model. The Directory
// translates it into AlreadyReservedError with the offending resource id.
var errSpanNotOpen = errors.New("span is not open for booking")

// reserve marks [start, end) busy. The span must be fully covered by
// available intervals: overlap with busy or unavailable time fails, and so
// does unmodeled time, since a gap is not bookable.
func (d DaySchedule) reserve(start, end TimeOfDay) (DaySchedule, error) {
	for _, iv := range d {
		if iv.Status != IntervalAvailable && iv.Overlaps(start, end) {
			return nil, errSpanNotOpen
		}
	}

	cursor := start
	for _, iv := range d {
		if iv.Status != IntervalAvailable || iv.End <= cursor {
			continue
		}
		if iv.Start > cursor {
			break
		}
		cursor = iv.End
		if cursor >= end {
			break
		}
	}
	if cursor < end {
		return nil, errSpanNotOpen
	}

	out := make(DaySchedule, 0, len(d)+2)
	for _, iv := range d {
		if !iv.Overlaps(start, end) {
			out = append(out, iv)
			continue
		}
		// Only available intervals can reach here; keep the trimmed edges.
		if iv.Start < start {
			out = append(out, Interval{Start: iv.Start, End: start, Status: IntervalAvailable})
		}
		if iv.End > end {
			out = append(out, Interval{Start: end, End: iv.End, Status: IntervalAvailable})
		}
	}
	out = append(out, Interval{Start: start, End: end, Status: IntervalBusy})

	return out.normalize(), nil
}

// release flips the busy portions of [start, end) back to available.
// Unavailable intervals and unmodeled gaps are left alone, and releasing a
// span that holds no busy time is a no-op, which makes release idempotent.
func (d DaySchedule) release(start, end TimeOfDay) DaySchedule {
	out := make(DaySchedule, 0, len(d)+2)
	for _, iv := range d {
		if iv.Status != IntervalBusy || !iv.Overlaps(start, end) {
			out = append(out, iv)
			continue
		}
		if iv.Start < start {
			out = append(out, Interval{Start: iv.Start, End: start, Status: IntervalBusy})
		}
		lo, hi := maxTime(iv.Start, start), minTime(iv.End, end)
		out = append(out, Interval{Start: lo, End: hi, Status: IntervalAvailable})
		if iv.End > end {
			out = append(out, Interval{Start: end, End: iv.End, Status: IntervalBusy})
		}
	}
	return out.normalize()
}

// normalize sorts by start and merges touching intervals of equal status so
// repeated reserve/release cycles never accumulate fragments.
func (d DaySchedule) normalize() DaySchedule {
	sort.Slice(d, func(i, j int) bool { return d[i].Start < d[j].Start })

	out := make(DaySchedule, 0, len(d))
	for _, iv := range d {
		if n := len(out); n > 0 && out[n-1].Status == iv.Status && out[n-1].End == iv.Start {
			out[n-1].End = iv.End
			continue
		}
		out = append(out, iv)
	}
	return out
}

func minTime(a, b TimeOfDay) TimeOfDay {
	if a < b {
		return a
	}
	return b
}

func maxTime(a, b TimeOfDay) TimeOfDay {
	if a > b {
		return a
	}
	return b
}
