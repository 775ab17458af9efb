package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) TimeOfDay {
	t.Helper()
	v, err := ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func openDay(t *testing.T, start, end string) DaySchedule {
	t.Helper()
	return DaySchedule{
		{Start: mustTime(t, start), End: mustTime(t, end), Status: IntervalAvailable},
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: "23:59", want: 1439},
		{in: "24:00", want: 1440},
		{in: "24:01", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "9:75", wantErr: true},
		{in: "0900", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestReserveSplitsAvailableInterval(t *testing.T) {
	day := openDay(t, "08:00", "18:00")

	got, err := day.reserve(mustTime(t, "09:00"), mustTime(t, "11:00"))
	require.NoError(t, err)

	want := DaySchedule{
		{Start: mustTime(t, "08:00"), End: mustTime(t, "09:00"), Status: IntervalAvailable},
		{Start: mustTime(t, "09:00"), End: mustTime(t, "11:00"), Status: IntervalBusy},
		{Start: mustTime(t, "11:00"), End: mustTime(t, "18:00"), Status: IntervalAvailable},
	}
	assert.Equal(t, want, got)
}

func TestReserveRejectsOverlapWithBusy(t *testing.T) {
	day := openDay(t, "08:00", "18:00")
	day, err := day.reserve(mustTime(t, "09:00"), mustTime(t, "11:00"))
	require.NoError(t, err)

	// Any overlap with the busy block fails, even by one minute.
	_, err = day.reserve(mustTime(t, "10:59"), mustTime(t, "12:00"))
	assert.ErrorIs(t, err, errSpanNotOpen)

	_, err = day.reserve(mustTime(t, "08:00"), mustTime(t, "09:01"))
	assert.ErrorIs(t, err, errSpanNotOpen)
}

func TestReserveBackToBackIsLegal(t *testing.T) {
	day := openDay(t, "08:00", "18:00")
	day, err := day.reserve(mustTime(t, "09:00"), mustTime(t, "11:00"))
	require.NoError(t, err)

	// [11:00, 13:00) starts exactly where the busy block ends.
	got, err := day.reserve(mustTime(t, "11:00"), mustTime(t, "13:00"))
	require.NoError(t, err)

	// Touching busy blocks merge into one.
	want := DaySchedule{
		{Start: mustTime(t, "08:00"), End: mustTime(t, "09:00"), Status: IntervalAvailable},
		{Start: mustTime(t, "09:00"), End: mustTime(t, "13:00"), Status: IntervalBusy},
		{Start: mustTime(t, "13:00"), End: mustTime(t, "18:00"), Status: IntervalAvailable},
	}
	assert.Equal(t, want, got)
}

func TestReserveRejectsUnmodeledTime(t *testing.T) {
	day := openDay(t, "08:00", "12:00")

	// Runs past the end of the modeled day.
	_, err := day.reserve(mustTime(t, "11:00"), mustTime(t, "13:00"))
	assert.ErrorIs(t, err, errSpanNotOpen)

	// Entirely outside.
	_, err = day.reserve(mustTime(t, "14:00"), mustTime(t, "15:00"))
	assert.ErrorIs(t, err, errSpanNotOpen)

	// Empty day: nothing is bookable.
	_, err = DaySchedule{}.reserve(mustTime(t, "09:00"), mustTime(t, "10:00"))
	assert.ErrorIs(t, err, errSpanNotOpen)
}

func TestReserveRejectsGapBetweenAvailableBlocks(t *testing.T) {
	day := DaySchedule{
		{Start: mustTime(t, "08:00"), End: mustTime(t, "12:00"), Status: IntervalAvailable},
		{Start: mustTime(t, "13:00"), End: mustTime(t, "18:00"), Status: IntervalAvailable},
	}

	// The lunch gap is not open time.
	_, err := day.reserve(mustTime(t, "11:00"), mustTime(t, "14:00"))
	assert.ErrorIs(t, err, errSpanNotOpen)
}

func TestReserveRejectsUnavailableOverlap(t *testing.T) {
	day := DaySchedule{
		{Start: mustTime(t, "08:00"), End: mustTime(t, "12:00"), Status: IntervalAvailable},
		{Start: mustTime(t, "12:00"), End: mustTime(t, "13:00"), Status: IntervalUnavailable},
		{Start: mustTime(t, "13:00"), End: mustTime(t, "18:00"), Status: IntervalAvailable},
	}

	_, err := day.reserve(mustTime(t, "11:30"), mustTime(t, "12:30"))
	assert.ErrorIs(t, err, errSpanNotOpen)
}

func TestReleaseRestoresBusyPortionOnly(t *testing.T) {
	day := DaySchedule{
		{Start: mustTime(t, "08:00"), End: mustTime(t, "12:00"), Status: IntervalAvailable},
		{Start: mustTime(t, "12:00"), End: mustTime(t, "13:00"), Status: IntervalUnavailable},
	}
	day, err := day.reserve(mustTime(t, "09:00"), mustTime(t, "11:00"))
	require.NoError(t, err)

	// Release a wider span: only the busy part flips, unavailable stays.
	got := day.release(mustTime(t, "08:00"), mustTime(t, "13:00"))

	want := DaySchedule{
		{Start: mustTime(t, "08:00"), End: mustTime(t, "12:00"), Status: IntervalAvailable},
		{Start: mustTime(t, "12:00"), End: mustTime(t, "13:00"), Status: IntervalUnavailable},
	}
	assert.Equal(t, want, got)
}

func TestReleaseIsIdempotent(t *testing.T) {
	day := openDay(t, "08:00", "18:00")
	day, err := day.reserve(mustTime(t, "09:00"), mustTime(t, "11:00"))
	require.NoError(t, err)

	once := day.release(mustTime(t, "09:00"), mustTime(t, "11:00"))
	twice := once.release(mustTime(t, "09:00"), mustTime(t, "11:00"))

	assert.Equal(t, openDay(t, "08:00", "18:00"), once)
	assert.Equal(t, once, twice)
}

func TestReserveReleaseCycleLeavesNoFragments(t *testing.T) {
	day := openDay(t, "08:00", "18:00")

	for i := 0; i < 5; i++ {
		next, err := day.reserve(mustTime(t, "10:00"), mustTime(t, "12:00"))
		require.NoError(t, err)
		day = next.release(mustTime(t, "10:00"), mustTime(t, "12:00"))
	}

	assert.Equal(t, openDay(t, "08:00", "18:00"), day)
}

func TestNormalizeMergesTouchingSameStatus(t *testing.T) {
	day := DaySchedule{
		{Start: mustTime(t, "10:00"), End: mustTime(t, "12:00"), Status: IntervalAvailable},
		{Start: mustTime(t, "08:00"), End: mustTime(t, "10:00"), Status: IntervalAvailable},
		{Start: mustTime(t, "12:00"), End: mustTime(t, "13:00"), Status: IntervalBusy},
	}

	got := day.normalize()

	want := DaySchedule{
		{Start: mustTime(t, "08:00"), End: mustTime(t, "12:00"), Status: IntervalAvailable},
		{Start: mustTime(t, "12:00"), End: mustTime(t, "13:00"), Status: IntervalBusy},
	}
	assert.Equal(t, want, got)
}

func TestOverlapsHalfOpen(t *testing.T) {
	iv := Interval{Start: mustTime(t, "09:00"), End: mustTime(t, "11:00"), Status: IntervalBusy}

	assert.True(t, iv.Overlaps(mustTime(t, "10:00"), mustTime(t, "12:00")))
	assert.True(t, iv.Overlaps(mustTime(t, "08:00"), mustTime(t, "09:01")))

	// Shared endpoints do not overlap.
	assert.False(t, iv.Overlaps(mustTime(t, "11:00"), mustTime(t, "12:00")))
	assert.False(t, iv.Overlaps(mustTime(t, "08:00"), mustTime(t, "09:00")))
}
