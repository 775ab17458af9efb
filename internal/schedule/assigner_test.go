package schedule

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medops/ot-scheduling/internal/notify"
	"github.com/medops/ot-scheduling/internal/resource"
	"github.com/medops/ot-scheduling/internal/surgery"
)

const testDate = "2026-09-15"

type fixture struct {
	assigner *Assigner
	dir      *resource.Directory
	slots    *MemoryRepository
	room     uuid.UUID
	surgeon  uuid.UUID
	machine  uuid.UUID
}

func mustTime(t *testing.T, s string) resource.TimeOfDay {
	t.Helper()
	v, err := resource.ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := resource.NewDirectory(resource.NewMemoryRepository(), zerolog.Nop())

	open := resource.DaySchedule{
		{Start: mustTime(t, "08:00"), End: mustTime(t, "18:00"), Status: resource.IntervalAvailable},
	}

	mk := func(typ resource.Type, name string) uuid.UUID {
		res := &resource.Resource{
			Type: typ,
			Name: name,
			Availability: resource.Availability{
				testDate: append(resource.DaySchedule(nil), open...),
			},
		}
		require.NoError(t, dir.Create(ctx, res))
		return res.ID
	}

	f := &fixture{
		dir:     dir,
		slots:   NewMemoryRepository(),
		room:    mk(resource.TypeRoom, "Theatre-1"),
		surgeon: mk(resource.TypeSurgeon, "Dr. Mensah"),
		machine: mk(resource.TypeEquipment, "C-Arm #1"),
	}
	f.assigner = NewAssigner(dir, f.slots, NewLocalLocker(), notify.NopEmitter{}, zerolog.Nop())
	return f
}

func (f *fixture) payload(t *testing.T, start, end string) surgery.SchedulePayload {
	t.Helper()
	return surgery.SchedulePayload{
		Date:          testDate,
		Start:         mustTime(t, start),
		End:           mustTime(t, end),
		RoomID:        f.room,
		SurgeonIDs:    []uuid.UUID{f.surgeon},
		EquipmentIDs:  []uuid.UUID{f.machine},
		ConsentSigned: true,
	}
}

func newRequest() *surgery.Request {
	return &surgery.Request{
		ID:       uuid.New(),
		DoctorID: uuid.New(),
		Status:   surgery.StatusReviewed,
	}
}

func busySpan(t *testing.T, f *fixture, id uuid.UUID, start, end string) bool {
	t.Helper()
	day, err := f.dir.GetAvailability(context.Background(), id, testDate)
	require.NoError(t, err)
	for _, iv := range day {
		if iv.Status == resource.IntervalBusy &&
			iv.Start <= mustTime(t, start) && iv.End >= mustTime(t, end) {
			return true
		}
	}
	return false
}

func TestAssignBooksRoomSurgeonAndEquipment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := newRequest()

	require.NoError(t, f.assigner.Assign(ctx, req, f.payload(t, "09:00", "11:00")))

	for _, id := range []uuid.UUID{f.room, f.surgeon, f.machine} {
		assert.True(t, busySpan(t, f, id, "09:00", "11:00"), "resource %s should be busy", id)
	}

	slot, err := f.slots.GetActiveByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, SlotBooked, slot.Status)
	assert.Equal(t, f.room, slot.RoomID)
	assert.ElementsMatch(t, []uuid.UUID{f.surgeon, f.machine}, slot.ResourceIDs)
}

func TestAssignConflictOnSameRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.assigner.Assign(ctx, newRequest(), f.payload(t, "09:00", "11:00")))

	// Second request wants Theatre-1 overlapping the first booking.
	req2 := newRequest()
	err := f.assigner.Assign(ctx, req2, f.payload(t, "10:00", "12:00"))

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, f.room, conflict.ResourceID)

	_, err = f.slots.GetActiveByRequest(ctx, req2.ID)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestAssignBackToBackSucceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.assigner.Assign(ctx, newRequest(), f.payload(t, "09:00", "11:00")))
	require.NoError(t, f.assigner.Assign(ctx, newRequest(), f.payload(t, "11:00", "13:00")))

	slots, err := f.assigner.ListSlots(ctx, testDate, &f.room)
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}

func TestAssignRollsBackEarlierReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Book the surgeon elsewhere so the room reserve succeeds but the
	// surgeon reserve conflicts.
	require.NoError(t, f.dir.Reserve(ctx, f.surgeon, testDate, mustTime(t, "09:00"), mustTime(t, "11:00")))

	req := newRequest()
	err := f.assigner.Assign(ctx, req, f.payload(t, "10:00", "12:00"))

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, f.surgeon, conflict.ResourceID)

	// All-or-nothing: the room must have been given back.
	assert.False(t, busySpan(t, f, f.room, "10:00", "12:00"))

	_, err = f.slots.GetActiveByRequest(ctx, req.ID)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestAssignSameSlotTwiceIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := newRequest()
	p := f.payload(t, "09:00", "11:00")

	require.NoError(t, f.assigner.Assign(ctx, req, p))
	require.NoError(t, f.assigner.Assign(ctx, req, p))

	slots, err := f.assigner.ListSlots(ctx, testDate, &f.room)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

func TestAssignDifferentSlotWhileBookedFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := newRequest()

	require.NoError(t, f.assigner.Assign(ctx, req, f.payload(t, "09:00", "11:00")))

	err := f.assigner.Assign(ctx, req, f.payload(t, "14:00", "16:00"))
	assert.ErrorIs(t, err, ErrRequestAlreadyBooked)
}

func TestAssignValidatesResourceTypes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.payload(t, "09:00", "11:00")
	p.RoomID = f.surgeon // not a theatre
	err := f.assigner.Assign(ctx, newRequest(), p)
	assert.ErrorContains(t, err, "not an OT room")

	p = f.payload(t, "09:00", "11:00")
	p.SurgeonIDs = []uuid.UUID{f.machine}
	err = f.assigner.Assign(ctx, newRequest(), p)
	assert.ErrorContains(t, err, "not a surgeon")

	p = f.payload(t, "09:00", "11:00")
	p.RoomID = uuid.New()
	err = f.assigner.Assign(ctx, newRequest(), p)
	var unknown *resource.UnknownResourceError
	assert.ErrorAs(t, err, &unknown)
}

func TestAssignRejectsBadPayload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.payload(t, "11:00", "09:00")
	var invalid *resource.InvalidIntervalError
	assert.ErrorAs(t, f.assigner.Assign(ctx, newRequest(), p), &invalid)

	p = f.payload(t, "09:00", "11:00")
	p.Date = "15/09/2026"
	assert.ErrorContains(t, f.assigner.Assign(ctx, newRequest(), p), "invalid date")

	p = f.payload(t, "09:00", "11:00")
	p.SurgeonIDs = nil
	assert.ErrorContains(t, f.assigner.Assign(ctx, newRequest(), p), "at least one surgeon")
}

func TestReleaseFreesSlotAndIntervals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := newRequest()

	require.NoError(t, f.assigner.Assign(ctx, req, f.payload(t, "09:00", "11:00")))
	require.NoError(t, f.assigner.Release(ctx, req.ID))

	for _, id := range []uuid.UUID{f.room, f.surgeon, f.machine} {
		assert.False(t, busySpan(t, f, id, "09:00", "11:00"), "resource %s should be free again", id)
	}

	// The window is immediately rebookable by someone else.
	require.NoError(t, f.assigner.Assign(ctx, newRequest(), f.payload(t, "09:00", "11:00")))
}

func TestReleaseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := newRequest()

	require.NoError(t, f.assigner.Assign(ctx, req, f.payload(t, "09:00", "11:00")))
	require.NoError(t, f.assigner.Release(ctx, req.ID))
	require.NoError(t, f.assigner.Release(ctx, req.ID))

	// Releasing a request that never booked is also fine.
	require.NoError(t, f.assigner.Release(ctx, uuid.New()))
}

func TestFinishKeepsIntervalsBusy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := newRequest()

	require.NoError(t, f.assigner.Assign(ctx, req, f.payload(t, "09:00", "11:00")))
	require.NoError(t, f.assigner.Finish(ctx, req.ID))

	// The theatre time was used; it does not come back.
	assert.True(t, busySpan(t, f, f.room, "09:00", "11:00"))

	_, err := f.slots.GetActiveByRequest(ctx, req.ID)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestConcurrentAssignsOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.assigner.Assign(ctx, newRequest(), f.payload(t, "09:00", "11:00"))
		}()
	}
	wg.Wait()
	close(results)

	wins, conflicts := 0, 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		conflicts++
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, conflicts)

	slots, err := f.assigner.ListSlots(ctx, testDate, &f.room)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}
