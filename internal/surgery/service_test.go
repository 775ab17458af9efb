package surgery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medops/ot-scheduling/internal/notify"
	"github.com/medops/ot-scheduling/internal/resource"
)

// fakeAssigner records calls so the lifecycle tests can see when the slot
// boundary is crossed.
type fakeAssigner struct {
	assignErr error
	assigns   int
	releases  int
	finishes  int
}

func (f *fakeAssigner) Assign(context.Context, *Request, SchedulePayload) error {
	f.assigns++
	return f.assignErr
}

func (f *fakeAssigner) Release(context.Context, uuid.UUID) error {
	f.releases++
	return nil
}

func (f *fakeAssigner) Finish(context.Context, uuid.UUID) error {
	f.finishes++
	return nil
}

func newTestService(asn *fakeAssigner) (*Service, *MemoryRepository) {
	repo := NewMemoryRepository()
	svc := NewService(repo, asn, notify.NopEmitter{}, zerolog.Nop())
	return svc, repo
}

func mustTime(t *testing.T, s string) resource.TimeOfDay {
	t.Helper()
	v, err := resource.ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func testPayload(t *testing.T) *SchedulePayload {
	t.Helper()
	return &SchedulePayload{
		Date:          "2026-09-15",
		Start:         mustTime(t, "09:00"),
		End:           mustTime(t, "11:00"),
		RoomID:        uuid.New(),
		SurgeonIDs:    []uuid.UUID{uuid.New()},
		ConsentSigned: true,
	}
}

func createPending(t *testing.T, svc *Service, urgency Urgency) *Request {
	t.Helper()
	req, err := svc.CreateRequest(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		DoctorID:    uuid.New(),
		SurgeryType: "Appendectomy",
		Urgency:     urgency,
	})
	require.NoError(t, err)
	return req
}

func TestCreateRequestValidation(t *testing.T) {
	svc, _ := newTestService(&fakeAssigner{})
	ctx := context.Background()

	_, err := svc.CreateRequest(ctx, CreateInput{DoctorID: uuid.New(), SurgeryType: "x"})
	assert.ErrorContains(t, err, "patient_id")

	_, err = svc.CreateRequest(ctx, CreateInput{PatientID: uuid.New(), SurgeryType: "x"})
	assert.ErrorContains(t, err, "requesting_doctor_id")

	_, err = svc.CreateRequest(ctx, CreateInput{PatientID: uuid.New(), DoctorID: uuid.New()})
	assert.ErrorContains(t, err, "surgery_type")

	_, err = svc.CreateRequest(ctx, CreateInput{
		PatientID: uuid.New(), DoctorID: uuid.New(), SurgeryType: "x", Urgency: "asap",
	})
	assert.ErrorContains(t, err, "invalid urgency")
}

func TestCreateRequestDefaults(t *testing.T) {
	svc, _ := newTestService(&fakeAssigner{})

	req := createPending(t, svc, "")

	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, UrgencyRoutine, req.Urgency)
	assert.Nil(t, req.Schedule)
	assert.False(t, req.RequestedAt.IsZero())
}

func TestTransitionRejectsInvalidTarget(t *testing.T) {
	svc, _ := newTestService(&fakeAssigner{})
	req := createPending(t, svc, UrgencyRoutine)

	_, err := svc.Transition(context.Background(), req.ID, "done", nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	svc, _ := newTestService(&fakeAssigner{})
	req := createPending(t, svc, UrgencyRoutine)

	// pending -> scheduled skips review.
	_, err := svc.Transition(context.Background(), req.ID, StatusScheduled, testPayload(t))

	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, StatusPending, invalid.From)
	assert.Equal(t, StatusScheduled, invalid.To)
}

func TestTransitionUnknownRequest(t *testing.T) {
	svc, _ := newTestService(&fakeAssigner{})

	_, err := svc.Transition(context.Background(), uuid.New(), StatusReviewed, nil)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestTransitionToScheduledRequiresPayload(t *testing.T) {
	svc, _ := newTestService(&fakeAssigner{})
	req := createPending(t, svc, UrgencyRoutine)

	_, err := svc.Transition(context.Background(), req.ID, StatusReviewed, nil)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), req.ID, StatusScheduled, nil)
	assert.ErrorIs(t, err, ErrPayloadRequired)
}

func TestTransitionToScheduledCommitsSchedule(t *testing.T) {
	asn := &fakeAssigner{}
	svc, _ := newTestService(asn)
	ctx := context.Background()
	req := createPending(t, svc, UrgencyUrgent)

	_, err := svc.Transition(ctx, req.ID, StatusReviewed, nil)
	require.NoError(t, err)

	p := testPayload(t)
	updated, err := svc.Transition(ctx, req.ID, StatusScheduled, p)
	require.NoError(t, err)

	assert.Equal(t, 1, asn.assigns)
	assert.Equal(t, StatusScheduled, updated.Status)
	require.NotNil(t, updated.Schedule)
	assert.Equal(t, p.Date, updated.Schedule.Date)
	assert.Equal(t, p.RoomID, updated.Schedule.RoomID)
	assert.True(t, updated.Schedule.ConsentSigned)
}

func TestTransitionToScheduledPropagatesAssignerFailure(t *testing.T) {
	asn := &fakeAssigner{assignErr: errors.New("theatre already reserved")}
	svc, _ := newTestService(asn)
	ctx := context.Background()
	req := createPending(t, svc, UrgencyRoutine)

	_, err := svc.Transition(ctx, req.ID, StatusReviewed, nil)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, req.ID, StatusScheduled, testPayload(t))
	assert.ErrorContains(t, err, "already reserved")

	// The request must stay reviewed, not half-scheduled.
	got, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReviewed, got.Status)
	assert.Nil(t, got.Schedule)
}

func TestCancelScheduledReleasesSlot(t *testing.T) {
	asn := &fakeAssigner{}
	svc, _ := newTestService(asn)
	ctx := context.Background()
	req := createPending(t, svc, UrgencyRoutine)

	_, err := svc.Transition(ctx, req.ID, StatusReviewed, nil)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, req.ID, StatusScheduled, testPayload(t))
	require.NoError(t, err)

	updated, err := svc.Transition(ctx, req.ID, StatusCancelled, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, asn.releases)
	assert.Equal(t, StatusCancelled, updated.Status)
	assert.Nil(t, updated.Schedule)
}

func TestCancelPendingDoesNotTouchAssigner(t *testing.T) {
	asn := &fakeAssigner{}
	svc, _ := newTestService(asn)
	req := createPending(t, svc, UrgencyRoutine)

	updated, err := svc.Transition(context.Background(), req.ID, StatusCancelled, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, updated.Status)
	assert.Zero(t, asn.releases)
}

func TestPostponeThenRescheduleKeepsHistory(t *testing.T) {
	asn := &fakeAssigner{}
	svc, _ := newTestService(asn)
	ctx := context.Background()
	req := createPending(t, svc, UrgencyRoutine)

	_, err := svc.Transition(ctx, req.ID, StatusReviewed, nil)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, req.ID, StatusScheduled, testPayload(t))
	require.NoError(t, err)

	postponed, err := svc.Transition(ctx, req.ID, StatusPostponed, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, asn.releases)
	assert.Nil(t, postponed.Schedule)

	// postponed -> scheduled directly, with a fresh payload.
	again, err := svc.Transition(ctx, req.ID, StatusScheduled, testPayload(t))
	require.NoError(t, err)
	assert.Equal(t, 2, asn.assigns)
	assert.Equal(t, StatusScheduled, again.Status)
}

func TestCompleteClosesSlotAndKeepsSchedule(t *testing.T) {
	asn := &fakeAssigner{}
	svc, _ := newTestService(asn)
	ctx := context.Background()
	req := createPending(t, svc, UrgencyEmergency)

	_, err := svc.Transition(ctx, req.ID, StatusReviewed, nil)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, req.ID, StatusScheduled, testPayload(t))
	require.NoError(t, err)
	_, err = svc.Transition(ctx, req.ID, StatusInProgress, nil)
	require.NoError(t, err)

	updated, err := svc.Transition(ctx, req.ID, StatusCompleted, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, asn.finishes)
	assert.Zero(t, asn.releases)
	assert.Equal(t, StatusCompleted, updated.Status)
	// The schedule stays on the record for reporting.
	assert.NotNil(t, updated.Schedule)
}

func TestCandidatesOrderedByUrgencyThenAge(t *testing.T) {
	svc, repo := newTestService(&fakeAssigner{})
	ctx := context.Background()

	base := time.Now()
	mk := func(urgency Urgency, age time.Duration, status Status) uuid.UUID {
		req := &Request{
			ID:          uuid.New(),
			PatientID:   uuid.New(),
			DoctorID:    uuid.New(),
			SurgeryType: "CABG",
			Urgency:     urgency,
			RequestedAt: base.Add(-age),
			Status:      status,
		}
		require.NoError(t, repo.Create(ctx, req))
		return req.ID
	}

	oldRoutine := mk(UrgencyRoutine, 48*time.Hour, StatusPending)
	newEmergency := mk(UrgencyEmergency, time.Hour, StatusReviewed)
	oldUrgent := mk(UrgencyUrgent, 24*time.Hour, StatusPending)
	newUrgent := mk(UrgencyUrgent, 2*time.Hour, StatusReviewed)
	mk(UrgencyEmergency, time.Minute, StatusCancelled) // not a candidate

	got, err := svc.Candidates(ctx)
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []uuid.UUID{newEmergency, oldUrgent, newUrgent, oldRoutine}, ids)
}
