package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	EventRequestCreated   = "SURGERY_REQUEST_CREATED"
	EventRequestReviewed  = "SURGERY_REQUEST_REVIEWED"
	EventSurgeryScheduled = "SURGERY_SCHEDULED"
	EventSurgeryStarted   = "SURGERY_STARTED"
	EventSurgeryCompleted = "SURGERY_COMPLETED"
	EventSurgeryCancelled = "SURGERY_CANCELLED"
	EventSurgeryPostponed = "SURGERY_POSTPONED"
	EventScheduleConflict = "SCHEDULE_CONFLICT"
)

// Emitter informs doctors and coordinators about lifecycle events. Delivery
// is owned by the outside world; the scheduling core only enqueues. Emitter
// failures never undo a committed scheduling change.
type Emitter interface {
	Notify(ctx context.Context, userIDs []uuid.UUID, eventType, message string) error
}

type Status string

const (
	StatusQueued Status = "queued"
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Notification is one outbox row awaiting delivery.
type Notification struct {
	ID        uuid.UUID
	UserIDs   []uuid.UUID
	EventType string
	Message   string
	Status    Status
	Attempts  int
	LastError *string
	CreatedAt time.Time
	SentAt    *time.Time
}

// Sender performs the actual delivery of one notification. The transport
// behind it (mail, pager, in-app) is external to this service.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes deliveries to the log. Default transport in dev.
type LogSender struct {
	Log zerolog.Logger
}

func (s LogSender) Send(_ context.Context, n Notification) error {
	s.Log.Info().
		Str("event_type", n.EventType).
		Int("recipients", len(n.UserIDs)).
		Str("message", n.Message).
		Msg("notification delivered")
	return nil
}

// NopEmitter discards everything. Used by tests.
type NopEmitter struct{}

func (NopEmitter) Notify(context.Context, []uuid.UUID, string, string) error { return nil }
