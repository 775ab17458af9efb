package surgery

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrRequestNotFound = errors.New("surgery request not found")

	// ErrStatusChanged means a compare-and-set update lost to a concurrent
	// transition; the caller should re-read and retry.
	ErrStatusChanged = errors.New("request status changed concurrently")
)

type ListFilter struct {
	Status  *Status
	Urgency *Urgency
	Limit   int
	Offset  int
}

// Repository contains all DB interactions needed by the lifecycle controller
// and the reporting layer. Status-mutating methods are compare-and-set on the
// current status.
type Repository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	List(ctx context.Context, f ListFilter) ([]Request, error)

	// ListCandidates returns pending and reviewed requests ordered by urgency
	// (emergency first) then requested time ascending.
	ListCandidates(ctx context.Context) ([]Request, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Request, error)
	SetSchedule(ctx context.Context, id uuid.UUID, from Status, sch Schedule) (*Request, error)
	ClearSchedule(ctx context.Context, id uuid.UUID, from, to Status) (*Request, error)

	// Reporting reads
	CountByStatus(ctx context.Context) (map[Status]int, error)
	CountByUrgency(ctx context.Context) (map[Urgency]int, error)
}
