package resource

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")

// Repository contains all DB interactions needed by the directory.
type Repository interface {
	Create(ctx context.Context, res *Resource) error
	GetByID(ctx context.Context, id uuid.UUID) (*Resource, error)
	List(ctx context.Context) ([]Resource, error)

	// UpdateDay replaces one date's interval list inside the availability map.
	UpdateDay(ctx context.Context, id uuid.UUID, date string, day DaySchedule) error
}
