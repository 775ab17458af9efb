package resource

import (
	"fmt"

	"github.com/google/uuid"
)

// UnknownResourceError rejects an operation naming a resource id that is not
// in the directory.
type UnknownResourceError struct {
	ID uuid.UUID
}

func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("unknown resource %s", e.ID)
}

// InvalidIntervalError rejects zero-length or inverted intervals.
type InvalidIntervalError struct {
	Start TimeOfDay
	End   TimeOfDay
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval [%s, %s)", e.Start, e.End)
}

// AlreadyReservedError is the reserve-side conflict signal. It is internal to
// the scheduling core: the assigner translates it into a ConflictError before
// anything reaches a caller.
type AlreadyReservedError struct {
	ResourceID uuid.UUID
	Date       string
	Start      TimeOfDay
	End        TimeOfDay
}

func (e *AlreadyReservedError) Error() string {
	return fmt.Sprintf("resource %s already reserved on %s within [%s, %s)",
		e.ResourceID, e.Date, e.Start, e.End)
}
