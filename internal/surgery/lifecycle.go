package surgery

import "fmt"

// transitions is the closed lifecycle table. Anything not listed is rejected.
var transitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusReviewed:  true,
		StatusCancelled: true,
	},
	StatusReviewed: {
		StatusScheduled: true,
		StatusCancelled: true,
		StatusPostponed: true,
	},
	StatusScheduled: {
		StatusInProgress: true,
		StatusCancelled:  true,
		StatusPostponed:  true,
	},
	StatusInProgress: {
		StatusCompleted: true,
		StatusPostponed: true,
	},
	StatusPostponed: {
		StatusReviewed:  true,
		StatusScheduled: true,
		StatusCancelled: true,
	},
}

func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

// InvalidTransitionError names both sides of a rejected lifecycle move so the
// operator can see why it was refused.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}
