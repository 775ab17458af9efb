package surgery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusReviewed},
		{StatusPending, StatusCancelled},
		{StatusReviewed, StatusScheduled},
		{StatusReviewed, StatusCancelled},
		{StatusReviewed, StatusPostponed},
		{StatusScheduled, StatusInProgress},
		{StatusScheduled, StatusCancelled},
		{StatusScheduled, StatusPostponed},
		{StatusInProgress, StatusCompleted},
		{StatusInProgress, StatusPostponed},
		{StatusPostponed, StatusReviewed},
		{StatusPostponed, StatusScheduled},
		{StatusPostponed, StatusCancelled},
	}
	for _, tt := range allowed {
		assert.True(t, CanTransition(tt.from, tt.to), "%s -> %s should be allowed", tt.from, tt.to)
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusScheduled},
		{StatusPending, StatusInProgress},
		{StatusPending, StatusCompleted},
		{StatusReviewed, StatusInProgress},
		{StatusReviewed, StatusCompleted},
		{StatusScheduled, StatusCompleted},
		{StatusScheduled, StatusReviewed},
		{StatusInProgress, StatusCancelled},
		{StatusCompleted, StatusScheduled},
		{StatusCancelled, StatusReviewed},
		{StatusPending, StatusPending},
		{StatusScheduled, StatusScheduled},
	}
	for _, tt := range denied {
		assert.False(t, CanTransition(tt.from, tt.to), "%s -> %s should be rejected", tt.from, tt.to)
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	all := []Status{
		StatusPending, StatusReviewed, StatusScheduled, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusPostponed,
	}
	for _, from := range all {
		if !from.Terminal() {
			continue
		}
		for _, to := range all {
			assert.False(t, CanTransition(from, to), "terminal %s must not leave via %s", from, to)
		}
	}
}

func TestUrgencyRank(t *testing.T) {
	assert.Less(t, UrgencyEmergency.Rank(), UrgencyUrgent.Rank())
	assert.Less(t, UrgencyUrgent.Rank(), UrgencyRoutine.Rank())
}
