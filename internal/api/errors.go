package api

import (
	"errors"
	"net/http"

	redisclient "github.com/medops/ot-scheduling/internal/redis"
	"github.com/medops/ot-scheduling/internal/resource"
	"github.com/medops/ot-scheduling/internal/schedule"
	"github.com/medops/ot-scheduling/internal/surgery"
)

// writeDomainError maps scheduling-core errors onto HTTP responses. Every
// rejection carries a stable code plus the offending identifier so the UI can
// explain why the slot or transition was refused.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		invalidTransition *surgery.InvalidTransitionError
		conflict          *schedule.ConflictError
		unknownResource   *resource.UnknownResourceError
		invalidInterval   *resource.InvalidIntervalError
	)

	switch {
	case errors.As(err, &invalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", invalidTransition.Error())
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, "resource_conflict", conflict.Error())
	case errors.As(err, &unknownResource):
		writeError(w, http.StatusNotFound, "unknown_resource", unknownResource.Error())
	case errors.As(err, &invalidInterval):
		writeError(w, http.StatusBadRequest, "invalid_interval", invalidInterval.Error())
	case errors.Is(err, surgery.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "request_not_found", err.Error())
	case errors.Is(err, surgery.ErrPayloadRequired):
		writeError(w, http.StatusBadRequest, "schedule_payload_required", err.Error())
	case errors.Is(err, surgery.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, surgery.ErrStatusChanged):
		writeError(w, http.StatusConflict, "status_changed", "request changed concurrently, re-read and retry")
	case errors.Is(err, schedule.ErrRequestAlreadyBooked):
		writeError(w, http.StatusConflict, "request_already_booked", err.Error())
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "assignment_contended", "a competing assignment holds the resource, retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
