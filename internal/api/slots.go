package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/medops/ot-scheduling/internal/resource"
	"github.com/medops/ot-scheduling/internal/schedule"
)

func listSlotsHandler(asn *schedule.Assigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if !resource.ValidDate(date) {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		var roomID *uuid.UUID
		if s := r.URL.Query().Get("room_id"); s != "" {
			id, err := uuid.Parse(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_room_id", "room_id must be a valid UUID")
				return
			}
			roomID = &id
		}

		slots, err := asn.ListSlots(r.Context(), date, roomID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			out = append(out, toSlotResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}
