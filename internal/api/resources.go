package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medops/ot-scheduling/internal/resource"
)

func createResourceHandler(dir *resource.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateResourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		res := &resource.Resource{
			Type:      resource.Type(req.Type),
			Name:      req.Name,
			Specialty: req.Specialty,
		}
		if err := dir.Create(r.Context(), res); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_resource", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toResourceResponse(res))
	}
}

func listResourcesHandler(dir *resource.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := dir.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]ResourceResponse, 0, len(all))
		for i := range all {
			out = append(out, toResourceResponse(&all[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getAvailabilityHandler(dir *resource.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_resource_id", "id must be a valid UUID")
			return
		}

		date := r.URL.Query().Get("date")
		if !resource.ValidDate(date) {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		day, err := dir.GetAvailability(r.Context(), id, date)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, day)
	}
}

func setAvailabilityHandler(dir *resource.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_resource_id", "id must be a valid UUID")
			return
		}

		var req SetAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if !resource.ValidDate(req.Date) {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		day := make(resource.DaySchedule, 0, len(req.Intervals))
		for _, iv := range req.Intervals {
			start, err := resource.ParseTimeOfDay(iv.Start)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
				return
			}
			end, err := resource.ParseTimeOfDay(iv.End)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
				return
			}
			day = append(day, resource.Interval{
				Start:  start,
				End:    end,
				Status: resource.IntervalStatus(iv.Status),
			})
		}

		if err := dir.SetAvailability(r.Context(), id, req.Date, day); err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
