package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medops/ot-scheduling/internal/resource"
	"github.com/medops/ot-scheduling/internal/surgery"
)

func createRequestHandler(svc *surgery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}
		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "requesting_doctor_id must be a valid UUID")
			return
		}

		created, err := svc.CreateRequest(r.Context(), surgery.CreateInput{
			PatientID:   patientID,
			DoctorID:    doctorID,
			SurgeryType: req.SurgeryType,
			Urgency:     surgery.Urgency(req.Urgency),
			Diagnosis:   req.Diagnosis,
			Notes:       req.Notes,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toRequestResponse(created))
	}
}

func getRequestHandler(svc *surgery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_id", "id must be a valid UUID")
			return
		}

		req, err := svc.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRequestResponse(req))
	}
}

func listRequestsHandler(svc *surgery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f surgery.ListFilter
		if s := r.URL.Query().Get("status"); s != "" {
			status := surgery.Status(s)
			if !status.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_status", "unknown status filter")
				return
			}
			f.Status = &status
		}
		if u := r.URL.Query().Get("urgency"); u != "" {
			urgency := surgery.Urgency(u)
			if !urgency.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_urgency", "unknown urgency filter")
				return
			}
			f.Urgency = &urgency
		}

		requests, err := svc.List(r.Context(), f)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]RequestResponse, 0, len(requests))
		for i := range requests {
			out = append(out, toRequestResponse(&requests[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func candidatesHandler(svc *surgery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests, err := svc.Candidates(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]RequestResponse, 0, len(requests))
		for i := range requests {
			out = append(out, toRequestResponse(&requests[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func transitionHandler(svc *surgery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_id", "id must be a valid UUID")
			return
		}

		var body TransitionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var payload *surgery.SchedulePayload
		if body.Schedule != nil {
			payload, err = parseSchedulePayload(body.Schedule)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_schedule_payload", err.Error())
				return
			}
		}

		updated, err := svc.Transition(r.Context(), id, surgery.Status(body.Target), payload)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRequestResponse(updated))
	}
}

func parseSchedulePayload(body *SchedulePayloadBody) (*surgery.SchedulePayload, error) {
	if !resource.ValidDate(body.Date) {
		return nil, fmt.Errorf("invalid date %q", body.Date)
	}
	start, err := resource.ParseTimeOfDay(body.Start)
	if err != nil {
		return nil, err
	}
	end, err := resource.ParseTimeOfDay(body.End)
	if err != nil {
		return nil, err
	}
	roomID, err := uuid.Parse(body.RoomID)
	if err != nil {
		return nil, err
	}

	surgeons, err := parseUUIDs(body.SurgeonIDs)
	if err != nil {
		return nil, err
	}
	if len(surgeons) == 0 {
		return nil, errors.New("at least one surgeon is required")
	}
	equipment, err := parseUUIDs(body.EquipmentIDs)
	if err != nil {
		return nil, err
	}

	return &surgery.SchedulePayload{
		Date:          body.Date,
		Start:         start,
		End:           end,
		RoomID:        roomID,
		SurgeonIDs:    surgeons,
		EquipmentIDs:  equipment,
		ConsentSigned: body.ConsentSigned,
	}, nil
}

func parseUUIDs(in []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(in))
	for _, s := range in {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
