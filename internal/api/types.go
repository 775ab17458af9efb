package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/medops/ot-scheduling/internal/resource"
	"github.com/medops/ot-scheduling/internal/schedule"
	"github.com/medops/ot-scheduling/internal/surgery"
)

type CreateRequestRequest struct {
	PatientID   string `json:"patient_id"`
	DoctorID    string `json:"requesting_doctor_id"`
	SurgeryType string `json:"surgery_type"`
	Urgency     string `json:"urgency"`
	Diagnosis   string `json:"diagnosis"`
	Notes       string `json:"notes"`
}

// SchedulePayloadBody is the slot a coordinator submits when moving a request
// into scheduled.
type SchedulePayloadBody struct {
	Date          string   `json:"date"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	RoomID        string   `json:"room_id"`
	SurgeonIDs    []string `json:"surgeon_ids"`
	EquipmentIDs  []string `json:"equipment_ids,omitempty"`
	ConsentSigned bool     `json:"consent_signed"`
}

type TransitionRequest struct {
	Target   string               `json:"target"`
	Schedule *SchedulePayloadBody `json:"schedule,omitempty"`
}

type ScheduleResponse struct {
	Date          string      `json:"date"`
	Start         string      `json:"start"`
	End           string      `json:"end"`
	RoomID        uuid.UUID   `json:"room_id"`
	ResourceIDs   []uuid.UUID `json:"resource_ids"`
	ConsentSigned bool        `json:"consent_signed"`
}

type RequestResponse struct {
	ID          uuid.UUID         `json:"id"`
	PatientID   uuid.UUID         `json:"patient_id"`
	DoctorID    uuid.UUID         `json:"requesting_doctor_id"`
	SurgeryType string            `json:"surgery_type"`
	Urgency     string            `json:"urgency"`
	Diagnosis   string            `json:"diagnosis,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	RequestedAt time.Time         `json:"requested_at"`
	Status      string            `json:"status"`
	Schedule    *ScheduleResponse `json:"schedule,omitempty"`
}

func toRequestResponse(r *surgery.Request) RequestResponse {
	resp := RequestResponse{
		ID:          r.ID,
		PatientID:   r.PatientID,
		DoctorID:    r.DoctorID,
		SurgeryType: r.SurgeryType,
		Urgency:     string(r.Urgency),
		Diagnosis:   r.Diagnosis,
		Notes:       r.Notes,
		RequestedAt: r.RequestedAt,
		Status:      string(r.Status),
	}
	if r.Schedule != nil {
		resp.Schedule = &ScheduleResponse{
			Date:          r.Schedule.Date,
			Start:         r.Schedule.Start.String(),
			End:           r.Schedule.End.String(),
			RoomID:        r.Schedule.RoomID,
			ResourceIDs:   r.Schedule.ResourceIDs,
			ConsentSigned: r.Schedule.ConsentSigned,
		}
	}
	return resp
}

type CreateResourceRequest struct {
	Type      string  `json:"type"`
	Name      string  `json:"name"`
	Specialty *string `json:"specialty,omitempty"`
}

type ResourceResponse struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Specialty *string   `json:"specialty,omitempty"`
}

func toResourceResponse(r *resource.Resource) ResourceResponse {
	return ResourceResponse{
		ID:        r.ID,
		Type:      string(r.Type),
		Name:      r.Name,
		Specialty: r.Specialty,
	}
}

type IntervalBody struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Status string `json:"status"`
}

type SetAvailabilityRequest struct {
	Date      string         `json:"date"`
	Intervals []IntervalBody `json:"intervals"`
}

type SlotResponse struct {
	ID               uuid.UUID   `json:"id"`
	Date             string      `json:"date"`
	Start            string      `json:"start"`
	End              string      `json:"end"`
	RoomID           uuid.UUID   `json:"ot_room_id"`
	SurgeryRequestID uuid.UUID   `json:"surgery_request_id"`
	ResourceIDs      []uuid.UUID `json:"resource_ids"`
	Status           string      `json:"status"`
}

func toSlotResponse(s schedule.Slot) SlotResponse {
	return SlotResponse{
		ID:               s.ID,
		Date:             s.Date,
		Start:            s.Start.String(),
		End:              s.End.String(),
		RoomID:           s.RoomID,
		SurgeryRequestID: s.SurgeryRequestID,
		ResourceIDs:      s.ResourceIDs,
		Status:           string(s.Status),
	}
}
