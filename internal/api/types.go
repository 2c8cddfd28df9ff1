package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pawmed/vet-clinic-booking/internal/appointment"
	"github.com/pawmed/vet-clinic-booking/internal/schedule"
)

type CreateAppointmentRequest struct {
	DoctorID string `json:"doctor_id"`
	// Either start_at (RFC3339) or date + time (clinic-local) must be set.
	StartAt  string `json:"start_at,omitempty"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	ClinicID string `json:"clinic_id,omitempty"`
	PetID    string `json:"pet_id,omitempty"`
	ExamType string `json:"exam_type,omitempty"`
	Note     string `json:"note,omitempty"`
	Channel  string `json:"channel,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type OverrideRequest struct {
	WorkingBlocks   []schedule.Block `json:"working_blocks,omitempty"`
	BreakBlocks     []schedule.Block `json:"break_blocks,omitempty"`
	SlotDurationMin *int             `json:"slot_duration_min,omitempty"`
	MaxConcurrent   *int             `json:"max_concurrent,omitempty"`
	Status          string           `json:"status,omitempty"`
}

type AppointmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	ClinicID    *uuid.UUID `json:"clinic_id,omitempty"`
	DoctorID    uuid.UUID  `json:"doctor_id"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	PetID       *uuid.UUID `json:"pet_id,omitempty"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       time.Time  `json:"end_at"`
	ExamType    string     `json:"exam_type,omitempty"`
	Note        string     `json:"note,omitempty"`
	Channel     string     `json:"channel"`
	Status      string     `json:"status"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		ClinicID:    a.ClinicID,
		DoctorID:    a.DoctorID,
		CustomerID:  a.CustomerID,
		PetID:       a.PetID,
		StartAt:     a.StartAt,
		EndAt:       a.EndAt,
		ExamType:    a.ExamType,
		Note:        a.Note,
		Channel:     string(a.Channel),
		Status:      string(a.Status),
		CancelledAt: a.CancelledAt,
	}
}

type AvailabilityResponse struct {
	Date  string          `json:"date"`
	Slots []schedule.Slot `json:"slots"`
}

type OverrideResponse struct {
	ID              uuid.UUID        `json:"id"`
	DoctorID        uuid.UUID        `json:"doctor_id"`
	Date            string           `json:"date"`
	WorkingBlocks   []schedule.Block `json:"working_blocks,omitempty"`
	BreakBlocks     []schedule.Block `json:"break_blocks,omitempty"`
	SlotDurationMin *int             `json:"slot_duration_min,omitempty"`
	MaxConcurrent   *int             `json:"max_concurrent,omitempty"`
	Status          string           `json:"status"`
}

func toOverrideResponse(ov *schedule.Override) OverrideResponse {
	return OverrideResponse{
		ID:              ov.ID,
		DoctorID:        ov.DoctorID,
		Date:            ov.Date,
		WorkingBlocks:   ov.WorkingBlocks,
		BreakBlocks:     ov.BreakBlocks,
		SlotDurationMin: ov.SlotDurationMin,
		MaxConcurrent:   ov.MaxConcurrent,
		Status:          string(ov.Status),
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
