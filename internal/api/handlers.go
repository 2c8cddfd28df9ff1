package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pawmed/vet-clinic-booking/internal/appointment"
	"github.com/pawmed/vet-clinic-booking/internal/schedule"
)

// GET /doctors/{doctorID}/availability?date=YYYY-MM-DD
func availabilityHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}
		date := r.URL.Query().Get("date")
		if date == "" {
			writeError(w, http.StatusBadRequest, "missing_date", "date query parameter is required")
			return
		}

		slots, err := svc.Availability(r.Context(), doctorID, date)
		if err != nil {
			respondServiceError(w, log, err)
			return
		}

		normDate, _ := schedule.NormalizeDate(date)
		writeJSON(w, http.StatusOK, AvailabilityResponse{Date: normDate, Slots: slots})
	}
}

// POST /appointments
func createAppointmentHandler(svc *appointment.Service, loc *time.Location, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		startAt, err := appointment.ParseStart(req.StartAt, req.Date, req.Time, loc)
		if err != nil {
			respondServiceError(w, log, err)
			return
		}

		booking := appointment.BookingRequest{
			DoctorID: doctorID,
			StartAt:  startAt,
			ExamType: req.ExamType,
			Note:     req.Note,
			Channel:  appointment.Channel(req.Channel),
		}
		if req.ClinicID != "" {
			id, err := uuid.Parse(req.ClinicID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
				return
			}
			booking.ClinicID = &id
		}
		if req.PetID != "" {
			id, err := uuid.Parse(req.PetID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_pet_id", "pet_id must be a valid UUID")
				return
			}
			booking.PetID = &id
		}

		if actor, ok := actorFromRequest(r); ok {
			if actor.Role == appointment.RoleCustomer {
				id := actor.ID
				booking.CustomerID = &id
			} else {
				booking.StaffBooked = true
			}
		}

		appt, err := svc.CreateBooking(r.Context(), booking)
		if err != nil {
			respondServiceError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

// GET /appointments/{id}
func getAppointmentHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			respondServiceError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// GET /appointments?doctor_id=&customer_id=&limit=&offset=
func listAppointmentsHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f appointment.ListFilter

		if v := r.URL.Query().Get("doctor_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			f.DoctorID = &id
		}
		if v := r.URL.Query().Get("customer_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_customer_id", "customer_id must be a valid UUID")
				return
			}
			f.CustomerID = &id
		}
		f.Limit = queryInt(r, "limit")
		f.Offset = queryInt(r, "offset")

		items, err := svc.ListAppointments(r.Context(), f)
		if err != nil {
			respondServiceError(w, log, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(items))
		for i := range items {
			resp = append(resp, toAppointmentResponse(&items[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// PATCH /appointments/{id}/status
func updateStatusHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusForbidden, "forbidden", "actor identity is required")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.UpdateStatus(r.Context(), id, actor, appointment.Status(req.Status))
		if err != nil {
			respondServiceError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// DELETE /appointments/{id}
func deleteAppointmentHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusForbidden, "forbidden", "actor identity is required")
			return
		}

		if err := svc.DeleteAppointment(r.Context(), actor, id); err != nil {
			respondServiceError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

// PUT /doctor-schedules/{doctorID}/{date}
func upsertOverrideHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, actor, ok := overrideRouteParams(w, r)
		if !ok {
			return
		}

		var req OverrideRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		payload := appointment.OverridePayload{
			WorkingBlocks:   req.WorkingBlocks,
			BreakBlocks:     req.BreakBlocks,
			SlotDurationMin: req.SlotDurationMin,
			MaxConcurrent:   req.MaxConcurrent,
			Status:          schedule.OverrideStatus(req.Status),
		}

		ov, err := svc.UpsertOverride(r.Context(), actor, doctorID, chi.URLParam(r, "date"), payload)
		if err != nil {
			respondServiceError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toOverrideResponse(ov))
	}
}

// GET /doctor-schedules/{doctorID}?from=&to=
func listOverridesHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, actor, ok := overrideRouteParams(w, r)
		if !ok {
			return
		}

		items, err := svc.ListOverrides(r.Context(), actor, doctorID,
			r.URL.Query().Get("from"), r.URL.Query().Get("to"))
		if err != nil {
			respondServiceError(w, log, err)
			return
		}

		resp := make([]OverrideResponse, 0, len(items))
		for i := range items {
			resp = append(resp, toOverrideResponse(&items[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// DELETE /doctor-schedules/{doctorID}/{date}
func deleteOverrideHandler(svc *appointment.Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, actor, ok := overrideRouteParams(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteOverride(r.Context(), actor, doctorID, chi.URLParam(r, "date")); err != nil {
			respondServiceError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

func overrideRouteParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, appointment.Actor, bool) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
		return uuid.Nil, appointment.Actor{}, false
	}
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusForbidden, "forbidden", "actor identity is required")
		return uuid.Nil, appointment.Actor{}, false
	}
	return doctorID, actor, true
}

func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// respondServiceError maps the business error taxonomy onto HTTP statuses.
// Everything outside the taxonomy is logged and surfaced as a generic 500.
func respondServiceError(w http.ResponseWriter, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, schedule.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, schedule.ErrOverrideNotFound):
		writeError(w, http.StatusNotFound, "override_not_found", err.Error())
	case errors.Is(err, appointment.ErrInvalidTime),
		errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, schedule.ErrInvalidClock),
		errors.Is(err, appointment.ErrInvalidOverride):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, appointment.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", "slot has just been taken, re-fetch availability")
	case errors.Is(err, appointment.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, appointment.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, appointment.ErrTooLateToCancel):
		writeError(w, http.StatusUnprocessableEntity, "too_late_to_cancel", err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}
