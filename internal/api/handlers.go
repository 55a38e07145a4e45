package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

func createAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if req.PatientID <= 0 || req.DoctorID <= 0 || req.ClinicID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "patientId, doctorId and clinicId are required")
			return
		}

		scheduledAt, err := parseTimestamp(req.ScheduledAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_at", err.Error())
			return
		}

		detail, err := svc.CreateAppointment(r.Context(), appointment.CreateRequest{
			PatientID:   req.PatientID,
			DoctorID:    req.DoctorID,
			ClinicID:    req.ClinicID,
			ScheduledAt: scheduledAt,
		})
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentDetailResponse(*detail))
	}
}

func completeAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", err.Error())
			return
		}

		notes, err := readNotes(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
			return
		}

		appt, err := svc.CompleteAppointment(r.Context(), id, notes)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

// readNotes accepts a JSON string or raw text. An empty body means empty notes.
func readNotes(w http.ResponseWriter, r *http.Request) (string, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	body := strings.TrimSpace(string(raw))
	if strings.HasPrefix(body, `"`) {
		var notes string
		if err := json.Unmarshal([]byte(body), &notes); err != nil {
			return "", errors.New("notes must be a JSON string or plain text")
		}
		return notes, nil
	}
	return body, nil
}

func filterAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
			return
		}

		list, err := svc.FilterAppointments(r.Context(), f)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, mapSlice(list, toAppointmentResponse))
	}
}

func parseFilter(r *http.Request) (appointment.Filter, error) {
	q := r.URL.Query()
	var f appointment.Filter
	var err error

	if v := q.Get("from"); v != "" {
		if f.From, err = parseTimestamp(v); err != nil {
			return f, err
		}
	}
	if v := q.Get("to"); v != "" {
		if f.To, err = parseTimestamp(v); err != nil {
			return f, err
		}
	}
	if v := q.Get("includeCompleted"); v != "" {
		if f.IncludeCompleted, err = strconv.ParseBool(v); err != nil {
			return f, errors.New("includeCompleted must be a boolean")
		}
	}
	if f.Status, err = appointment.ParseStatus(q.Get("status")); err != nil {
		return f, err
	}
	if f.DoctorID, err = optionalID(q.Get("doctorId"), "doctorId"); err != nil {
		return f, err
	}
	if f.PatientID, err = optionalID(q.Get("patientId"), "patientId"); err != nil {
		return f, err
	}
	if f.ClinicID, err = optionalID(q.Get("clinicId"), "clinicId"); err != nil {
		return f, err
	}
	return f, nil
}

func optionalID(v, name string) (*int64, error) {
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, errors.New(name + " must be an integer")
	}
	return &id, nil
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAppointments(r.Context())
		if err != nil {
			handleAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(list, toAppointmentDetailResponse))
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", err.Error())
			return
		}

		detail, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentDetailResponse(*detail))
	}
}

func deleteAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", err.Error())
			return
		}

		ok, err := svc.DeleteAppointment(r.Context(), id)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", (&appointment.NotFoundError{Entity: "Appointment", ID: id}).Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func pingHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAppointmentError maps business errors to 404 and 422; anything else
// is a 400 carrying the raw message.
func handleAppointmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, appointment.ErrInvalidState):
		writeError(w, http.StatusUnprocessableEntity, "invalid_state", err.Error())
	case errors.Is(err, appointment.ErrScheduleBusy):
		writeError(w, http.StatusBadRequest, "schedule_busy", "schedule is being modified, retry")
	case errors.Is(err, appointment.ErrScheduledInPast):
		writeError(w, http.StatusBadRequest, "scheduled_in_past", err.Error())
	default:
		writeError(w, http.StatusBadRequest, "request_failed", err.Error())
	}
}
