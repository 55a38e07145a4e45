package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/registry"
)

func handleRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, registry.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	default:
		writeError(w, http.StatusBadRequest, "request_failed", err.Error())
	}
}

// bodyID checks an optional body id against the URL id.
func bodyID(w http.ResponseWriter, r *http.Request, body *int64) (int64, bool) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return 0, false
	}
	if body != nil && *body != id {
		writeError(w, http.StatusBadRequest, "id_mismatch", "id in URL does not match the request body")
		return 0, false
	}
	return id, true
}

func writeDeleted(w http.ResponseWriter, ok bool, err error, kind string, id int64) {
	if err != nil {
		handleRegistryError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("%s with id %d not found", kind, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- specialties ---

func listSpecialtiesHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListSpecialties(r.Context())
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(list, toSpecialtyResponse))
	}
}

func getSpecialtyHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_id", err.Error())
			return
		}
		sp, err := svc.GetSpecialty(r.Context(), id)
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSpecialtyResponse(*sp))
	}
}

func createSpecialtyHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SpecialtyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		sp, err := svc.CreateSpecialty(r.Context(), registry.Specialty{Name: req.Name})
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSpecialtyResponse(*sp))
	}
}

func updateSpecialtyHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SpecialtyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		id, ok := bodyID(w, r, req.ID)
		if !ok {
			return
		}
		sp, err := svc.UpdateSpecialty(r.Context(), registry.Specialty{ID: id, Name: req.Name, Active: activeOrDefault(req.Active)})
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSpecialtyResponse(*sp))
	}
}

func deleteSpecialtyHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_id", err.Error())
			return
		}
		ok, err := svc.DeleteSpecialty(r.Context(), id)
		writeDeleted(w, ok, err, "Specialty", id)
	}
}

// --- clinics ---

func listClinicsHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListClinics(r.Context())
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(list, toClinicResponse))
	}
}

func getClinicHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_id", err.Error())
			return
		}
		c, err := svc.GetClinic(r.Context(), id)
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toClinicResponse(*c))
	}
}

func createClinicHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClinicRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		c, err := svc.CreateClinic(r.Context(), registry.Clinic{Name: req.Name, Address: req.Address})
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toClinicResponse(*c))
	}
}

func updateClinicHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClinicRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		id, ok := bodyID(w, r, req.ID)
		if !ok {
			return
		}
		c, err := svc.UpdateClinic(r.Context(), registry.Clinic{
			ID:      id,
			Name:    req.Name,
			Address: req.Address,
			Active:  activeOrDefault(req.Active),
		})
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toClinicResponse(*c))
	}
}

func deleteClinicHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_id", err.Error())
			return
		}
		ok, err := svc.DeleteClinic(r.Context(), id)
		writeDeleted(w, ok, err, "Clinic", id)
	}
}

// --- doctors ---

func listDoctorsHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListDoctors(r.Context())
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(list, toDoctorResponse))
	}
}

func listDoctorsBySpecialtyHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_id", err.Error())
			return
		}
		list, err := svc.ListDoctorsBySpecialty(r.Context(), id)
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(list, toDoctorResponse))
	}
}

func getDoctorHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_id", err.Error())
			return
		}
		d, err := svc.GetDoctor(r.Context(), id)
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(*d))
	}
}

func createDoctorHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DoctorRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		d, err := svc.CreateDoctor(r.Context(), registry.Doctor{Name: req.Name, SpecialtyID: req.SpecialtyID, CRM: req.CRM})
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDoctorResponse(*d))
	}
}

func updateDoctorHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DoctorRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		id, ok := bodyID(w, r, req.ID)
		if !ok {
			return
		}
		d, err := svc.UpdateDoctor(r.Context(), registry.Doctor{
			ID:          id,
			Name:        req.Name,
			SpecialtyID: req.SpecialtyID,
			CRM:         req.CRM,
			Active:      activeOrDefault(req.Active),
		})
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(*d))
	}
}

func deleteDoctorHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_id", err.Error())
			return
		}
		ok, err := svc.DeleteDoctor(r.Context(), id)
		writeDeleted(w, ok, err, "Doctor", id)
	}
}

// --- patients ---

func patientFromRequest(req PatientRequest) (registry.Patient, error) {
	p := registry.Patient{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Active: activeOrDefault(req.Active),
	}
	if s := strings.TrimSpace(req.BirthDate); s != "" {
		t, err := parseTimestamp(s)
		if err != nil {
			return p, fmt.Errorf("%w: birthDate: %v", registry.ErrInvalidInput, err)
		}
		bd := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		p.BirthDate = &bd
	}
	return p, nil
}

func listPatientsHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListPatients(r.Context())
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(list, toPatientResponse))
	}
}

func getPatientHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_id", err.Error())
			return
		}
		p, err := svc.GetPatient(r.Context(), id)
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(*p))
	}
}

func createPatientHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PatientRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		in, err := patientFromRequest(req)
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		p, err := svc.CreatePatient(r.Context(), in)
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPatientResponse(*p))
	}
}

func updatePatientHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PatientRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		id, ok := bodyID(w, r, req.ID)
		if !ok {
			return
		}
		in, err := patientFromRequest(req)
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		in.ID = id
		p, err := svc.UpdatePatient(r.Context(), in)
		if err != nil {
			handleRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(*p))
	}
}

func deletePatientHandler(svc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_id", err.Error())
			return
		}
		ok, err := svc.DeletePatient(r.Context(), id)
		writeDeleted(w, ok, err, "Patient", id)
	}
}
