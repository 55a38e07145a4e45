package api

import (
	"time"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/registry"
)

type CreateAppointmentRequest struct {
	PatientID   int64  `json:"patientId"`
	ClinicID    int64  `json:"clinicId"`
	DoctorID    int64  `json:"doctorId"`
	ScheduledAt string `json:"scheduledAt"`
}

type AppointmentResponse struct {
	ID          int64            `json:"id"`
	PatientID   int64            `json:"patientId"`
	DoctorID    int64            `json:"doctorId"`
	ClinicID    int64            `json:"clinicId"`
	ScheduledAt time.Time        `json:"scheduledAt"`
	Notes       string           `json:"notes"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
	Active      bool             `json:"active"`
	Clinic      *ClinicResponse  `json:"clinic,omitempty"`
	Doctor      *DoctorResponse  `json:"doctor,omitempty"`
	Patient     *PatientResponse `json:"patient,omitempty"`
}

type SpecialtyResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	Active    bool      `json:"active"`
}

type ClinicResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	Active    bool      `json:"active"`
}

type DoctorResponse struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	SpecialtyID int64              `json:"specialtyId"`
	Specialty   *SpecialtyResponse `json:"specialty,omitempty"`
	CRM         string             `json:"crm"`
	CreatedAt   time.Time          `json:"createdAt,omitzero"`
	Active      bool               `json:"active"`
}

type PatientResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	BirthDate *string   `json:"birthDate,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	Active    bool      `json:"active"`
}

// Registry write bodies. ID is optional; when present it must match the URL.
// Active defaults to true.

type SpecialtyRequest struct {
	ID     *int64 `json:"id"`
	Name   string `json:"name"`
	Active *bool  `json:"active"`
}

type ClinicRequest struct {
	ID      *int64 `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Active  *bool  `json:"active"`
}

type DoctorRequest struct {
	ID          *int64 `json:"id"`
	Name        string `json:"name"`
	SpecialtyID int64  `json:"specialtyId"`
	CRM         string `json:"crm"`
	Active      *bool  `json:"active"`
}

type PatientRequest struct {
	ID        *int64 `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birthDate"`
	Active    *bool  `json:"active"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

const birthDateLayout = "2006-01-02"

func activeOrDefault(p *bool) bool {
	if p == nil {
		return true
	}
	return *p
}

func toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		PatientID:   a.PatientID,
		DoctorID:    a.DoctorID,
		ClinicID:    a.ClinicID,
		ScheduledAt: a.ScheduledAt,
		Notes:       a.Notes,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
		Active:      a.Active,
	}
}

func toAppointmentDetailResponse(d appointment.AppointmentDetail) AppointmentResponse {
	resp := toAppointmentResponse(d.Appointment)
	if d.Clinic != nil {
		resp.Clinic = &ClinicResponse{ID: d.Clinic.ID, Name: d.Clinic.Name, Address: d.Clinic.Address, Active: d.Clinic.Active}
	}
	if d.Doctor != nil {
		resp.Doctor = &DoctorResponse{ID: d.Doctor.ID, Name: d.Doctor.Name, SpecialtyID: d.Doctor.SpecialtyID, CRM: d.Doctor.CRM, Active: d.Doctor.Active}
	}
	if d.Patient != nil {
		resp.Patient = &PatientResponse{ID: d.Patient.ID, Name: d.Patient.Name, Email: d.Patient.Email, Phone: d.Patient.Phone, Active: d.Patient.Active}
	}
	return resp
}

func toSpecialtyResponse(s registry.Specialty) SpecialtyResponse {
	return SpecialtyResponse{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt, Active: s.Active}
}

func toClinicResponse(c registry.Clinic) ClinicResponse {
	return ClinicResponse{ID: c.ID, Name: c.Name, Address: c.Address, CreatedAt: c.CreatedAt, Active: c.Active}
}

func toDoctorResponse(d registry.Doctor) DoctorResponse {
	resp := DoctorResponse{
		ID:          d.ID,
		Name:        d.Name,
		SpecialtyID: d.SpecialtyID,
		CRM:         d.CRM,
		CreatedAt:   d.CreatedAt,
		Active:      d.Active,
	}
	if d.Specialty != nil {
		sp := toSpecialtyResponse(*d.Specialty)
		resp.Specialty = &sp
	}
	return resp
}

func toPatientResponse(p registry.Patient) PatientResponse {
	resp := PatientResponse{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		CreatedAt: p.CreatedAt,
		Active:    p.Active,
	}
	if p.BirthDate != nil {
		s := p.BirthDate.Format(birthDateLayout)
		resp.BirthDate = &s
	}
	return resp
}

func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
