package appointment

import "time"

// Filter selects appointments in memory. Zero values disable a predicate.
type Filter struct {
	From             time.Time
	To               time.Time
	IncludeCompleted bool
	Status           Status
	DoctorID         *int64
	PatientID        *int64
	ClinicID         *int64
}

// Apply keeps the appointments matching every predicate, checked in order:
// date range, completed exclusion, status, doctor, patient, clinic.
func (f Filter) Apply(in []Appointment) []Appointment {
	out := make([]Appointment, 0, len(in))
	for _, a := range in {
		if f.match(a) {
			out = append(out, a)
		}
	}
	return out
}

func (f Filter) match(a Appointment) bool {
	if !f.From.IsZero() && a.ScheduledAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && a.ScheduledAt.After(f.To) {
		return false
	}
	if !f.IncludeCompleted && a.Status == StatusCompleted {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
		return false
	}
	if f.PatientID != nil && a.PatientID != *f.PatientID {
		return false
	}
	if f.ClinicID != nil && a.ClinicID != *f.ClinicID {
		return false
	}
	return true
}
