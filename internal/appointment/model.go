package appointment

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusAwaitingSlot Status = "AwaitingSlot"
	StatusScheduled    Status = "Scheduled"
	StatusCompleted    Status = "Completed"
)

// ParseStatus matches status names case-insensitively. The empty string
// parses to the empty Status, meaning "any".
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, st := range []Status{StatusAwaitingSlot, StatusScheduled, StatusCompleted} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

// initialStatus is the only place a status is chosen without a transition:
// a conflicting slot at creation time downgrades the booking to AwaitingSlot.
func initialStatus(conflict bool) Status {
	if conflict {
		return StatusAwaitingSlot
	}
	return StatusScheduled
}

// CanComplete reports whether Complete is a legal transition from s.
// AwaitingSlot is allowed as well as Scheduled.
func (s Status) CanComplete() bool {
	return s == StatusScheduled || s == StatusAwaitingSlot
}

// Read-only copies of registry entities, attached to responses and never
// persisted by this service.

type Clinic struct {
	ID      int64
	Name    string
	Address string
	Active  bool
}

type Doctor struct {
	ID          int64
	Name        string
	SpecialtyID int64
	CRM         string
	Active      bool
}

type Patient struct {
	ID     int64
	Name   string
	Email  string
	Phone  string
	Active bool
}

type Appointment struct {
	ID          int64
	PatientID   int64
	DoctorID    int64
	ClinicID    int64
	ScheduledAt time.Time
	Notes       string
	Status      Status
	CreatedAt   time.Time
	Active      bool
}

// Complete moves the appointment to Completed and replaces its notes.
func (a *Appointment) Complete(notes string) error {
	if !a.Status.CanComplete() {
		return fmt.Errorf("%w: appointment %d is already %s", ErrInvalidState, a.ID, a.Status)
	}
	a.Status = StatusCompleted
	a.Notes = notes
	return nil
}

type AppointmentDetail struct {
	Appointment
	Clinic  *Clinic
	Doctor  *Doctor
	Patient *Patient
}

type CreateRequest struct {
	PatientID   int64
	DoctorID    int64
	ClinicID    int64
	ScheduledAt time.Time
}

// conflictRange returns the inclusive window [at-half, at+half].
func conflictRange(at time.Time, half time.Duration) (from, to time.Time) {
	return at.Add(-half), at.Add(half)
}
