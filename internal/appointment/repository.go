package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")

	ErrAppointmentNotFound = fmt.Errorf("appointment %w", ErrNotFound)
	ErrClinicNotFound      = fmt.Errorf("clinic %w", ErrNotFound)
	ErrDoctorNotFound      = fmt.Errorf("doctor %w", ErrNotFound)
	ErrPatientNotFound     = fmt.Errorf("patient %w", ErrNotFound)
)

// NotFoundError names the missing entity and id. It unwraps to the entity
// sentinel, so errors.Is works against both ErrClinicNotFound and ErrNotFound.
type NotFoundError struct {
	Entity string
	ID     int64
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Store persists appointments. Every read skips soft-deleted rows.
type Store interface {
	List(ctx context.Context) ([]Appointment, error)
	GetByID(ctx context.Context, id int64) (*Appointment, error)

	// Create assigns the id and returns the stored row.
	Create(ctx context.Context, a Appointment) (*Appointment, error)
	// Update returns ErrAppointmentNotFound when no row has a.ID.
	Update(ctx context.Context, a Appointment) (*Appointment, error)
	SoftDelete(ctx context.Context, id int64) (bool, error)

	// FindConflict returns an active appointment for the same doctor and
	// clinic scheduled within [at-window, at+window], or ErrAppointmentNotFound.
	FindConflict(ctx context.Context, doctorID, clinicID int64, at time.Time, window time.Duration) (*Appointment, error)
}

// RegistryClient resolves registry entities. Lookups that do not resolve
// return the matching Err*NotFound sentinel.
type RegistryClient interface {
	GetClinic(ctx context.Context, id int64) (*Clinic, error)
	GetDoctor(ctx context.Context, id int64) (*Doctor, error)
	GetPatient(ctx context.Context, id int64) (*Patient, error)
	GetDoctorsBySpecialty(ctx context.Context, specialtyID int64) ([]Doctor, error)
}

// Notifier is the side channel used to tell a patient about a conflict.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
}
