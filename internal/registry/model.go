package registry

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	ErrSpecialtyNotFound = fmt.Errorf("specialty %w", ErrNotFound)
	ErrClinicNotFound    = fmt.Errorf("clinic %w", ErrNotFound)
	ErrDoctorNotFound    = fmt.Errorf("doctor %w", ErrNotFound)
	ErrPatientNotFound   = fmt.Errorf("patient %w", ErrNotFound)

	// a doctor must reference a specialty that exists and is active
	ErrSpecialtyUnavailable = fmt.Errorf("%w: specialty not found or inactive", ErrInvalidInput)
)

type Specialty struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	Active    bool
}

type Clinic struct {
	ID        int64
	Name      string
	Address   string
	CreatedAt time.Time
	Active    bool
}

type Doctor struct {
	ID          int64
	Name        string
	SpecialtyID int64
	Specialty   *Specialty
	CRM         string
	CreatedAt   time.Time
	Active      bool
}

type Patient struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	BirthDate *time.Time
	CreatedAt time.Time
	Active    bool
}

func requireName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %s name is required", ErrInvalidInput, kind)
	}
	return nil
}
