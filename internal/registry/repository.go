package registry

import "context"

// Store persists registry records. Gets and lists only see active rows;
// Update writes every column, active included, and returns the entity's
// not-found sentinel when no row has the id.
type Store interface {
	ListSpecialties(ctx context.Context) ([]Specialty, error)
	GetSpecialty(ctx context.Context, id int64) (*Specialty, error)
	CreateSpecialty(ctx context.Context, s Specialty) (*Specialty, error)
	UpdateSpecialty(ctx context.Context, s Specialty) (*Specialty, error)
	DeleteSpecialty(ctx context.Context, id int64) (bool, error)

	ListClinics(ctx context.Context) ([]Clinic, error)
	GetClinic(ctx context.Context, id int64) (*Clinic, error)
	CreateClinic(ctx context.Context, c Clinic) (*Clinic, error)
	UpdateClinic(ctx context.Context, c Clinic) (*Clinic, error)
	DeleteClinic(ctx context.Context, id int64) (bool, error)

	// ListDoctors skips doctors whose specialty is inactive.
	ListDoctors(ctx context.Context) ([]Doctor, error)
	ListDoctorsBySpecialty(ctx context.Context, specialtyID int64) ([]Doctor, error)
	GetDoctor(ctx context.Context, id int64) (*Doctor, error)
	CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error)
	UpdateDoctor(ctx context.Context, d Doctor) (*Doctor, error)
	DeleteDoctor(ctx context.Context, id int64) (bool, error)

	ListPatients(ctx context.Context) ([]Patient, error)
	GetPatient(ctx context.Context, id int64) (*Patient, error)
	CreatePatient(ctx context.Context, p Patient) (*Patient, error)
	UpdatePatient(ctx context.Context, p Patient) (*Patient, error)
	DeletePatient(ctx context.Context, id int64) (bool, error)
}
