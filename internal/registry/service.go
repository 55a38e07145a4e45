package registry

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/logger"
)

type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		log:   logger.With(zap.String("component", "registry")),
	}
}

func (s *Service) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	return s.store.ListSpecialties(ctx)
}

func (s *Service) GetSpecialty(ctx context.Context, id int64) (*Specialty, error) {
	return s.store.GetSpecialty(ctx, id)
}

func (s *Service) CreateSpecialty(ctx context.Context, sp Specialty) (*Specialty, error) {
	if err := requireName("specialty", sp.Name); err != nil {
		return nil, err
	}
	created, err := s.store.CreateSpecialty(ctx, sp)
	if err != nil {
		return nil, fmt.Errorf("create specialty: %w", err)
	}
	s.log.Info("specialty created", zap.Int64("id", created.ID))
	return created, nil
}

func (s *Service) UpdateSpecialty(ctx context.Context, sp Specialty) (*Specialty, error) {
	if err := requireName("specialty", sp.Name); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateSpecialty(ctx, sp)
	return logUpdate(s.log, "specialty", sp.ID, updated, err)
}

func (s *Service) DeleteSpecialty(ctx context.Context, id int64) (bool, error) {
	ok, err := s.store.DeleteSpecialty(ctx, id)
	return s.logDelete("specialty", id, ok, err)
}

func (s *Service) ListClinics(ctx context.Context) ([]Clinic, error) {
	return s.store.ListClinics(ctx)
}

func (s *Service) GetClinic(ctx context.Context, id int64) (*Clinic, error) {
	return s.store.GetClinic(ctx, id)
}

func (s *Service) CreateClinic(ctx context.Context, c Clinic) (*Clinic, error) {
	if err := requireName("clinic", c.Name); err != nil {
		return nil, err
	}
	created, err := s.store.CreateClinic(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create clinic: %w", err)
	}
	s.log.Info("clinic created", zap.Int64("id", created.ID))
	return created, nil
}

func (s *Service) UpdateClinic(ctx context.Context, c Clinic) (*Clinic, error) {
	if err := requireName("clinic", c.Name); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateClinic(ctx, c)
	return logUpdate(s.log, "clinic", c.ID, updated, err)
}

func (s *Service) DeleteClinic(ctx context.Context, id int64) (bool, error) {
	ok, err := s.store.DeleteClinic(ctx, id)
	return s.logDelete("clinic", id, ok, err)
}

func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	return s.store.ListDoctors(ctx)
}

func (s *Service) ListDoctorsBySpecialty(ctx context.Context, specialtyID int64) ([]Doctor, error) {
	return s.store.ListDoctorsBySpecialty(ctx, specialtyID)
}

func (s *Service) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	return s.store.GetDoctor(ctx, id)
}

// CreateDoctor requires the referenced specialty to exist and be active.
func (s *Service) CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	if err := s.validateDoctor(ctx, d); err != nil {
		return nil, err
	}
	created, err := s.store.CreateDoctor(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	s.log.Info("doctor created", zap.Int64("id", created.ID), zap.Int64("specialty_id", d.SpecialtyID))
	return created, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	if err := s.validateDoctor(ctx, d); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateDoctor(ctx, d)
	return logUpdate(s.log, "doctor", d.ID, updated, err)
}

func (s *Service) DeleteDoctor(ctx context.Context, id int64) (bool, error) {
	ok, err := s.store.DeleteDoctor(ctx, id)
	return s.logDelete("doctor", id, ok, err)
}

func (s *Service) validateDoctor(ctx context.Context, d Doctor) error {
	if err := requireName("doctor", d.Name); err != nil {
		return err
	}
	sp, err := s.store.GetSpecialty(ctx, d.SpecialtyID)
	if err != nil {
		if errors.Is(err, ErrSpecialtyNotFound) {
			s.log.Warn("doctor references unavailable specialty", zap.Int64("specialty_id", d.SpecialtyID))
			return fmt.Errorf("%w (id %d)", ErrSpecialtyUnavailable, d.SpecialtyID)
		}
		return fmt.Errorf("load specialty %d: %w", d.SpecialtyID, err)
	}
	if !sp.Active {
		return fmt.Errorf("%w (id %d)", ErrSpecialtyUnavailable, d.SpecialtyID)
	}
	return nil
}

func (s *Service) ListPatients(ctx context.Context) ([]Patient, error) {
	return s.store.ListPatients(ctx)
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	return s.store.GetPatient(ctx, id)
}

func (s *Service) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	if err := requireName("patient", p.Name); err != nil {
		return nil, err
	}
	created, err := s.store.CreatePatient(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	s.log.Info("patient created", zap.Int64("id", created.ID))
	return created, nil
}

func (s *Service) UpdatePatient(ctx context.Context, p Patient) (*Patient, error) {
	if err := requireName("patient", p.Name); err != nil {
		return nil, err
	}
	updated, err := s.store.UpdatePatient(ctx, p)
	return logUpdate(s.log, "patient", p.ID, updated, err)
}

func (s *Service) DeletePatient(ctx context.Context, id int64) (bool, error) {
	ok, err := s.store.DeletePatient(ctx, id)
	return s.logDelete("patient", id, ok, err)
}

func logUpdate[T any](log *zap.Logger, kind string, id int64, v *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn(kind+" not found for update", zap.Int64("id", id))
			return nil, err
		}
		return nil, fmt.Errorf("update %s %d: %w", kind, id, err)
	}
	log.Info(kind+" updated", zap.Int64("id", id))
	return v, nil
}

func (s *Service) logDelete(kind string, id int64, ok bool, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	if !ok {
		s.log.Warn(kind+" not found for delete", zap.Int64("id", id))
		return false, nil
	}
	s.log.Info(kind+" deleted", zap.Int64("id", id))
	return true, nil
}
