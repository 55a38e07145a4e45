package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/logger"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

const (
	conflictSubject = "Appointment conflict"
	conflictBody    = "Your appointment conflicts with another booking. It has been saved with status Awaiting Slot. " +
		"Change the time or wait for the clinic to resolve it."

	// registry lookups in flight while enriching a list
	enrichConcurrency = 8
)

var (
	ErrScheduledInPast = errors.New("scheduled time is in the past")
	ErrScheduleBusy    = errors.New("schedule is being modified, please retry")
)

type Service struct {
	repo     Store
	registry RegistryClient
	notifier Notifier
	locker   redisclient.Locker
	cfg      config.Config
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Store, registry RegistryClient, notifier Notifier, locker redisclient.Locker, cfg config.Config) *Service {
	if locker == nil {
		locker = redisclient.NopLocker{}
	}
	return &Service{
		repo:     repo,
		registry: registry,
		notifier: notifier,
		locker:   locker,
		cfg:      cfg,
		log:      logger.With(zap.String("component", "scheduler")),
		now:      time.Now,
	}
}

// CreateAppointment books a doctor at a clinic for a patient.
//
// A booking that falls inside the conflict window of another active booking
// for the same doctor and clinic is still saved, as AwaitingSlot, and the
// patient is notified. The existing booking is never touched.
func (s *Service) CreateAppointment(ctx context.Context, req CreateRequest) (*AppointmentDetail, error) {
	if s.cfg.RequireFutureSchedule && req.ScheduledAt.Before(s.now()) {
		s.log.Warn("rejecting appointment in the past", zap.Time("scheduled_at", req.ScheduledAt))
		return nil, ErrScheduledInPast
	}

	// order matters: it decides which missing entity is reported first
	clinic, err := s.registry.GetClinic(ctx, req.ClinicID)
	if err != nil {
		return nil, s.lookupError(err, "Clinic", req.ClinicID)
	}
	doctor, err := s.registry.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, s.lookupError(err, "Doctor", req.DoctorID)
	}
	patient, err := s.registry.GetPatient(ctx, req.PatientID)
	if err != nil {
		return nil, s.lookupError(err, "Patient", req.PatientID)
	}

	var created *Appointment

	err = s.locker.WithScheduleLock(ctx, req.DoctorID, req.ClinicID, func(lockCtx context.Context) error {
		existing, err := s.repo.FindConflict(lockCtx, req.DoctorID, req.ClinicID, req.ScheduledAt, s.cfg.ConflictWindow)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("check schedule conflict: %w", err)
		}
		if existing != nil {
			s.log.Info("schedule conflict detected",
				zap.Int64("existing_id", existing.ID),
				zap.Int64("doctor_id", req.DoctorID),
				zap.Int64("clinic_id", req.ClinicID),
				zap.Time("scheduled_at", req.ScheduledAt),
			)
		}

		appt, err := s.repo.Create(lockCtx, Appointment{
			PatientID:   req.PatientID,
			DoctorID:    req.DoctorID,
			ClinicID:    req.ClinicID,
			ScheduledAt: req.ScheduledAt,
			Status:      initialStatus(existing != nil),
			Active:      true,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrScheduleBusy
		}
		return nil, err
	}

	s.log.Info("appointment saved",
		zap.Int64("id", created.ID),
		zap.String("status", string(created.Status)),
	)

	if created.Status == StatusAwaitingSlot {
		s.notifyConflict(ctx, patient)
	}

	return &AppointmentDetail{
		Appointment: *created,
		Clinic:      clinic,
		Doctor:      doctor,
		Patient:     patient,
	}, nil
}

// notifyConflict never fails the booking; delivery problems are only logged.
func (s *Service) notifyConflict(ctx context.Context, patient *Patient) {
	if s.notifier == nil {
		return
	}
	if patient.Email == "" {
		s.log.Warn("patient has no email, skipping conflict notification", zap.Int64("patient_id", patient.ID))
		return
	}

	s.log.Info("sending conflict notification", zap.Int64("patient_id", patient.ID))
	if err := s.notifier.Notify(ctx, patient.Email, conflictSubject, conflictBody); err != nil {
		s.log.Error("conflict notification failed",
			zap.Int64("patient_id", patient.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) lookupError(err error, entity string, id int64) error {
	if errors.Is(err, ErrNotFound) {
		nf := &NotFoundError{Entity: entity, ID: id, Err: err}
		s.log.Warn("business error", zap.Error(nf))
		return nf
	}
	return fmt.Errorf("load %s %d: %w", entity, id, err)
}

// CompleteAppointment closes an appointment and replaces its notes.
func (s *Service) CompleteAppointment(ctx context.Context, id int64, notes string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			nf := &NotFoundError{Entity: "Appointment", ID: id, Err: err}
			s.log.Warn("business error", zap.Error(nf))
			return nil, nf
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if err := appt.Complete(notes); err != nil {
		s.log.Warn("business error", zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.Update(ctx, *appt)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, &NotFoundError{Entity: "Appointment", ID: id, Err: err}
		}
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	s.log.Info("appointment completed", zap.Int64("id", id))
	return updated, nil
}

// FilterAppointments scans every active appointment and filters in memory.
func (s *Service) FilterAppointments(ctx context.Context, f Filter) ([]Appointment, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return f.Apply(all), nil
}

// GetAppointment loads one appointment with its registry entities attached.
func (s *Service) GetAppointment(ctx context.Context, id int64) (*AppointmentDetail, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, &NotFoundError{Entity: "Appointment", ID: id, Err: err}
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	detail := &AppointmentDetail{Appointment: *appt}
	if err := s.enrich(ctx, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

// ListAppointments returns every active appointment, enriched.
func (s *Service) ListAppointments(ctx context.Context) ([]AppointmentDetail, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	details := make([]AppointmentDetail, len(all))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i := range all {
		details[i].Appointment = all[i]
		d := &details[i]
		g.Go(func() error {
			return s.enrich(gctx, d)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

// DeleteAppointment soft deletes; false means there was nothing active to delete.
func (s *Service) DeleteAppointment(ctx context.Context, id int64) (bool, error) {
	ok, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete appointment: %w", err)
	}
	if ok {
		s.log.Info("appointment deleted", zap.Int64("id", id))
	}
	return ok, nil
}

// enrich attaches live registry copies. Entities that no longer resolve stay nil.
func (s *Service) enrich(ctx context.Context, d *AppointmentDetail) error {
	clinic, err := s.registry.GetClinic(ctx, d.ClinicID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("load clinic %d: %w", d.ClinicID, err)
	}
	doctor, err := s.registry.GetDoctor(ctx, d.DoctorID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("load doctor %d: %w", d.DoctorID, err)
	}
	patient, err := s.registry.GetPatient(ctx, d.PatientID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("load patient %d: %w", d.PatientID, err)
	}

	d.Clinic, d.Doctor, d.Patient = clinic, doctor, patient
	return nil
}
