package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS appointments (
	id           BIGSERIAL PRIMARY KEY,
	patient_id   BIGINT NOT NULL,
	doctor_id    BIGINT NOT NULL,
	clinic_id    BIGINT NOT NULL,
	scheduled_at TIMESTAMPTZ NOT NULL,
	notes        TEXT,
	status       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	active       BOOLEAN NOT NULL DEFAULT true
);
CREATE INDEX IF NOT EXISTS idx_appointments_doctor_clinic
	ON appointments (doctor_id, clinic_id, scheduled_at) WHERE active;
`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("migrate appointments: %w", err)
	}
	return nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var notes *string

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.ClinicID,
		&a.ScheduledAt,
		&notes,
		&a.Status,
		&a.CreatedAt,
		&a.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	if notes != nil {
		a.Notes = *notes
	}
	a.ScheduledAt = a.ScheduledAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *PgRepository) List(ctx context.Context) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE active
		ORDER BY scheduled_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1 AND active
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) Create(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, clinic_id, scheduled_at, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+appointmentColumns,
		a.PatientID, a.DoctorID, a.ClinicID, a.ScheduledAt, nullableString(a.Notes), string(a.Status))
	return scanAppointment(row)
}

func (r *PgRepository) Update(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET patient_id = $2,
		    doctor_id = $3,
		    clinic_id = $4,
		    scheduled_at = $5,
		    notes = $6,
		    status = $7,
		    active = $8
		WHERE id = $1
		RETURNING `+appointmentColumns,
		a.ID, a.PatientID, a.DoctorID, a.ClinicID, a.ScheduledAt,
		nullableString(a.Notes), string(a.Status), a.Active)
	return scanAppointment(row)
}

func (r *PgRepository) SoftDelete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET active = false WHERE id = $1 AND active
	`, id)
	if err != nil {
		return false, fmt.Errorf("soft delete appointment %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) FindConflict(ctx context.Context, doctorID, clinicID int64, at time.Time, window time.Duration) (*Appointment, error) {
	from, to := conflictRange(at, window)

	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND clinic_id = $2
		  AND active
		  AND scheduled_at BETWEEN $3 AND $4
		ORDER BY scheduled_at
		LIMIT 1
	`, doctorID, clinicID, from, to)
	return scanAppointment(row)
}

var _ Store = (*PgRepository)(nil)
