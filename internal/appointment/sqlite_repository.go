package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// scheduled_at is stored as fixed-width UTC text with nanoseconds, so plain
// string comparison orders it exactly. created_at comes from CURRENT_TIMESTAMP
// and has whole seconds only.
const (
	sqliteTimeLayout   = "2006-01-02 15:04:05.000000000"
	sqliteSecondLayout = "2006-01-02 15:04:05"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS appointments (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	patient_id   INTEGER NOT NULL,
	doctor_id    INTEGER NOT NULL,
	clinic_id    INTEGER NOT NULL,
	scheduled_at TEXT NOT NULL,
	notes        TEXT,
	status       TEXT NOT NULL,
	created_at   TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	active       INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_appointments_doctor_clinic
	ON appointments (doctor_id, clinic_id, scheduled_at) WHERE active = 1;
`

// rows written with whole seconds get a zero fraction so they compare correctly
const sqliteWidenScheduledAt = `
UPDATE appointments SET scheduled_at = scheduled_at || '.000000000'
WHERE length(scheduled_at) = 19
`

const appointmentColumns = `id, patient_id, doctor_id, clinic_id, scheduled_at, notes, status, created_at, active`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Migrate creates the appointments table if it does not exist.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate appointments: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, sqliteWidenScheduledAt); err != nil {
		return fmt.Errorf("migrate appointments scheduled_at: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAppointment(row rowScanner) (*Appointment, error) {
	var (
		a           Appointment
		scheduledAt string
		createdAt   string
		notes       sql.NullString
		status      string
	)

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.ClinicID,
		&scheduledAt,
		&notes,
		&status,
		&createdAt,
		&a.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	if a.ScheduledAt, err = parseSQLiteTime(scheduledAt); err != nil {
		return nil, fmt.Errorf("appointment %d scheduled_at: %w", a.ID, err)
	}
	if a.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return nil, fmt.Errorf("appointment %d created_at: %w", a.ID, err)
	}
	a.Notes = notes.String
	a.Status = Status(status)

	return &a, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

// parseSQLiteTime reads both layouts; Go accepts a fraction after the seconds
// even when the layout has none.
func parseSQLiteTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(sqliteSecondLayout, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func nullableNotes(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *SQLiteRepository) List(ctx context.Context) ([]Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE active = 1
		ORDER BY scheduled_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanSQLiteAppointment(rows)
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

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = ? AND active = 1
	`, id)
	return scanSQLiteAppointment(row)
}

func (r *SQLiteRepository) Create(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, clinic_id, scheduled_at, notes, status)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+appointmentColumns,
		a.PatientID, a.DoctorID, a.ClinicID, formatSQLiteTime(a.ScheduledAt), nullableNotes(a.Notes), string(a.Status))
	return scanSQLiteAppointment(row)
}

func (r *SQLiteRepository) Update(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE appointments
		SET patient_id = ?,
		    doctor_id = ?,
		    clinic_id = ?,
		    scheduled_at = ?,
		    notes = ?,
		    status = ?,
		    active = ?
		WHERE id = ?
		RETURNING `+appointmentColumns,
		a.PatientID, a.DoctorID, a.ClinicID, formatSQLiteTime(a.ScheduledAt),
		nullableNotes(a.Notes), string(a.Status), a.Active, a.ID)
	return scanSQLiteAppointment(row)
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments SET active = 0 WHERE id = ? AND active = 1
	`, id)
	if err != nil {
		return false, fmt.Errorf("soft delete appointment %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) FindConflict(ctx context.Context, doctorID, clinicID int64, at time.Time, window time.Duration) (*Appointment, error) {
	from, to := conflictRange(at, window)

	row := r.db.QueryRowContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = ?
		  AND clinic_id = ?
		  AND active = 1
		  AND scheduled_at BETWEEN ? AND ?
		ORDER BY scheduled_at
		LIMIT 1
	`, doctorID, clinicID, formatSQLiteTime(from), formatSQLiteTime(to))
	return scanSQLiteAppointment(row)
}

var _ Store = (*SQLiteRepository)(nil)
