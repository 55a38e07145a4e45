package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS specialties (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	active     INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS clinics (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	address    TEXT,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	active     INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS doctors (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	specialty_id INTEGER REFERENCES specialties(id) ON DELETE SET NULL,
	crm          TEXT,
	created_at   TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	active       INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS patients (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	email      TEXT,
	phone      TEXT,
	birth_date TEXT,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	active     INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_doctors_specialty ON doctors (specialty_id) WHERE active = 1;
`

const (
	sqliteTimeLayout = "2006-01-02 15:04:05"
	birthDateLayout  = "2006-01-02"

	specialtyColumns = `id, name, created_at, active`
	clinicColumns    = `id, name, address, created_at, active`
	patientColumns   = `id, name, email, phone, birth_date, created_at, active`
	doctorSelect     = `
		SELECT d.id, d.name, d.specialty_id, d.crm, d.created_at, d.active,
		       s.id, s.name, s.created_at, s.active
		FROM doctors d
		JOIN specialties s ON s.id = d.specialty_id`
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate registry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(sqliteTimeLayout, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func noRows(err, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

// softDelete flips an active row to inactive. Table names are constants.
func (r *SQLiteRepository) softDelete(ctx context.Context, table string, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE `+table+` SET active = 0 WHERE id = ? AND active = 1`, id)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// --- specialties ---

func scanSpecialty(row rowScanner) (*Specialty, error) {
	var s Specialty
	var createdAt string
	if err := row.Scan(&s.ID, &s.Name, &createdAt, &s.Active); err != nil {
		return nil, noRows(err, ErrSpecialtyNotFound)
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("specialty %d created_at: %w", s.ID, err)
	}
	s.CreatedAt = t
	return &s, nil
}

func (r *SQLiteRepository) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+specialtyColumns+` FROM specialties WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Specialty
	for rows.Next() {
		s, err := scanSpecialty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetSpecialty(ctx context.Context, id int64) (*Specialty, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+specialtyColumns+` FROM specialties WHERE id = ? AND active = 1`, id)
	return scanSpecialty(row)
}

func (r *SQLiteRepository) CreateSpecialty(ctx context.Context, s Specialty) (*Specialty, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO specialties (name) VALUES (?)
		RETURNING `+specialtyColumns, s.Name)
	return scanSpecialty(row)
}

func (r *SQLiteRepository) UpdateSpecialty(ctx context.Context, s Specialty) (*Specialty, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE specialties SET name = ?, active = ? WHERE id = ?
		RETURNING `+specialtyColumns, s.Name, s.Active, s.ID)
	return scanSpecialty(row)
}

func (r *SQLiteRepository) DeleteSpecialty(ctx context.Context, id int64) (bool, error) {
	return r.softDelete(ctx, "specialties", id)
}

// --- clinics ---

func scanClinic(row rowScanner) (*Clinic, error) {
	var c Clinic
	var address sql.NullString
	var createdAt string
	if err := row.Scan(&c.ID, &c.Name, &address, &createdAt, &c.Active); err != nil {
		return nil, noRows(err, ErrClinicNotFound)
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("clinic %d created_at: %w", c.ID, err)
	}
	c.Address = address.String
	c.CreatedAt = t
	return &c, nil
}

func (r *SQLiteRepository) ListClinics(ctx context.Context) ([]Clinic, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+clinicColumns+` FROM clinics WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Clinic
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetClinic(ctx context.Context, id int64) (*Clinic, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clinicColumns+` FROM clinics WHERE id = ? AND active = 1`, id)
	return scanClinic(row)
}

func (r *SQLiteRepository) CreateClinic(ctx context.Context, c Clinic) (*Clinic, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO clinics (name, address) VALUES (?, ?)
		RETURNING `+clinicColumns, c.Name, nullable(c.Address))
	return scanClinic(row)
}

func (r *SQLiteRepository) UpdateClinic(ctx context.Context, c Clinic) (*Clinic, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE clinics SET name = ?, address = ?, active = ? WHERE id = ?
		RETURNING `+clinicColumns, c.Name, nullable(c.Address), c.Active, c.ID)
	return scanClinic(row)
}

func (r *SQLiteRepository) DeleteClinic(ctx context.Context, id int64) (bool, error) {
	return r.softDelete(ctx, "clinics", id)
}

// --- doctors ---

func scanDoctor(row rowScanner) (*Doctor, error) {
	var (
		d                    Doctor
		s                    Specialty
		crm                  sql.NullString
		createdAt, sCreateAt string
	)
	err := row.Scan(
		&d.ID, &d.Name, &d.SpecialtyID, &crm, &createdAt, &d.Active,
		&s.ID, &s.Name, &sCreateAt, &s.Active,
	)
	if err != nil {
		return nil, noRows(err, ErrDoctorNotFound)
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("doctor %d created_at: %w", d.ID, err)
	}
	if s.CreatedAt, err = parseTime(sCreateAt); err != nil {
		return nil, fmt.Errorf("specialty %d created_at: %w", s.ID, err)
	}
	d.CRM = crm.String
	d.Specialty = &s
	return &d, nil
}

func (r *SQLiteRepository) queryDoctors(ctx context.Context, query string, args ...any) ([]Doctor, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	return r.queryDoctors(ctx, doctorSelect+`
		WHERE d.active = 1 AND s.active = 1
		ORDER BY d.id`)
}

func (r *SQLiteRepository) ListDoctorsBySpecialty(ctx context.Context, specialtyID int64) ([]Doctor, error) {
	return r.queryDoctors(ctx, doctorSelect+`
		WHERE d.active = 1 AND s.active = 1 AND d.specialty_id = ?
		ORDER BY d.id`, specialtyID)
}

// GetDoctor does not check the specialty's active flag; only the doctor's.
func (r *SQLiteRepository) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	row := r.db.QueryRowContext(ctx, doctorSelect+` WHERE d.id = ? AND d.active = 1`, id)
	return scanDoctor(row)
}

func (r *SQLiteRepository) getDoctorAnyState(ctx context.Context, id int64) (*Doctor, error) {
	row := r.db.QueryRowContext(ctx, doctorSelect+` WHERE d.id = ?`, id)
	return scanDoctor(row)
}

func (r *SQLiteRepository) CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO doctors (name, specialty_id, crm) VALUES (?, ?, ?)
		RETURNING id`, d.Name, d.SpecialtyID, nullable(d.CRM)).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert doctor: %w", err)
	}
	return r.getDoctorAnyState(ctx, id)
}

func (r *SQLiteRepository) UpdateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE doctors SET name = ?, specialty_id = ?, crm = ?, active = ? WHERE id = ?`,
		d.Name, d.SpecialtyID, nullable(d.CRM), d.Active, d.ID)
	if err != nil {
		return nil, fmt.Errorf("update doctor %d: %w", d.ID, err)
	}
	if err := requireAffected(res, ErrDoctorNotFound); err != nil {
		return nil, err
	}
	return r.getDoctorAnyState(ctx, d.ID)
}

func (r *SQLiteRepository) DeleteDoctor(ctx context.Context, id int64) (bool, error) {
	return r.softDelete(ctx, "doctors", id)
}

// --- patients ---

func scanPatient(row rowScanner) (*Patient, error) {
	var (
		p                   Patient
		email, phone, birth sql.NullString
		createdAt           string
	)
	if err := row.Scan(&p.ID, &p.Name, &email, &phone, &birth, &createdAt, &p.Active); err != nil {
		return nil, noRows(err, ErrPatientNotFound)
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("patient %d created_at: %w", p.ID, err)
	}
	p.CreatedAt = t
	p.Email = email.String
	p.Phone = phone.String
	if birth.Valid && birth.String != "" {
		bd, err := time.ParseInLocation(birthDateLayout, birth.String, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("patient %d birth_date: %w", p.ID, err)
		}
		p.BirthDate = &bd
	}
	return &p, nil
}

func birthDateValue(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(birthDateLayout), Valid: true}
}

func (r *SQLiteRepository) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = ? AND active = 1`, id)
	return scanPatient(row)
}

func (r *SQLiteRepository) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO patients (name, email, phone, birth_date) VALUES (?, ?, ?, ?)
		RETURNING `+patientColumns,
		p.Name, nullable(p.Email), nullable(p.Phone), birthDateValue(p.BirthDate))
	return scanPatient(row)
}

func (r *SQLiteRepository) UpdatePatient(ctx context.Context, p Patient) (*Patient, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE patients SET name = ?, email = ?, phone = ?, birth_date = ?, active = ? WHERE id = ?
		RETURNING `+patientColumns,
		p.Name, nullable(p.Email), nullable(p.Phone), birthDateValue(p.BirthDate), p.Active, p.ID)
	return scanPatient(row)
}

func (r *SQLiteRepository) DeletePatient(ctx context.Context, id int64) (bool, error) {
	return r.softDelete(ctx, "patients", id)
}

var _ Store = (*SQLiteRepository)(nil)
