package appointment

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/db"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	sqlDB, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "scheduler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewSQLiteRepository(sqlDB)
	require.NoError(t, repo.Migrate(ctx))
	return repo
}

func seedAppointment(t *testing.T, repo *SQLiteRepository, doctorID, clinicID int64, when time.Time) *Appointment {
	t.Helper()
	a, err := repo.Create(context.Background(), Appointment{
		PatientID:   3,
		DoctorID:    doctorID,
		ClinicID:    clinicID,
		ScheduledAt: when,
		Status:      StatusScheduled,
	})
	require.NoError(t, err)
	return a
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := seedAppointment(t, repo, 2, 1, at(10, 0, 0))
	assert.NotZero(t, created.ID)
	assert.True(t, created.Active)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Empty(t, created.Notes)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, time.UTC, got.ScheduledAt.Location())
}

func TestSQLiteRepository_StoresUTC(t *testing.T) {
	repo := newTestRepo(t)
	sp := time.FixedZone("BRT", -3*60*60)

	created := seedAppointment(t, repo, 2, 1, time.Date(2024, 6, 1, 7, 0, 0, 0, sp))
	assert.True(t, created.ScheduledAt.Equal(at(10, 0, 0)))

	_, err := repo.FindConflict(context.Background(), 2, 1, at(10, 15, 0), 30*time.Minute)
	assert.NoError(t, err)
}

func TestSQLiteRepository_KeepsSubSecondPrecision(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	when := at(10, 30, 0).Add(500 * time.Millisecond)
	created := seedAppointment(t, repo, 2, 1, when)
	assert.True(t, created.ScheduledAt.Equal(when), "stored %s, sent %s", created.ScheduledAt, when)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.ScheduledAt.Equal(when))

	// the stored fraction decides the window, not a truncated copy
	_, err = repo.FindConflict(ctx, 2, 1, at(10, 0, 0), 30*time.Minute)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestSQLiteRepository_MigrateWidensLegacyTimestamps(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, clinic_id, scheduled_at, status)
		VALUES (3, 2, 1, '2024-06-01 10:30:00', 'Scheduled')
	`)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(ctx))

	got, err := repo.FindConflict(ctx, 2, 1, at(10, 0, 0), 30*time.Minute)
	require.NoError(t, err)
	assert.True(t, got.ScheduledAt.Equal(at(10, 30, 0)))
}

func TestSQLiteRepository_GetMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestSQLiteRepository_Update(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := seedAppointment(t, repo, 2, 1, at(10, 0, 0))
	a.Status = StatusCompleted
	a.Notes = "follow-up in two weeks"

	updated, err := repo.Update(ctx, *a)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)
	assert.Equal(t, "follow-up in two weeks", updated.Notes)

	_, err = repo.Update(ctx, Appointment{ID: 999, ScheduledAt: at(9, 0, 0), Status: StatusScheduled, Active: true})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestSQLiteRepository_SoftDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := seedAppointment(t, repo, 2, 1, at(10, 0, 0))
	b := seedAppointment(t, repo, 2, 1, at(14, 0, 0))

	ok, err := repo.SoftDelete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SoftDelete(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.SoftDelete(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestSQLiteRepository_ListOrdersBySchedule(t *testing.T) {
	repo := newTestRepo(t)

	late := seedAppointment(t, repo, 2, 1, at(16, 0, 0))
	early := seedAppointment(t, repo, 2, 1, at(8, 0, 0))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].ID)
	assert.Equal(t, late.ID, list[1].ID)
}

func TestSQLiteRepository_FindConflict(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	window := 30 * time.Minute

	existing := seedAppointment(t, repo, 2, 1, at(10, 0, 0))

	tests := []struct {
		name     string
		doctorID int64
		clinicID int64
		when     time.Time
		conflict bool
	}{
		{"same time", 2, 1, at(10, 0, 0), true},
		{"upper bound inclusive", 2, 1, at(10, 30, 0), true},
		{"lower bound inclusive", 2, 1, at(9, 30, 0), true},
		{"just past upper bound", 2, 1, at(10, 30, 1), false},
		{"just before lower bound", 2, 1, at(9, 29, 59), false},
		{"half second past upper bound", 2, 1, at(10, 30, 0).Add(500 * time.Millisecond), false},
		{"half second before lower bound", 2, 1, at(9, 30, 0).Add(-500 * time.Millisecond), false},
		{"half second inside upper bound", 2, 1, at(10, 29, 59).Add(500 * time.Millisecond), true},
		{"other doctor", 5, 1, at(10, 0, 0), false},
		{"other clinic", 2, 7, at(10, 0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindConflict(ctx, tt.doctorID, tt.clinicID, tt.when, window)
			if !tt.conflict {
				assert.ErrorIs(t, err, ErrAppointmentNotFound)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, existing.ID, got.ID)
		})
	}
}

func TestSQLiteRepository_FindConflictIgnoresDeleted(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := seedAppointment(t, repo, 2, 1, at(10, 0, 0))
	_, err := repo.SoftDelete(ctx, a.ID)
	require.NoError(t, err)

	_, err = repo.FindConflict(ctx, 2, 1, at(10, 0, 0), 30*time.Minute)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestSQLiteRepository_FindConflictCountsCompleted(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := seedAppointment(t, repo, 2, 1, at(10, 0, 0))
	require.NoError(t, a.Complete("done"))
	_, err := repo.Update(ctx, *a)
	require.NoError(t, err)

	got, err := repo.FindConflict(ctx, 2, 1, at(10, 10, 0), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}
