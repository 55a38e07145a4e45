package appointment

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/db"
)

// newTestPgRepo runs against TEST_POSTGRES_DSN inside a throwaway schema.
func newTestPgRepo(t *testing.T) *PgRepository {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	admin, err := db.ConnectPostgres(ctx, dsn, 2)
	require.NoError(t, err)

	schema := "appointments_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
	})

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewPgRepository(pool)
	require.NoError(t, repo.Migrate(ctx))
	return repo
}

func seedPgAppointment(t *testing.T, repo *PgRepository, doctorID, clinicID int64, when time.Time) *Appointment {
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

func TestPgRepository_CreateAndGet(t *testing.T) {
	repo := newTestPgRepo(t)
	ctx := context.Background()

	sp := time.FixedZone("BRT", -3*60*60)
	created := seedPgAppointment(t, repo, 2, 1, time.Date(2024, 6, 1, 7, 0, 0, 0, sp))
	assert.NotZero(t, created.ID)
	assert.Equal(t, StatusScheduled, created.Status)
	assert.True(t, created.Active)
	assert.Equal(t, time.UTC, created.ScheduledAt.Location())
	assert.True(t, created.ScheduledAt.Equal(at(10, 0, 0)))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = repo.GetByID(ctx, created.ID+1000)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestPgRepository_UpdateAndSoftDelete(t *testing.T) {
	repo := newTestPgRepo(t)
	ctx := context.Background()

	a := seedPgAppointment(t, repo, 2, 1, at(10, 0, 0))
	require.NoError(t, a.Complete("follow-up in two weeks"))

	updated, err := repo.Update(ctx, *a)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)
	assert.Equal(t, "follow-up in two weeks", updated.Notes)

	_, err = repo.Update(ctx, Appointment{ID: a.ID + 1000, ScheduledAt: at(9, 0, 0), Status: StatusScheduled, Active: true})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	ok, err := repo.SoftDelete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SoftDelete(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPgRepository_FindConflict(t *testing.T) {
	repo := newTestPgRepo(t)
	ctx := context.Background()
	window := 30 * time.Minute

	existing := seedPgAppointment(t, repo, 2, 1, at(10, 0, 0))
	deleted := seedPgAppointment(t, repo, 2, 1, at(12, 0, 0))
	_, err := repo.SoftDelete(ctx, deleted.ID)
	require.NoError(t, err)

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
		{"half second past upper bound", 2, 1, at(10, 30, 0).Add(500 * time.Millisecond), false},
		{"just before lower bound", 2, 1, at(9, 29, 59), false},
		{"other doctor", 5, 1, at(10, 0, 0), false},
		{"other clinic", 2, 7, at(10, 0, 0), false},
		{"deleted booking", 2, 1, at(12, 0, 0), false},
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
