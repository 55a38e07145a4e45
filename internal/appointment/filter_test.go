package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func filterFixture() []Appointment {
	return []Appointment{
		{ID: 1, PatientID: 10, DoctorID: 20, ClinicID: 30, ScheduledAt: at(8, 0, 0), Status: StatusScheduled, Active: true},
		{ID: 2, PatientID: 11, DoctorID: 20, ClinicID: 30, ScheduledAt: at(9, 0, 0), Status: StatusAwaitingSlot, Active: true},
		{ID: 3, PatientID: 10, DoctorID: 21, ClinicID: 31, ScheduledAt: at(12, 0, 0), Status: StatusCompleted, Active: true},
		{ID: 4, PatientID: 12, DoctorID: 21, ClinicID: 30, ScheduledAt: at(18, 0, 0), Status: StatusScheduled, Active: true},
	}
}

func ids(in []Appointment) []int64 {
	out := make([]int64, 0, len(in))
	for _, a := range in {
		out = append(out, a.ID)
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"zero filter hides completed", Filter{}, []int64{1, 2, 4}},
		{"include completed", Filter{IncludeCompleted: true}, []int64{1, 2, 3, 4}},
		{"range is inclusive", Filter{From: at(8, 0, 0), To: at(12, 0, 0), IncludeCompleted: true}, []int64{1, 2, 3}},
		{"open ended from", Filter{From: at(9, 0, 0)}, []int64{2, 4}},
		{"open ended to", Filter{To: at(9, 0, 0)}, []int64{1, 2}},
		{"status", Filter{Status: StatusAwaitingSlot}, []int64{2}},
		{"completed status without include yields nothing", Filter{Status: StatusCompleted}, []int64{}},
		{"completed status with include", Filter{Status: StatusCompleted, IncludeCompleted: true}, []int64{3}},
		{"doctor", Filter{DoctorID: ptr(21), IncludeCompleted: true}, []int64{3, 4}},
		{"patient", Filter{PatientID: ptr(10)}, []int64{1}},
		{"clinic", Filter{ClinicID: ptr(30)}, []int64{1, 2, 4}},
		{"combined", Filter{DoctorID: ptr(20), PatientID: ptr(11), ClinicID: ptr(30)}, []int64{2}},
		{"no match", Filter{DoctorID: ptr(99)}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(filterFixture())
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_ApplyKeepsInputOrder(t *testing.T) {
	in := filterFixture()
	in[0], in[3] = in[3], in[0]

	got := Filter{}.Apply(in)
	assert.Equal(t, []int64{4, 2, 1}, ids(got))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("scheduled")
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, st)

	st, err = ParseStatus(" AWAITINGSLOT ")
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingSlot, st)

	st, err = ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, Status(""), st)

	_, err = ParseStatus("cancelled")
	assert.Error(t, err)
}

func TestAppointment_Complete(t *testing.T) {
	for _, from := range []Status{StatusScheduled, StatusAwaitingSlot} {
		a := Appointment{ID: 1, Status: from, Notes: "old"}
		require.NoError(t, a.Complete("new"))
		assert.Equal(t, StatusCompleted, a.Status)
		assert.Equal(t, "new", a.Notes)
	}

	a := Appointment{ID: 7, Status: StatusCompleted, Notes: "kept"}
	err := a.Complete("ignored")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "kept", a.Notes)
	assert.Contains(t, err.Error(), "appointment 7")
}

func TestConflictRange(t *testing.T) {
	from, to := conflictRange(at(10, 0, 0), 30*time.Minute)
	assert.Equal(t, at(9, 30, 0), from)
	assert.Equal(t, at(10, 30, 0), to)
}
