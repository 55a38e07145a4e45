package registryclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, srv.Client(), 0)
	require.NoError(t, err)
	return c
}

func TestClient_GetClinic(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Clinica/1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"ID":1,"NAME":"Central","address":"1 Main St","active":true,"createdAt":"2024-01-01T00:00:00Z"}`))
	})
	c := newTestClient(t, mux)

	got, err := c.GetClinic(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, &appointment.Clinic{ID: 1, Name: "Central", Address: "1 Main St", Active: true}, got)
}

func TestClient_NotFoundSentinels(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	ctx := context.Background()

	_, err := c.GetClinic(ctx, 9)
	assert.ErrorIs(t, err, appointment.ErrClinicNotFound)

	_, err = c.GetDoctor(ctx, 9)
	assert.ErrorIs(t, err, appointment.ErrDoctorNotFound)

	_, err = c.GetPatient(ctx, 9)
	assert.ErrorIs(t, err, appointment.ErrPatientNotFound)

	doctors, err := c.GetDoctorsBySpecialty(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, doctors)
}

func TestClient_ServerErrorIsNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := c.GetPatient(context.Background(), 3)
	assert.ErrorIs(t, err, appointment.ErrNotFound)
}

func TestClient_GetDoctorsBySpecialty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Medico/ByEspecialidade/4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"A","specialtyId":4,"crm":"X"},{"id":2,"name":"B","specialtyId":4}]`))
	})
	c := newTestClient(t, mux)

	got, err := c.GetDoctorsBySpecialty(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "X", got[0].CRM)
	assert.Equal(t, int64(4), got[1].SpecialtyID)
}

func TestClient_BaseURLWithPathPrefix(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/registry/Paciente/3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":3,"name":"Ana","email":"ana@example.com"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL+"/registry", srv.Client(), 0)
	require.NoError(t, err)

	got, err := c.GetPatient(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.Email)
}

func TestClient_DecodeFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))

	_, err := c.GetDoctor(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, appointment.ErrNotFound)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, nil, time.Second)
	require.NoError(t, err)

	_, err = c.GetClinic(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, appointment.ErrNotFound)
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("localhost:8081", nil, time.Second)
	assert.Error(t, err)
}
