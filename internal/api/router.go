package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/registry"
)

type RouterConfig struct {
	Checks      []HealthCheck
	RateLimiter *IPRateLimiter
	Env         string
	Version     string
}

func newBaseRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	return r
}

// NewSchedulerRouter serves the appointment API under /Consulta.
func NewSchedulerRouter(svc *appointment.Service, cfg RouterConfig) http.Handler {
	r := newBaseRouter(cfg)

	r.Route("/Consulta", func(r chi.Router) {
		r.Use(cfg.RateLimiter.Middleware)

		r.Post("/", createAppointmentHandler(svc))
		r.Post("/Realizar/{id}", completeAppointmentHandler(svc))
		r.Get("/Filtro", filterAppointmentsHandler(svc))
		r.Get("/GetAll", listAppointmentsHandler(svc))
		r.Get("/Ping", pingHandler)
		r.Get("/{id}", getAppointmentHandler(svc))
		r.Delete("/{id}", deleteAppointmentHandler(svc))
	})

	return r
}

// NewRegistryRouter serves clinics, doctors, patients and specialties.
func NewRegistryRouter(svc *registry.Service, cfg RouterConfig) http.Handler {
	r := newBaseRouter(cfg)

	r.Group(func(r chi.Router) {
		r.Use(cfg.RateLimiter.Middleware)

		r.Route("/Especialidade", func(r chi.Router) {
			r.Get("/GetAll", listSpecialtiesHandler(svc))
			r.Get("/{id}", getSpecialtyHandler(svc))
			r.Post("/", createSpecialtyHandler(svc))
			r.Put("/{id}", updateSpecialtyHandler(svc))
			r.Delete("/{id}", deleteSpecialtyHandler(svc))
		})

		r.Route("/Clinica", func(r chi.Router) {
			r.Get("/GetAll", listClinicsHandler(svc))
			r.Get("/{id}", getClinicHandler(svc))
			r.Post("/", createClinicHandler(svc))
			r.Put("/{id}", updateClinicHandler(svc))
			r.Delete("/{id}", deleteClinicHandler(svc))
		})

		r.Route("/Medico", func(r chi.Router) {
			r.Get("/GetAll", listDoctorsHandler(svc))
			r.Get("/ByEspecialidade/{id}", listDoctorsBySpecialtyHandler(svc))
			r.Get("/GetByEspecialidade/{id}", listDoctorsBySpecialtyHandler(svc))
			r.Get("/{id}", getDoctorHandler(svc))
			r.Post("/", createDoctorHandler(svc))
			r.Put("/{id}", updateDoctorHandler(svc))
			r.Delete("/{id}", deleteDoctorHandler(svc))
		})

		r.Route("/Paciente", func(r chi.Router) {
			r.Get("/GetAll", listPatientsHandler(svc))
			r.Get("/{id}", getPatientHandler(svc))
			r.Post("/", createPatientHandler(svc))
			r.Put("/{id}", updatePatientHandler(svc))
			r.Delete("/{id}", deletePatientHandler(svc))
		})
	})

	return r
}
