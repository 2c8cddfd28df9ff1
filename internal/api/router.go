package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pawmed/vet-clinic-booking/internal/appointment"
)

type RouterConfig struct {
	Service  *appointment.Service
	Location *time.Location
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Log      zerolog.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Availability
	r.Get("/doctors/{doctorID}/availability", availabilityHandler(cfg.Service, cfg.Log))

	// Appointments
	r.Post("/appointments", createAppointmentHandler(cfg.Service, cfg.Location, cfg.Log))
	r.Get("/appointments", listAppointmentsHandler(cfg.Service, cfg.Log))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service, cfg.Log))
	r.Patch("/appointments/{id}/status", updateStatusHandler(cfg.Service, cfg.Log))
	r.Delete("/appointments/{id}", deleteAppointmentHandler(cfg.Service, cfg.Log))

	// Schedule overrides
	r.Put("/doctor-schedules/{doctorID}/{date}", upsertOverrideHandler(cfg.Service, cfg.Log))
	r.Get("/doctor-schedules/{doctorID}", listOverridesHandler(cfg.Service, cfg.Log))
	r.Delete("/doctor-schedules/{doctorID}/{date}", deleteOverrideHandler(cfg.Service, cfg.Log))

	return r
}
