package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medcore/hospital-scheduling/internal/metrics"
)

type RouterConfig struct {
	Service Scheduler
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Log     zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	r.Use(MetricsMiddleware)

	// Health and metrics
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Appointment endpoints
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Service, cfg.Log))
		r.Patch("/", updateStatusHandler(cfg.Service, cfg.Log))
		r.Get("/", listAppointmentsHandler(cfg.Service, cfg.Log))

		// Action links from the doctor notification mail
		r.Get("/confirm", decisionLinkHandler(cfg.Service, cfg.Log, "Confirmed"))
		r.Get("/reject", decisionLinkHandler(cfg.Service, cfg.Log, "Canceled"))

		r.Get("/doctor/{doctorId}", listByDoctorHandler(cfg.Service, cfg.Log))
		r.Get("/patient/{patientId}", listByPatientHandler(cfg.Service, cfg.Log))
		r.Get("/{id}", getAppointmentHandler(cfg.Service, cfg.Log))
	})

	return r
}
