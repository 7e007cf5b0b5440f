package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BookingsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_bookings_accepted_total",
		Help: "Appointments that passed validation and were persisted.",
	})

	BookingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_bookings_rejected_total",
		Help: "Booking requests rejected, by reason.",
	}, []string{"reason"})

	Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_decisions_total",
		Help: "Doctor confirm/reject transitions, by outcome.",
	}, []string{"status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scheduler_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
