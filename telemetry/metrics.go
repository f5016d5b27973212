// Package telemetry exposes Prometheus metrics for the roster service.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shift_roster"

var (
	// APIRequestsTotal counts HTTP requests by method, route and status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "HTTP requests handled.",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration observes HTTP latency in seconds.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "api_active_connections",
		Help:      "In-flight HTTP requests.",
	})

	// IngestionsTotal counts sheet refreshes by result ("ok" or "error").
	IngestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingestions_total",
		Help:      "Availability sheet ingestions.",
	}, []string{"result"})

	RegisteredEmployees = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "registered_employees",
		Help:      "Employees with a registration in the current sheet.",
	})

	RostersGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rosters_generated_total",
		Help:      "Draft rosters generated.",
	})

	RostersLocked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rosters_locked_total",
		Help:      "Rosters committed to history.",
	})

	UnderfilledCells = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "underfilled_cells",
		Help:      "Cells below capacity in the latest generated roster.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
