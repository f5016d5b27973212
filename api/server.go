/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. Metrics:    Prometheus request count and latency per route pattern
  5. CORS:       Cross-origin requests for the roster board

ROUTE GROUPS:
  /api/employees        Employee directory
  /api/registrations/*  Sheet ingestion
  /api/week             Target week
  /api/roster/*         Draft, lock, load
  /api/history          Locked weeks
  /api/scenarios/*      Demo sheets
  /metrics              Prometheus scrape endpoint

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/roster/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/shift-roster/telemetry"
)

// DefaultAllowedOrigins is used when no origins are configured.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(telemetry.MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Handle("/metrics", telemetry.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/employees", h.ListEmployees)

		r.Route("/registrations", func(r chi.Router) {
			r.Get("/", h.GetRegistrations)
			r.Post("/refresh", h.RefreshRegistrations)
			r.Post("/import", h.ImportRegistrations)
		})

		r.Get("/week", h.GetWeek)

		r.Route("/roster", func(r chi.Router) {
			r.Get("/", h.GetRoster)
			r.Post("/generate", h.GenerateRoster)
			r.Post("/lock", h.LockRoster)
			r.Get("/load", h.GetLoad)
		})

		r.Get("/history", h.GetHistory)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
