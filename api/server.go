/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:      Unique ID per request, echoed in X-Request-Id
  2. RequestLogger:  zerolog line per request
  3. Recoverer:      Panic recovery (500 instead of crash)
  4. CORS:           Cross-origin requests for a local frontend
  5. httprate:       Per-IP limit on the geofence ingest routes only

ROUTE GROUPS:
  /api/status              Presence
  /api/visits/*            Visit ingest and history
  /api/progress            Monthly progress
  /api/goals/*             Goal breakdown and locking
  /api/holidays            Resolved holiday calendar
  /api/settings            User settings
  /api/pto/*               PTO / sick days
  /api/widget              Widget snapshot

SECURITY NOTE:
  No authentication middleware. The server is meant to listen on localhost
  for a single user.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/officetrack/serve.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
)

// IngestRateLimit bounds geofence enter/exit calls per client IP.
var IngestRateLimit = struct {
	Requests int
	Window   time.Duration
}{Requests: 30, Window: time.Minute}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.GetStatus)

		// Visit routes
		r.Route("/visits", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(httprate.Limit(
					IngestRateLimit.Requests,
					IngestRateLimit.Window,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(rateLimitExceeded),
				))
				r.Post("/enter", h.EnterOffice)
				r.Post("/exit", h.ExitOffice)
			})
			r.Get("/", h.ListVisits)
			r.Put("/", h.UpsertVisit)
			r.Delete("/", h.ClearVisits)
			r.Post("/cleanup", h.CleanupVisits)
			r.Get("/{date}", h.GetVisit)
			r.Delete("/{date}", h.DeleteVisit)
		})

		r.Get("/progress", h.GetProgress)

		// Goal routes
		r.Route("/goals", func(r chi.Router) {
			r.Get("/{month}", h.GetGoal)
			r.Post("/{month}/lock", h.LockGoal)
		})

		r.Get("/holidays", h.ListHolidays)

		// Settings routes
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.PutSettings)

		// PTO routes
		r.Route("/pto", func(r chi.Router) {
			r.Post("/{date}", h.AddPTODay)
			r.Delete("/{date}", h.RemovePTODay)
		})

		r.Get("/widget", h.GetWidget)
	})

	return r
}

func rateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusTooManyRequests, "Too many requests", nil)
}
