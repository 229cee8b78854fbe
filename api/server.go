/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the admin frontend

ROUTE GROUPS:
  /api/reports/*        Dashboard, dimension pages, exports
  /api/records/*        Imports
  /api/scenarios/*      Demo scenarios
  /healthz              Liveness and store ping

ROUTING NOTE:
  /api/reports/export.{format} and /api/reports/{dimension} share a
  segment. chi tries the static "export." prefix first, so "agents" never
  reaches the export handler.

SECURITY NOTE:
  No authentication middleware. All endpoints are public; put the server
  behind the backend's auth proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins are the local frontend dev servers.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured. An empty
// origins list uses DefaultAllowedOrigins.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.GetReport)
			r.Get("/export.{format}", h.ExportReport)
			r.Get("/{dimension}", h.GetDimension)
		})

		r.Route("/records", func(r chi.Router) {
			r.Post("/import", h.ImportRecords)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Agency Commission Reports</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Agency Commission Reports API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/reports">/api/reports</a> - Summary and top performers</li>
<li><a href="/api/reports/agencies">/api/reports/agencies</a> - Ranked agencies (also agents, suburbs, streets)</li>
<li><a href="/api/reports/export.csv">/api/reports/export.csv</a> - Download (also .pdf, .xlsx)</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
