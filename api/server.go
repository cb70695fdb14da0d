/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for a local dashboard

ROUTE GROUPS:
  /api/items/*              Work items (tasks and habits) and their lifecycle
  /api/roll, /api/roll/can  Daily planning
  /api/points*              Scoring read endpoints (current, history, projection)
  /api/goals/*              Goals
  /api/rest-days/*          Rest days
  /api/backups/*            Backups
  /api/scheduler/status     Scheduler observability
  /api/settings             Settings singleton
  /*                        Static files (optional local dashboard)

SECURITY NOTE:
  No authentication middleware. This is a single-user engine;
  cmd/server listens on every interface at the configured -port, not
  only on localhost.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.CreateItem)
			r.Get("/today-habits", h.TodayHabits)
			r.Get("/{id}", h.GetItem)
			r.Put("/{id}", h.UpdateItem)
			r.Delete("/{id}", h.DeleteItem)
			r.Post("/{id}/start", h.StartItem)
			r.Post("/{id}/complete", h.CompleteItem)
		})
		r.Post("/stop", h.StopActive)

		r.Get("/roll/can", h.CanRoll)
		r.Post("/roll", h.Roll)

		r.Get("/points", h.CurrentPoints)
		r.Get("/points/history", h.PointsHistory)
		r.Get("/points/projection", h.Projection)

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", h.ListGoals)
			r.Post("/", h.CreateGoal)
			r.Delete("/{id}", h.DeleteGoal)
		})

		r.Route("/rest-days", func(r chi.Router) {
			r.Get("/", h.ListRestDays)
			r.Post("/", h.CreateRestDay)
			r.Delete("/{date}", h.DeleteRestDay)
		})

		r.Route("/backups", func(r chi.Router) {
			r.Get("/", h.ListBackups)
			r.Post("/", h.CreateBackup)
			r.Get("/{id}/download", h.DownloadBackup)
			r.Delete("/{id}", h.DeleteBackup)
		})

		r.Get("/scheduler/status", h.SchedulerStatus)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/", h.UpdateSettings)
		})
	})

	// Serve static files for an optional local dashboard.
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, r.URL.Path)
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Dayline</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Dayline API</h1>
<p>No local dashboard is built. The HTTP API below is fully usable on its own.</p>
<h2>Endpoints</h2>
<ul>
<li><a href="/api/items">/api/items</a> - Work items</li>
<li><a href="/api/points">/api/points</a> - Current points</li>
<li><a href="/api/scheduler/status">/api/scheduler/status</a> - Scheduler status</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
