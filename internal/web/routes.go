package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samnang/facecheck/internal/web/handlers"
	"github.com/samnang/facecheck/internal/web/middleware"
)

func (s *Server) setupRoutes(sessionManager *middleware.SessionManager) {
	authHandler := handlers.NewAuthHandler(s.config, sessionManager)
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Attendance, s.deps.Identifier)
	registerHandler := handlers.NewRegisterHandler(s.deps.Store, s.deps.Identifier, s.deps.Detector, s.deps.Photos)
	recordsHandler := handlers.NewRecordsHandler(s.deps.Store, s.deps.Attendance)
	employeesHandler := handlers.NewEmployeesHandler(s.deps.Store, s.deps.Identifier)
	statsHandler := handlers.NewStatsHandler(s.deps.Attendance)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth routes
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)

		// Kiosk check-in is public; the tablet at the door has no session.
		r.Post("/attendance", attendanceHandler.Check)

		// Admin routes require a session
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessionManager))

			r.Post("/register", registerHandler.Register)

			r.Get("/records", recordsHandler.List)
			r.Get("/admin/stats", statsHandler.Get)

			r.Get("/employees", employeesHandler.List)
			r.Get("/employees/{id}", employeesHandler.Get)
			r.Put("/employees/{id}", employeesHandler.Update)
			r.Delete("/employees/{id}", employeesHandler.Delete)
		})
	})

	s.router.Get("/*", serveIndex)
}

// serveIndex returns a placeholder page until a frontend is wired in. The
// kiosk and the admin dashboard talk to the JSON API directly.
func serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>FaceCheck</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #1a1a2e; color: #eee; }
        .container { text-align: center; }
        h1 { color: #00d9ff; }
        p { color: #aaa; }
        a { color: #00d9ff; }
    </style>
</head>
<body>
    <div class="container">
        <h1>FaceCheck Attendance</h1>
        <p>Point the kiosk or the admin dashboard at this server.</p>
        <p>API is available at <a href="/api/v1/health">/api/v1/health</a></p>
    </div>
</body>
</html>`))
}
