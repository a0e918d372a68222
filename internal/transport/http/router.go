package http

import (
	"net/http"

	"github.com/fieldforce-api/internal/config"
	"github.com/fieldforce-api/internal/domain"
	"github.com/fieldforce-api/internal/transport/http/handler"
	appmiddleware "github.com/fieldforce-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second with a burst of 10; the clock buttons get mashed.
	clockRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	attendanceH := handler.NewAttendanceHandler(deps.Attendance, deps.Zone)
	healthH := handler.NewHealthHandler(deps.DB)

	r.Get("/health", healthH.Check)

	r.Route("/clock-in-out", func(r chi.Router) {
		r.Use(authMw)

		r.With(clockRL.Limit).Post("/clock-in", attendanceH.ClockIn)
		r.With(clockRL.Limit).Post("/clock-out", attendanceH.ClockOut)
		r.Get("/status/{userId}", attendanceH.Status)
		r.Get("/sessions/{userId}", attendanceH.Sessions)

		// Operational endpoints, admin only.
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

			r.Post("/trigger-auto-clockout", attendanceH.TriggerAutoClockout)
			r.Get("/active-sessions-count", attendanceH.ActiveSessionsCount)
			r.Post("/force-clockout/{userId}", attendanceH.ForceClockout)
		})
	})

	return r
}
