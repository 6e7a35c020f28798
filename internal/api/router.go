package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// NewRouter builds and returns the Chi router with all routes configured.
// The health endpoint is unauthenticated; everything else requires a user token.
// Rate limiting is applied globally: 60 requests per minute per IP.
func NewRouter(handlers *Handlers, jwtSecret string, db dbPinger, redisClient redisPinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/api/v1/health", HealthHandlerFunc(db, redisClient, log))

	r.Group(func(r chi.Router) {
		r.Use(RequireUser(jwtSecret))

		r.Get("/api/v1/locations", handlers.Locations)
		r.Get("/api/v1/search", handlers.Search)

		r.Route("/api/v1/trips", func(r chi.Router) {
			r.Post("/", handlers.CreateTrip)
			r.Get("/", handlers.ListTrips)
			r.Get("/{id}", handlers.GetTrip)
			r.Delete("/{id}", handlers.DeleteTrip)
			r.Patch("/{id}/notifications", handlers.UpdateNotifications)
			r.Get("/{id}/recommendation", handlers.Recommendation)
		})
	})

	return r
}

var _ http.Handler = (*chi.Mux)(nil)
