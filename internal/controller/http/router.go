package http

import (
	"net/http"
	"time"

	"github.com/expertdesk/availability/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// NewRouter wires the query and mutation endpoints under /api/v1.
func NewRouter(
	availability *service.AvailabilityService,
	schedule *service.ScheduleService,
	maxRequestsPerSecond int,
	logger *zap.Logger,
) *chi.Mux {
	availabilityHandler := NewAvailabilityHandler(availability, logger)
	scheduleHandler := NewScheduleHandler(schedule, logger)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(httprate.LimitByIP(maxRequestsPerSecond, time.Second))
	router.Use(RequestLogger(logger))

	router.Route("/api/v1/experts/{expertID}", func(r chi.Router) {
		r.Get("/schedule", availabilityHandler.GetSchedule)
		r.Get("/available-dates", availabilityHandler.GetAvailableDates)

		r.Route("/patterns", func(r chi.Router) {
			r.Get("/", scheduleHandler.ListPatterns)
			r.Post("/", scheduleHandler.CreatePattern)
			r.Put("/{id}", scheduleHandler.UpdatePattern)
			r.Delete("/{id}", scheduleHandler.DeletePattern)
		})

		r.Route("/overrides", func(r chi.Router) {
			r.Get("/", scheduleHandler.ListOverrides)
			r.Post("/", scheduleHandler.CreateOverride)
			r.Put("/{id}", scheduleHandler.UpdateOverride)
			r.Delete("/{id}", scheduleHandler.DeleteOverride)
		})
	})

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return router
}
