package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the engine's HTTP surface.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/leads", func(r chi.Router) {
			r.Post("/score-all", h.ScoreAllContacts)
			r.Post("/lifecycle", h.ApplyLifecycleRules)
			r.Post("/{id}/score", h.ScoreContact)
			r.Post("/{id}/follow-up", h.ScheduleFollowUp)
			r.Post("/{id}/auto-schedule", h.AutoScheduleFollowUp)
		})

		r.Route("/sequences", func(r chi.Router) {
			r.Get("/", h.ListSequences)
			r.Post("/preview", h.PreviewTemplate)
			r.Get("/{id}", h.GetSequence)
			r.Get("/{id}/metrics", h.GetSequenceMetrics)
			r.Post("/{id}/enter", h.EnterSequence)
			r.Post("/{id}/trigger", h.TriggerSequence)
		})

		r.Route("/calendar", func(r chi.Router) {
			r.Get("/slots", h.GetAvailableSlots)
			r.Put("/events/{id}/status", h.UpdateEventStatus)
		})

		r.Get("/metrics/dispatch", h.GetDispatchMetrics)
	})

	return r
}
