package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/loadqueue/internal/api"
	apiMiddleware "github.com/phrazzld/loadqueue/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	runHandler := api.NewRunHandler(app.scheduler, app.source, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/runs", runHandler.StartRun)

		r.Route("/runs/current", func(r chi.Router) {
			r.Get("/", runHandler.GetRun)
			r.Get("/log", runHandler.GetRunLog)
			r.Post("/stop", runHandler.StopRun)
			r.Post("/reset", runHandler.ResetRun)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
