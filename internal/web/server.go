// Package web exposes the import pipeline and activation gates as a JSON
// HTTP API.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clebronrivera/reading-compass-sub001/internal/config"
	"github.com/clebronrivera/reading-compass-sub001/internal/core"
)

// Server is the HTTP server for the content management API.
type Server struct {
	service      *core.Service
	router       *chi.Mux
	server       *http.Server
	maxBodySize  int64
	defaultActor string
}

// NewServer creates a Server around a core service.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service:      service,
		router:       chi.NewRouter(),
		maxBodySize:  cfg.Import.MaxBodySize,
		defaultActor: cfg.Import.DefaultActor,
	}
	s.setupMiddleware(cfg)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) setupMiddleware(cfg *config.Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(cfg.Server.RequestTimeout))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/imports/types", s.handleListImportTypes)
		r.Get("/imports/template/{importType}", s.handleTemplate)
		r.Get("/imports/history", s.handleHistory)
		r.Post("/imports/{importType}/validate", s.handleValidate)
		r.Post("/imports/{importType}", s.handleImport)

		r.Get("/assessments/{assessmentID}/activation", s.handleCheckActivation)
		r.Post("/assessments/{assessmentID}/activate", s.handleActivate)

		r.Post("/spec-versions/{specVersionID}/mark-valid", s.handleMarkValid)
		r.Post("/spec-versions/{specVersionID}/mark-incomplete", s.handleMarkIncomplete)
	})
}

// Handler returns the configured router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
