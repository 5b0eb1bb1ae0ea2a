// Package server provides the HTTP server and routing for the risk service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-risk/internal/di"
	compliancehandlers "github.com/aristath/sentinel-risk/internal/modules/compliance/handlers"
	riskhandlers "github.com/aristath/sentinel-risk/internal/modules/risk/handlers"
	snapshothandlers "github.com/aristath/sentinel-risk/internal/modules/snapshots/handlers"
	stresshandlers "github.com/aristath/sentinel-risk/internal/modules/stress/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	Container *di.Container // DI container with all services
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	container      *di.Container
	systemHandlers *SystemHandlers
	runsHandlers   *RunsHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	c := cfg.Container
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		port:           cfg.Port,
		container:      c,
		systemHandlers: NewSystemHandlers(c.Scheduler, c.SnapshotStore, cfg.Log),
		runsHandlers:   NewRunsHandlers(c.Runner, c.EventBus, cfg.Log),
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.DevMode)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // run streams are long-lived; request timeouts come from middleware
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures the middleware shared by every route
func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(devMode bool) {
	c := s.container
	log := s.log

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", c.Metrics.Handler())

	riskHandler := riskhandlers.NewHandler(c.VaREngine, c.Runner, c.SnapshotStore, c.Metrics, c.Config.RiskFreeRate, log)
	stressHandler := stresshandlers.NewHandler(c.StressEngine, c.ScenarioCatalog, c.Runner, c.SnapshotStore, c.EventBus, c.Metrics, log)
	complianceHandler := compliancehandlers.NewHandler(c.ComplianceEngine, c.SnapshotStore, c.Jobs.ComplianceSweep, c.EventBus, log)
	snapshotHandler := snapshothandlers.NewHandler(c.SnapshotStore, log)

	s.router.Route("/api", func(r chi.Router) {
		// Run streams stay outside the timeout group
		r.Get("/risk/runs/{id}/ws", s.runsHandlers.HandleStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			if !devMode {
				r.Use(middleware.Compress(5))
			}

			r.Route("/risk", func(r chi.Router) {
				riskHandler.RegisterRoutes(r)
				stressHandler.RegisterRoutes(r)
				s.runsHandlers.RegisterRoutes(r)
			})
			complianceHandler.RegisterRoutes(r)
			snapshotHandler.RegisterRoutes(r)
			s.systemHandlers.RegisterRoutes(r)
		})
	})
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
