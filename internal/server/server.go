// Package server exposes the update API, dashboard and operational endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/navwatch/internal/config"
	"github.com/yourusername/navwatch/internal/dashboard"
	"github.com/yourusername/navwatch/internal/health"
	"github.com/yourusername/navwatch/internal/ingest"
	"github.com/yourusername/navwatch/internal/metrics"
)

// Route paths
const (
	UpdatePath       = "/api/update"
	LegacyUpdatePath = "/api/update.php"
	DashboardPath    = "/"
	ScriptPath       = "/assets/js/dashboard.js"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Ingest    *ingest.Service
	Dashboard *dashboard.Builder
	Renderer  *dashboard.Renderer
	Health    *health.Handler
}

// Server is the navwatch HTTP server
type Server struct {
	router    *mux.Router
	server    *http.Server
	cfg       *config.Config
	logger    *logrus.Entry
	ingest    *ingest.Service
	dashboard *dashboard.Builder
	renderer  *dashboard.Renderer
	health    *health.Handler
	limiter   *ClientLimiter
}

// New creates a server and registers all routes.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil || deps.Ingest == nil || deps.Dashboard == nil || deps.Renderer == nil || deps.Health == nil {
		return nil, errors.New("server: missing dependency")
	}
	log := deps.Logger
	if log == nil {
		log = logrus.New()
	}

	s := &Server{
		router:    mux.NewRouter(),
		cfg:       deps.Config,
		logger:    log.WithField("component", "http"),
		ingest:    deps.Ingest,
		dashboard: deps.Dashboard,
		renderer:  deps.Renderer,
		health:    deps.Health,
		limiter:   NewClientLimiter(deps.Config.API.RateLimit, deps.Config.API.RateBurst),
	}
	s.setupRoutes()

	srv := deps.Config.Server
	s.server = &http.Server{
		Addr:         deps.Config.ListenAddress(),
		Handler:      s.router,
		ReadTimeout:  time.Duration(srv.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(srv.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(srv.IdleTimeoutSeconds) * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.recoveryMiddleware)

	// Every method reaches the update handler so the pipeline can answer 405.
	s.router.HandleFunc(UpdatePath, s.handleUpdate)
	s.router.HandleFunc(LegacyUpdatePath, s.handleUpdate)

	s.router.HandleFunc(DashboardPath, s.handleDashboard).Methods(http.MethodGet, http.MethodHead)
	s.router.HandleFunc(ScriptPath, s.handleScript).Methods(http.MethodGet, http.MethodHead)

	s.health.Register(s.router)

	if s.cfg.Metrics.Enabled {
		metrics.InitRegistry()
		s.router.Handle(s.cfg.Metrics.Path, metrics.Handler()).Methods(http.MethodGet)
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start serves until Shutdown is called. It marks the service ready first.
func (s *Server) Start() error {
	s.logger.WithFields(logrus.Fields{
		"address":     s.server.Addr,
		"environment": s.cfg.App.Environment,
		"engine":      s.cfg.Database.Engine,
	}).Info("HTTP server starting")

	s.health.SetReady(true)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.health.SetReady(false)
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	s.health.SetReady(false)
	return s.server.Shutdown(ctx)
}
