// Package health provides liveness and readiness endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// pingTimeout bounds the readiness datastore check.
const pingTimeout = 3 * time.Second

// DatabasePinger defines the interface for checking database connectivity.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Engine    string `json:"engine,omitempty"`
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Config holds the configuration for the health handlers.
type Config struct {
	ServiceName string
	Version     string
	Engine      string
	Logger      *logrus.Logger
	DB          DatabasePinger
}

// Handler serves /health, /live and /ready.
type Handler struct {
	serviceName string
	version     string
	engine      string
	logger      *logrus.Entry
	db          DatabasePinger
	mu          sync.RWMutex
	ready       bool
}

// NewHandler creates health handlers. They report not ready until SetReady.
func NewHandler(cfg Config) *Handler {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Handler{
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		engine:      cfg.Engine,
		logger:      log.WithField("component", "health"),
		db:          cfg.DB,
	}
}

// SetReady marks the service as ready to accept traffic.
func (h *Handler) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// IsReady returns whether the service is ready.
func (h *Handler) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// Register mounts the endpoints on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/live", h.handleLive).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/ready", h.handleReady).Methods(http.MethodGet, http.MethodHead)
}

// handleHealth handles the /health endpoint - basic liveness check.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   h.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Engine:    h.engine,
	})
}

// handleLive handles the /live endpoint - kubernetes liveness probe.
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: h.serviceName,
	})
}

// handleReady handles the /ready endpoint - checks database connectivity.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := make(map[string]string)
	allHealthy := true

	if !h.IsReady() {
		allHealthy = false
		checks["service"] = "not_ready"
	} else {
		checks["service"] = "ok"
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			allHealthy = false
			checks["database"] = "unreachable"
			h.logger.WithError(err).Warn("Readiness check failed to reach database")
		} else {
			checks["database"] = "ok"
		}
	}

	response := ReadyResponse{
		Service:  h.serviceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}

	code := http.StatusOK
	response.Status = "ok"
	if !allHealthy {
		code = http.StatusServiceUnavailable
		response.Status = "not_ready"
	}

	h.writeJSON(w, code, response)
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithError(err).Debug("Failed to write health response")
	}
}
