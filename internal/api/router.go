package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Route constants.
const (
	apiPrefix     = "/api/v1"
	defaultWSPath = apiPrefix + "/ws"

	// healthCheckTimeout bounds dependency checks made by /health.
	healthCheckTimeout = 2 * time.Second
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get(apiPrefix+"/health", s.handleHealth)
	r.Get(apiPrefix+"/status", s.handleStatus)

	r.Post(apiPrefix+"/connection", s.handleConnect)
	r.Delete(apiPrefix+"/connection", s.handleDisconnect)

	r.Post(apiPrefix+"/door/open", s.handleOpenDoor)

	r.Get(apiPrefix+"/locale", s.handleGetLocale)
	r.Put(apiPrefix+"/locale", s.handleSetLocale)

	r.Get(s.wsCfg.Path, s.handleWebSocket)

	if s.metricsCfg.Enabled && s.metricsHandler != nil {
		r.Handle(s.metricsCfg.Path, s.metricsHandler)
	}

	return r
}

// handleHealth returns the server health status.
// The database, when configured, must answer for the service to be healthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"version": s.version,
		"mqtt":    s.garage.Snapshot().Status,

		"websocket_clients": s.hub.ClientCount(),
	}
	status := http.StatusOK

	if s.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.database.HealthCheck(ctx); err != nil {
			s.logger.Warn("database health check failed", "error", err)
			body["status"] = "degraded"
			body["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			body["database"] = "ok"
		}
	}

	writeJSON(w, status, body)
}
