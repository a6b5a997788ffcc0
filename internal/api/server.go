package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/garage-remote/internal/garage"
	"github.com/nerrad567/garage-remote/internal/i18n"
	"github.com/nerrad567/garage-remote/internal/infrastructure/config"
	"github.com/nerrad567/garage-remote/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Garage is the connection manager surface used by the API.
// *garage.Manager satisfies it.
type Garage interface {
	Snapshot() garage.Snapshot
	Subscribe(fn garage.Observer) (unsubscribe func())
	Connect(params garage.ConnectionParams) error
	Disconnect()
	OpenDoor() error
}

// Locales is the language resolver surface used by the API.
// *i18n.Resolver satisfies it.
type Locales interface {
	Current() string
	OnLocaleChange(ctx context.Context, code string) error
}

// HealthChecker is implemented by dependencies reported by /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Metrics config.MetricsConfig
	Logger  *logging.Logger
	Garage  Garage

	// Locales is optional; an in-memory resolver is used when nil.
	Locales Locales

	// MetricsHandler is mounted at Metrics.Path when metrics are enabled.
	MetricsHandler http.Handler

	// Database is optional and only used for health reporting.
	Database HealthChecker

	Version string
}

// Server is the HTTP API server for the garage remote.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg            config.APIConfig
	wsCfg          config.WebSocketConfig
	metricsCfg     config.MetricsConfig
	logger         *logging.Logger
	garage         Garage
	locales        Locales
	metricsHandler http.Handler
	database       HealthChecker
	version        string

	hub         *Hub
	unsubscribe func()

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called. The WebSocket hub is
// subscribed to the garage status immediately so it always holds the
// latest snapshot.
//
// Parameters:
//   - deps: Required dependencies (logger, garage)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Garage == nil {
		return nil, fmt.Errorf("garage manager is required")
	}

	s := &Server{
		cfg:            deps.Config,
		wsCfg:          deps.WS,
		metricsCfg:     deps.Metrics,
		logger:         deps.Logger.With("component", "api"),
		garage:         deps.Garage,
		locales:        deps.Locales,
		metricsHandler: deps.MetricsHandler,
		database:       deps.Database,
		version:        deps.Version,
	}
	if s.locales == nil {
		s.locales = i18n.NewResolver(nil, nil)
	}
	if s.wsCfg.Path == "" {
		s.wsCfg.Path = defaultWSPath
	}

	s.hub = NewHub(s.wsCfg, s.logger)
	s.unsubscribe = s.garage.Subscribe(s.hub.Publish)

	return s, nil
}

// Start begins listening for HTTP connections.
//
// The listener is bound before Start returns so bind errors are reported
// to the caller. Requests are served on a background goroutine until
// Close is called.
//
// Parameters:
//   - ctx: Parent context for background goroutines
//
// Returns:
//   - error: If the server fails to bind (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", addr, err)
	}

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}(s.server)

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It detaches the hub from the garage status, closes WebSocket clients and
// waits up to 10 seconds for in-flight requests to complete.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}

	s.mu.Lock()
	srv := s.server
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if srv == nil {
		return nil
	}

	ctx, done := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer done()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
