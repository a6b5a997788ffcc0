package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/garage-remote/internal/garage"
	"github.com/nerrad567/garage-remote/internal/i18n"
	"github.com/nerrad567/garage-remote/internal/infrastructure/config"
	"github.com/nerrad567/garage-remote/internal/infrastructure/logging"
)

// stubTransport records sessions opened by the Manager. Subscribe and
// Publish acknowledgements are completed by the test.
type stubTransport struct {
	mu        sync.Mutex
	listener  garage.Listener
	opened    int
	subDone   []func(error)
	published []string
	pubDone   []func(error)
}

func (t *stubTransport) Open(_ string, _ garage.SessionOptions, l garage.Listener) (garage.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opened++
	t.listener = l
	return &stubSession{t: t}, nil
}

func (t *stubTransport) fireConnect() {
	t.mu.Lock()
	fn := t.listener.OnConnect
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (t *stubTransport) ackSubscribe(err error) {
	t.mu.Lock()
	done := t.subDone[len(t.subDone)-1]
	t.mu.Unlock()
	done(err)
}

func (t *stubTransport) publishedTopics() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.published...)
}

type stubSession struct {
	t *stubTransport
}

func (s *stubSession) Subscribe(_ string, _ byte, done func(error)) {
	s.t.mu.Lock()
	s.t.subDone = append(s.t.subDone, done)
	s.t.mu.Unlock()
}

func (s *stubSession) Publish(topic string, _ []byte, _ byte, done func(error)) {
	s.t.mu.Lock()
	s.t.published = append(s.t.published, topic)
	s.t.pubDone = append(s.t.pubDone, done)
	s.t.mu.Unlock()
}

func (s *stubSession) RemoveAllListeners() {
	s.t.mu.Lock()
	s.t.listener = garage.Listener{}
	s.t.mu.Unlock()
}

func (s *stubSession) End(bool) {}

// stubHealth is a HealthChecker with a fixed result.
type stubHealth struct{ err error }

func (h stubHealth) HealthCheck(context.Context) error { return h.err }

var errDatabaseDown = errors.New("database is locked")

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "discard"}, "test")
}

// testServerOptions tweaks the dependencies built by testServer.
type testServerOptions struct {
	database       HealthChecker
	metricsEnabled bool
	metricsHandler http.Handler
	allowedOrigins []string
}

// testServer creates a Server around a real Manager and a stub transport.
func testServer(t *testing.T, opts testServerOptions) (*Server, *garage.Manager, *stubTransport) {
	t.Helper()

	transport := &stubTransport{}
	mgr := garage.NewManager(garage.ManagerOptions{
		Transport: transport,
		Now:       func() time.Time { return time.UnixMilli(1_700_000_000_000) },
	})
	t.Cleanup(mgr.Disconnect)

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Port:     0,
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
			CORS:     config.CORSConfig{AllowedOrigins: opts.allowedOrigins},
		},
		WS: config.WebSocketConfig{
			Path:           "/api/v1/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Metrics:        config.MetricsConfig{Enabled: opts.metricsEnabled, Path: "/metrics"},
		MetricsHandler: opts.metricsHandler,
		Logger:         testLogger(),
		Garage:         mgr,
		Locales:        i18n.NewResolver(nil, nil),
		Database:       opts.database,
		Version:        "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { srv.Close() }) //nolint:errcheck // Test cleanup

	return srv, mgr, transport
}

// do runs one request through the router.
func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)
	return w
}

const validConnectBody = `{"url":"wss://broker.example:8884/mqtt","username":"alice","password":"s3cret","deviceId":"door1"}`

// connectManager drives the manager to connected through the HTTP API.
func connectManager(t *testing.T, srv *Server, mgr *garage.Manager, transport *stubTransport) {
	t.Helper()
	if w := do(srv, http.MethodPost, "/api/v1/connection", validConnectBody); w.Code != http.StatusAccepted {
		t.Fatalf("connect status = %d, want %d", w.Code, http.StatusAccepted)
	}
	transport.fireConnect()
	transport.ackSubscribe(nil)
	if got := mgr.Snapshot().Status; got != garage.StatusConnected {
		t.Fatalf("Status = %q, want connected", got)
	}
}
