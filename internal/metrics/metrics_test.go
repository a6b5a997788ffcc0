package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/garage-remote/internal/garage"
)

func TestRecorder(t *testing.T) {
	m := New(false)

	m.SessionOpened()
	m.SessionOpened()
	m.StateMessage(true)
	m.StateMessage(false)
	m.StateMessage(true)
	m.CommandPublished(nil)
	m.CommandPublished(errors.New("not acknowledged"))
	m.Failure("publish")
	m.Failure("transport")
	m.Failure("transport")

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"sessions", testutil.ToFloat64(m.sessions), 2},
		{"messages decoded", testutil.ToFloat64(m.messages.WithLabelValues(resultDecoded)), 2},
		{"messages dropped", testutil.ToFloat64(m.messages.WithLabelValues(resultDropped)), 1},
		{"commands ok", testutil.ToFloat64(m.commands.WithLabelValues(resultOK)), 1},
		{"commands error", testutil.ToFloat64(m.commands.WithLabelValues(resultError)), 1},
		{"failures publish", testutil.ToFloat64(m.failures.WithLabelValues("publish")), 1},
		{"failures transport", testutil.ToFloat64(m.failures.WithLabelValues("transport")), 2},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestObserve(t *testing.T) {
	m := New(false)

	if got := testutil.ToFloat64(m.status.WithLabelValues("disconnected")); got != 1 {
		t.Errorf("initial disconnected gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.doorState.WithLabelValues("UNKNOWN")); got != 1 {
		t.Errorf("initial UNKNOWN gauge = %v, want 1", got)
	}

	ts := int64(1_700_000_000_500)
	m.Observe(garage.Snapshot{
		Status:      garage.StatusConnected,
		GarageState: garage.StateThrottled,
		LastUpdate:  &ts,
	})

	for _, st := range statuses {
		want := 0.0
		if st == garage.StatusConnected {
			want = 1
		}
		if got := testutil.ToFloat64(m.status.WithLabelValues(string(st))); got != want {
			t.Errorf("status{%s} = %v, want %v", st, got, want)
		}
	}
	for _, ds := range doorStates {
		want := 0.0
		if ds == garage.StateThrottled {
			want = 1
		}
		if got := testutil.ToFloat64(m.doorState.WithLabelValues(string(ds))); got != want {
			t.Errorf("door_state{%s} = %v, want %v", ds, got, want)
		}
	}
	if got := testutil.ToFloat64(m.lastUpdate); got != 1_700_000_000.5 {
		t.Errorf("last_update = %v, want 1700000000.5", got)
	}

	m.Observe(garage.InitialSnapshot())
	if got := testutil.ToFloat64(m.lastUpdate); got != 0 {
		t.Errorf("last_update after reset = %v, want 0", got)
	}
}

func TestObserve_StoreSubscription(t *testing.T) {
	m := New(false)
	store := garage.NewStore(garage.InitialSnapshot())
	unsubscribe := store.Subscribe(m.Observe)
	defer unsubscribe()

	store.Set(garage.Snapshot{Status: garage.StatusError, Error: "boom", GarageState: garage.StateUnknown})

	if got := testutil.ToFloat64(m.status.WithLabelValues("error")); got != 1 {
		t.Errorf("status{error} = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	m := New(true)
	m.SessionOpened()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body, _ := io.ReadAll(rec.Body) //nolint:errcheck // Recorder body cannot fail
	for _, want := range []string{
		"garage_sessions_opened_total 1",
		`garage_connection_status{status="disconnected"} 1`,
		`garage_state_messages_total{result="dropped"} 0`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNew_Isolated(t *testing.T) {
	a := New(true)
	b := New(true)
	a.SessionOpened()

	if got := testutil.ToFloat64(b.sessions); got != 0 {
		t.Errorf("second instance sessions = %v, want 0", got)
	}
}
