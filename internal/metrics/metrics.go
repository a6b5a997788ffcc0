package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/garage-remote/internal/garage"
)

const namespace = "garage"

// Label values.
const (
	resultDecoded = "decoded"
	resultDropped = "dropped"
	resultOK      = "ok"
	resultError   = "error"
	msPerSecond   = 1000
)

var (
	statuses = []garage.ConnectionStatus{
		garage.StatusDisconnected,
		garage.StatusConnecting,
		garage.StatusConnected,
		garage.StatusError,
	}
	doorStates = []garage.DeviceState{
		garage.StateListening,
		garage.StateTriggering,
		garage.StateThrottled,
		garage.StateUnknown,
	}
)

// Metrics holds the garage remote collectors and their registry.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	sessions   prometheus.Counter
	messages   *prometheus.CounterVec
	commands   *prometheus.CounterVec
	failures   *prometheus.CounterVec
	status     *prometheus.GaugeVec
	doorState  *prometheus.GaugeVec
	lastUpdate prometheus.Gauge
}

// New creates and registers the garage collectors.
// With runtime set, Go runtime and process collectors are registered too.
func New(runtime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Broker sessions handed to the transport.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_messages_total",
			Help:      "Messages received on the state topic.",
		}, []string{"result"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_published_total",
			Help:      "Door commands whose publish completed.",
		}, []string{"result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Errors surfaced through the status snapshot.",
		}, []string{"kind"}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_status",
			Help:      "1 for the current connection status, 0 otherwise.",
		}, []string{"status"}),
		doorState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "door_state",
			Help:      "1 for the last reported door state, 0 otherwise.",
		}, []string{"state"}),
		lastUpdate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_update_timestamp_seconds",
			Help:      "Timestamp of the last state message, in unix seconds.",
		}),
	}

	m.registry.MustRegister(
		m.sessions, m.messages, m.commands, m.failures,
		m.status, m.doorState, m.lastUpdate,
	)
	if runtime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// Pre-create label series so dashboards see zeros before the first event.
	for _, r := range []string{resultDecoded, resultDropped} {
		m.messages.WithLabelValues(r)
	}
	for _, r := range []string{resultOK, resultError} {
		m.commands.WithLabelValues(r)
	}
	m.Observe(garage.InitialSnapshot())

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SessionOpened implements garage.Recorder.
func (m *Metrics) SessionOpened() {
	m.sessions.Inc()
}

// StateMessage implements garage.Recorder.
func (m *Metrics) StateMessage(decoded bool) {
	if decoded {
		m.messages.WithLabelValues(resultDecoded).Inc()
		return
	}
	m.messages.WithLabelValues(resultDropped).Inc()
}

// CommandPublished implements garage.Recorder.
func (m *Metrics) CommandPublished(err error) {
	if err != nil {
		m.commands.WithLabelValues(resultError).Inc()
		return
	}
	m.commands.WithLabelValues(resultOK).Inc()
}

// Failure implements garage.Recorder.
func (m *Metrics) Failure(kind string) {
	m.failures.WithLabelValues(kind).Inc()
}

// Observe mirrors a snapshot into the gauges.
// It has the garage.Observer signature and is meant to be passed to
// Manager.Subscribe.
func (m *Metrics) Observe(s garage.Snapshot) {
	for _, st := range statuses {
		m.status.WithLabelValues(string(st)).Set(boolToFloat(st == s.Status))
	}
	for _, ds := range doorStates {
		m.doorState.WithLabelValues(string(ds)).Set(boolToFloat(ds == s.GarageState))
	}
	if s.LastUpdate != nil {
		m.lastUpdate.Set(float64(*s.LastUpdate) / msPerSecond)
	} else {
		m.lastUpdate.Set(0)
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var _ garage.Recorder = (*Metrics)(nil)
