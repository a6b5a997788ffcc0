package garage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// clientIDSuffixLen keeps generated client ids within the MQTT 3.1.1 23-byte limit.
const clientIDSuffixLen = 8

// ManagerOptions holds the dependencies and settings for a Manager.
type ManagerOptions struct {
	// Transport opens broker sessions. Required.
	Transport Transport

	// Store receives every snapshot. If nil, a new Store is created.
	Store *Store

	// Logger is optional.
	Logger Logger

	// Recorder is optional.
	Recorder Recorder

	// Source is the client identity stamped on commands. Default: "web-app".
	Source string

	// KeepAlive is the MQTT keep-alive interval. Default: 60s.
	KeepAlive time.Duration

	// ClientIDPrefix prefixes generated MQTT client ids. Default: "garage-web".
	ClientIDPrefix string

	// Now overrides the clock (tests).
	Now func() time.Time
}

// Manager owns the broker session for one garage door and keeps the Store
// in sync with it.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Transport callbacks and public methods are serialised; each is applied
//     to the Store as one atomic step.
type Manager struct {
	transport Transport
	store     *Store
	decoder   *Decoder
	logger    Logger
	recorder  Recorder
	source    string
	keepAlive time.Duration
	idPrefix  string
	now       func() time.Time

	mu      sync.Mutex
	session Session
	active  *ResolvedConnection

	// generation identifies the current session; callbacks carrying an
	// older value are dropped.
	generation uint64
}

// NewManager creates a Manager with a disconnected snapshot.
func NewManager(opts ManagerOptions) *Manager {
	m := &Manager{
		transport: opts.Transport,
		store:     opts.Store,
		logger:    opts.Logger,
		recorder:  opts.Recorder,
		source:    opts.Source,
		keepAlive: opts.KeepAlive,
		idPrefix:  opts.ClientIDPrefix,
		now:       opts.Now,
	}
	if m.logger == nil {
		m.logger = nopLogger{}
	}
	if m.recorder == nil {
		m.recorder = nopRecorder{}
	}
	if m.source == "" {
		m.source = DefaultCommandSource
	}
	if m.keepAlive <= 0 {
		m.keepAlive = DefaultKeepAlive
	}
	if m.idPrefix == "" {
		m.idPrefix = DefaultClientIDPrefix
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.store == nil {
		m.store = NewStore(InitialSnapshot())
	} else {
		m.store.Set(InitialSnapshot())
	}
	m.decoder = NewDecoder(m.logger, m.now)
	return m
}

// Snapshot returns the current status snapshot.
func (m *Manager) Snapshot() Snapshot {
	return m.store.Get()
}

// Subscribe registers an observer on the status store.
func (m *Manager) Subscribe(fn Observer) (unsubscribe func()) {
	return m.store.Subscribe(fn)
}

// Connect starts a new broker session for params.
//
// Any existing session is torn down first. The outcome of the attempt is
// reported through the Store; Connect itself only fails when params are
// invalid, in which case nothing else changes.
//
// Returns:
//   - error: *ValidationError for a blank device id or URL
func (m *Manager) Connect(params ConnectionParams) error {
	resolved, err := Resolve(params)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardownLocked()
	m.generation++
	gen := m.generation

	public := resolved.Public()
	m.store.Set(Snapshot{
		Status:      StatusConnecting,
		GarageState: StateUnknown,
		Connection:  &public,
	})

	opts := SessionOptions{
		ClientID:        m.newClientID(),
		ProtocolVersion: protocolVersion,
		Clean:           true,
		Reconnect:       false,
		KeepAlive:       m.keepAlive,
		Username:        resolved.Username,
		Password:        resolved.Password,
	}

	m.logger.Info("connecting to broker",
		"url", resolved.URL,
		"device_id", resolved.DeviceID,
		"state_topic", resolved.StateTopic,
		"client_id", opts.ClientID,
	)

	session, err := m.transport.Open(resolved.URL, opts, m.listener(gen, resolved))
	if err != nil {
		m.failLocked(&SessionCreationError{Err: err})
		return nil
	}

	m.recorder.SessionOpened()
	m.session = session
	m.active = &resolved
	return nil
}

// Disconnect tears down the active session, if any, and resets the snapshot.
// It is safe to call repeatedly.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.logger.Info("disconnecting from broker")
	}
	m.teardownLocked()
	m.generation++
	m.store.Set(InitialSnapshot())
}

// OpenDoor publishes an open command to the active device.
//
// The publish outcome is reported asynchronously: an unacknowledged publish
// moves the snapshot to the error status. Commands are never retried.
//
// Returns:
//   - error: ErrNotConnected if no session is active
func (m *Manager) OpenDoor() error {
	m.mu.Lock()
	session, active, gen := m.session, m.active, m.generation
	m.mu.Unlock()

	if session == nil || active == nil {
		return ErrNotConnected
	}

	payload, err := NewOpenCommand(m.source, m.now()).Encode()
	if err != nil {
		return fmt.Errorf("encoding open command: %w", err)
	}

	topic := active.CommandTopic
	m.logger.Info("publishing open command", "topic", topic, "device_id", active.DeviceID)

	session.Publish(topic, payload, qosAtLeastOnce, func(err error) {
		m.recorder.CommandPublished(err)
		if err == nil {
			return
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.generation {
			return
		}
		m.failLocked(&PublishError{Err: err})
	})
	return nil
}

// listener builds the transport callbacks for one session generation.
func (m *Manager) listener(gen uint64, resolved ResolvedConnection) Listener {
	return Listener{
		OnConnect: func() { m.handleConnect(gen, resolved) },
		OnMessage: func(topic string, payload []byte) { m.handleMessage(gen, resolved, topic, payload) },
		OnError:   func(err error) { m.handleError(gen, err) },
		OnClose:   func() { m.handleClose(gen) },
	}
}

func (m *Manager) handleConnect(gen uint64, resolved ResolvedConnection) {
	m.mu.Lock()
	if gen != m.generation || m.session == nil {
		m.mu.Unlock()
		return
	}
	session := m.session
	m.mu.Unlock()

	m.logger.Info("broker connected, subscribing", "topic", resolved.StateTopic)

	session.Subscribe(resolved.StateTopic, qosAtLeastOnce, func(err error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.generation {
			return
		}
		if err != nil {
			m.failLocked(&SubscriptionError{Topic: resolved.StateTopic, Err: err})
			return
		}
		m.store.Update(func(s Snapshot) Snapshot {
			s.Status = StatusConnected
			s.Error = ""
			return s
		})
	})
}

func (m *Manager) handleMessage(gen uint64, resolved ResolvedConnection, topic string, payload []byte) {
	if topic != resolved.StateTopic {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}

	patch := m.decoder.Decode(payload)
	m.recorder.StateMessage(!patch.Empty())
	if patch.Empty() {
		return
	}
	m.logger.Debug("state message received", "state", patch.GarageState)
	m.store.Update(patch.Apply)
}

func (m *Manager) handleError(gen uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}
	m.failLocked(&TransportError{Err: err})
}

func (m *Manager) handleClose(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}
	m.logger.Info("broker connection closed")
	m.store.Update(func(s Snapshot) Snapshot {
		s.Status = StatusDisconnected
		return s
	})
}

// failLocked moves the snapshot to the error status. Caller holds m.mu.
func (m *Manager) failLocked(err error) {
	m.logger.Warn("garage client error", "error", err, "kind", errorKind(err))
	m.recorder.Failure(errorKind(err))
	msg := err.Error()
	m.store.Update(func(s Snapshot) Snapshot {
		s.Status = StatusError
		s.Error = msg
		return s
	})
}

// teardownLocked releases the current session. Caller holds m.mu.
func (m *Manager) teardownLocked() {
	if m.session != nil {
		m.session.RemoveAllListeners()
		m.session.End(true)
		m.session = nil
	}
	m.active = nil
}

func (m *Manager) newClientID() string {
	id := uuid.NewString()
	return fmt.Sprintf("%s-%s", m.idPrefix, id[:clientIDSuffixLen])
}

// IsValidationError reports whether err came from parameter validation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}
