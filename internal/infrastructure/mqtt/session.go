package mqtt

import (
	"fmt"
	"sync"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// subackFailure is the SUBACK return code for a rejected subscription.
const subackFailure = 0x80

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Listener receives session events. Any field may be nil.
//
// Callbacks run on paho goroutines, never on the goroutine that called Open.
type Listener struct {
	OnConnect func()
	OnMessage func(topic string, payload []byte)
	OnError   func(err error)
	OnClose   func()
}

// Dialer opens broker sessions.
type Dialer struct {
	newClient func(*pahomqtt.ClientOptions) pahomqtt.Client
	logger    Logger
}

// NewDialer creates a Dialer backed by paho.mqtt.golang.
// logger may be nil.
func NewDialer(logger Logger) *Dialer {
	return &Dialer{newClient: pahomqtt.NewClient, logger: logger}
}

// Session is one broker connection attempt and its lifetime.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Once RemoveAllListeners returns, no further listener callback starts.
type Session struct {
	client pahomqtt.Client
	logger Logger

	listenerMu sync.RWMutex
	listener   Listener

	closeOnce sync.Once
	ended     atomic.Bool
}

// Open validates opts, creates a paho client and starts connecting.
//
// Open does not wait for the broker. Connection success, failure and loss
// are delivered to listener:
//   - success: OnConnect
//   - failed attempt: OnError wrapping ErrConnectionFailed, then OnClose
//   - lost connection: OnError wrapping ErrConnectionLost, then OnClose
//
// Returns:
//   - *Session: The session, connecting in the background
//   - error: If the URL or options are invalid
func (d *Dialer) Open(brokerURL string, opts Options, listener Listener) (*Session, error) {
	clientOpts, err := buildClientOptions(brokerURL, opts)
	if err != nil {
		return nil, err
	}

	s := &Session{logger: d.logger, listener: listener}

	clientOpts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		s.emitConnect()
	})
	clientOpts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		s.emitError(fmt.Errorf("%w: %w", ErrConnectionLost, err))
		s.emitClose()
	})
	clientOpts.SetDefaultPublishHandler(s.handleMessage)

	s.client = d.newClient(clientOpts)

	token := s.client.Connect()
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			s.emitError(fmt.Errorf("%w: %w", ErrConnectionFailed, err))
			s.emitClose()
		}
	}()

	return s, nil
}

// Subscribe requests a subscription to filter.
//
// Messages are delivered to the listener's OnMessage. done, if non-nil,
// receives nil on a granted SUBACK, ErrSubscriptionRejected when the broker
// refuses the filter, or a wrapped ErrSubscribeFailed.
func (s *Session) Subscribe(filter string, qos byte, done func(error)) {
	if err := s.checkRequest(filter, qos, ValidateFilter); err != nil {
		complete(done, fmt.Errorf("%w: %w", ErrSubscribeFailed, err))
		return
	}

	token := s.client.Subscribe(filter, qos, nil)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			complete(done, fmt.Errorf("%w: %w", ErrSubscribeFailed, err))
			return
		}
		if rejected(token, filter) {
			complete(done, ErrSubscriptionRejected)
			return
		}
		complete(done, nil)
	}()
}

// Publish sends payload to topic, never retained.
//
// done, if non-nil, receives nil once the broker acknowledges the message
// (immediately for QoS 0) or a wrapped ErrPublishFailed.
func (s *Session) Publish(topic string, payload []byte, qos byte, done func(error)) {
	if err := s.checkRequest(topic, qos, ValidatePublishTopic); err != nil {
		complete(done, fmt.Errorf("%w: %w", ErrPublishFailed, err))
		return
	}
	if len(payload) > maxPayloadSize {
		complete(done, fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize))
		return
	}

	token := s.client.Publish(topic, qos, false, payload)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			complete(done, fmt.Errorf("%w: %w", ErrPublishFailed, err))
			return
		}
		complete(done, nil)
	}()
}

// RemoveAllListeners detaches the listener. Events that arrive afterwards
// are dropped.
func (s *Session) RemoveAllListeners() {
	s.listenerMu.Lock()
	s.listener = Listener{}
	s.listenerMu.Unlock()
}

// End closes the connection. With force, in-flight work is abandoned;
// otherwise paho is given a short quiesce period. OnClose fires once if
// the listener is still attached. Calling End more than once is a no-op.
func (s *Session) End(force bool) {
	if !s.ended.CompareAndSwap(false, true) {
		return
	}
	var quiesce uint = defaultDisconnectQuiesce
	if force {
		quiesce = 0
	}
	s.client.Disconnect(quiesce)
	s.emitClose()
}

func (s *Session) checkRequest(topic string, qos byte, validate func(string) error) error {
	if s.ended.Load() {
		return ErrSessionEnded
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	return validate(topic)
}

func (s *Session) current() Listener {
	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()
	return s.listener
}

func (s *Session) emitConnect() {
	if fn := s.current().OnConnect; fn != nil {
		fn()
	}
}

func (s *Session) emitError(err error) {
	if fn := s.current().OnError; fn != nil {
		fn(err)
	}
}

func (s *Session) emitClose() {
	s.closeOnce.Do(func() {
		if fn := s.current().OnClose; fn != nil {
			fn()
		}
	})
}

// handleMessage forwards a message to OnMessage with panic recovery.
func (s *Session) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Error("MQTT handler panic recovered",
				"topic", msg.Topic(),
				"panic", r,
			)
		}
	}()

	fn := s.current().OnMessage
	if fn == nil {
		return
	}
	fn(msg.Topic(), msg.Payload())
}

// rejected reports whether a SUBACK refused filter.
func rejected(token pahomqtt.Token, filter string) bool {
	st, ok := token.(interface{ Result() map[string]byte })
	if !ok {
		return false
	}
	code, found := st.Result()[filter]
	return found && code == subackFailure
}

// complete delivers err to done on a separate goroutine.
func complete(done func(error), err error) {
	if done == nil {
		return
	}
	go done(err)
}
