package garage

import "time"

// MQTT settings fixed for every session opened by the Manager.
const (
	// protocolVersion selects MQTT 3.1.1.
	protocolVersion = 4

	// qosAtLeastOnce is used for the state subscription and for commands.
	qosAtLeastOnce byte = 1

	// DefaultKeepAlive is used when ManagerOptions.KeepAlive is zero.
	DefaultKeepAlive = 60 * time.Second

	// DefaultClientIDPrefix is used when ManagerOptions.ClientIDPrefix is empty.
	DefaultClientIDPrefix = "garage-web"
)

// SessionOptions configures one transport session.
type SessionOptions struct {
	ClientID        string
	ProtocolVersion uint
	Clean           bool
	Reconnect       bool
	KeepAlive       time.Duration
	Username        string
	Password        string
}

// Listener receives transport events for one session.
// Nil fields are ignored.
type Listener struct {
	OnConnect func()
	OnMessage func(topic string, payload []byte)
	OnError   func(err error)
	OnClose   func()
}

// Session is an open publish/subscribe session with a broker.
//
// Subscribe and Publish must not block; their done callbacks are invoked
// once the broker acknowledges (err == nil) or the operation fails.
type Session interface {
	Subscribe(topic string, qos byte, done func(err error))
	Publish(topic string, payload []byte, qos byte, done func(err error))

	// RemoveAllListeners detaches the Listener passed to Open.
	RemoveAllListeners()

	// End closes the session. With force set it does not wait for
	// in-flight operations.
	End(force bool)
}

// Transport opens broker sessions.
//
// Open must return without waiting for the network. Listener callbacks must
// not be invoked synchronously from within Open.
type Transport interface {
	Open(brokerURL string, opts SessionOptions, listener Listener) (Session, error)
}
