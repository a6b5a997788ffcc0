package mqtt

import "errors"

// Domain-specific errors for MQTT operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidBrokerURL is returned when the broker URL cannot be parsed.
	ErrInvalidBrokerURL = errors.New("mqtt: invalid broker URL")

	// ErrUnsupportedScheme is returned for broker URLs whose scheme paho cannot dial.
	ErrUnsupportedScheme = errors.New("mqtt: unsupported broker URL scheme")

	// ErrInvalidClientID is returned when no client ID is supplied.
	ErrInvalidClientID = errors.New("mqtt: client ID cannot be empty")

	// ErrInvalidTLSConfig is returned when broker TLS material cannot be loaded.
	ErrInvalidTLSConfig = errors.New("mqtt: invalid TLS configuration")

	// ErrConnectionFailed is returned when the connection attempt fails.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrConnectionLost is reported when an established connection drops.
	ErrConnectionLost = errors.New("mqtt: connection lost")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrSubscriptionRejected is returned when the broker answers a
	// subscription with the SUBACK failure code (0x80).
	ErrSubscriptionRejected = errors.New("mqtt: subscription rejected by broker")

	// ErrInvalidQoS is returned when an invalid QoS level is specified.
	// Valid QoS levels are 0, 1, or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when an empty or invalid topic is provided.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")

	// ErrSessionEnded is returned for operations on a session after End.
	ErrSessionEnded = errors.New("mqtt: session ended")
)
