package garage

import (
	"errors"
	"fmt"
)

// Domain-specific errors for the garage client.
// Use errors.Is() and errors.As() to check for these in calling code.
var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("garage: invalid connection parameters")

	// ErrNotConnected is returned by OpenDoor when no session is active.
	ErrNotConnected = errors.New("MQTT client is not connected")
)

// ValidationError reports a connection parameter that failed validation.
// It is raised before any transport is involved.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// SessionCreationError is recorded when the transport fails to create a session.
type SessionCreationError struct {
	Err error
}

func (e *SessionCreationError) Error() string {
	if e.Err == nil || e.Err.Error() == "" {
		return "Failed to create MQTT client"
	}
	return e.Err.Error()
}

func (e *SessionCreationError) Unwrap() error { return e.Err }

// SubscriptionError is recorded when the state topic subscription is rejected.
type SubscriptionError struct {
	Topic string
	Err   error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("Failed to subscribe to %s", e.Topic)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// TransportError is recorded for asynchronous transport failures.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil || e.Err.Error() == "" {
		return "MQTT connection error"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// PublishError is recorded when a command publish is not acknowledged.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return "Failed to publish command: " + msg
}

func (e *PublishError) Unwrap() error { return e.Err }

// errorKind names an error for metrics labels.
func errorKind(err error) string {
	var (
		sessionErr   *SessionCreationError
		subscribeErr *SubscriptionError
		transportErr *TransportError
		publishErr   *PublishError
	)
	switch {
	case errors.As(err, &sessionErr):
		return "session_creation"
	case errors.As(err, &subscribeErr):
		return "subscription"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &publishErr):
		return "publish"
	default:
		return "other"
	}
}
