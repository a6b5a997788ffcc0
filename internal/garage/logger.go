package garage

// Logger is the logging surface used by this package.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Recorder receives operational counters from the Manager.
// internal/metrics provides the Prometheus implementation.
type Recorder interface {
	// SessionOpened is called for every session handed to the transport.
	SessionOpened()

	// StateMessage is called for each message on the state topic.
	// decoded is false when the payload was discarded.
	StateMessage(decoded bool)

	// CommandPublished is called when a command publish completes.
	CommandPublished(err error)

	// Failure is called for every error surfaced through the store.
	Failure(kind string)
}

type nopRecorder struct{}

func (nopRecorder) SessionOpened()         {}
func (nopRecorder) StateMessage(bool)      {}
func (nopRecorder) CommandPublished(error) {}
func (nopRecorder) Failure(string)         {}
