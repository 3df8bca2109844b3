package bridge

// Logger defines the logging interface for bridge components.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder receives bridge telemetry. Implementations must not block.
type Recorder interface {
	// RecordConnectionState is called on every state transition.
	RecordConnectionState(connected bool, reason string)

	// RecordConnectAttempt is called after every connect/subscribe sequence.
	RecordConnectAttempt(ok bool)

	// RecordAction is called after every routed message.
	RecordAction(action, topic string, err error)

	// RecordVolume is called after a successful volume change.
	RecordVolume(percent int)
}

// noopRecorder discards telemetry.
type noopRecorder struct{}

func (noopRecorder) RecordConnectionState(bool, string) {}
func (noopRecorder) RecordConnectAttempt(bool)          {}
func (noopRecorder) RecordAction(string, string, error) {}
func (noopRecorder) RecordVolume(int)                   {}
