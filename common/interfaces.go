// Package common provides shared constants, types, and utilities
// used across the Nebula Tower application.
package common

// Logger defines the interface for structured logging.
// *AppLogger satisfies it; components accept it so tests can observe output.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...interface{})
	// Info logs an informational message.
	Info(msg string, args ...interface{})
	// Warn logs a warning message.
	Warn(msg string, args ...interface{})
	// Error logs an error message.
	Error(msg string, args ...interface{})
}

// Notifier defines the interface for sending desktop notifications.
type Notifier interface {
	// Notify sends a notification with the given title and message.
	Notify(title, message string) error
}

// OrDefault returns l, or the global logger when l is nil.
func OrDefault(l Logger) Logger {
	if l == nil {
		return GetLogger()
	}
	return l
}
