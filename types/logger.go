package types

// Logger is the structured logging interface used throughout netop.
//
// Messages are accompanied by alternating key/value pairs, matching the
// calling convention of slog and zerolog-style loggers:
//
//	logger.Warn("drain item failed", "seq", item.Seq, "error", err.Error())
//
// Implementations MUST be safe for concurrent use. A no-op implementation
// is used by default so components never need nil checks.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string, keysAndValues ...any)

	// Info logs an info-level message.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning-level message.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error-level message.
	Error(msg string, keysAndValues ...any)

	// Fatal logs a fatal-level message. Implementations decide whether
	// to terminate the process.
	Fatal(msg string, keysAndValues ...any)
}
