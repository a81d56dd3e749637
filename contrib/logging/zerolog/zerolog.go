// Package zerolog provides a zerolog-based implementation of the Logger interface.
//
// # Basic Usage
//
//	logger := zerolog.New(zlog.Logger)
//	client, _ := netop.NewClient(netop.DefaultConfig(),
//	    netop.WithLogger(logger),
//	)
//
// Key-value pairs passed to the logging methods become structured fields
// on the emitted event.
package zerolog

import (
	"fmt"

	zl "github.com/rs/zerolog"

	"github.com/akashmir/harvesh-app-sub004/types"
)

// Logger adapts a zerolog.Logger to the types.Logger interface.
type Logger struct {
	logger zl.Logger
}

// Compile-time assertion that Logger implements types.Logger.
var _ types.Logger = (*Logger)(nil)

// New creates a Logger backed by the given zerolog.Logger.
//
// Parameters:
//   - logger: The zerolog logger to emit events on
//
// Returns:
//   - *Logger: A new adapter
func New(logger zl.Logger) *Logger {
	return &Logger{logger: logger}
}

// Debug logs a message at debug level.
func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.emit(l.logger.Debug(), msg, keysAndValues)
}

// Info logs a message at info level.
func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.emit(l.logger.Info(), msg, keysAndValues)
}

// Warn logs a message at warn level.
func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.emit(l.logger.Warn(), msg, keysAndValues)
}

// Error logs a message at error level.
func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.emit(l.logger.Error(), msg, keysAndValues)
}

// Fatal logs a message at fatal level and exits the process.
func (l *Logger) Fatal(msg string, keysAndValues ...any) {
	l.emit(l.logger.Fatal(), msg, keysAndValues)
}

// emit attaches key-value pairs as structured fields. A trailing key
// without a value is logged under the "extra" field.
func (l *Logger) emit(ev *zl.Event, msg string, keysAndValues []any) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		ev = ev.Interface(key, keysAndValues[i+1])
	}
	if len(keysAndValues)%2 == 1 {
		ev = ev.Interface("extra", keysAndValues[len(keysAndValues)-1])
	}
	ev.Msg(msg)
}
