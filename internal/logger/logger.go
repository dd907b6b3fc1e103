// Package logger provides process-wide structured logging for medivault.
// Warnings and errors are always written; debug, info and section messages
// only appear when verbose mode is enabled via the --verbose flag.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const service = "medivault"

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	zlog              = build(os.Stderr, false)
)

// build creates the zerolog logger for the given sink. Terminals get the
// console writer; anything else gets one JSON object per line.
func build(w io.Writer, v bool) zerolog.Logger {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}

	level := zerolog.WarnLevel
	if v {
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	zlog = build(output, verbose)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	zlog = build(output, verbose)
}

// Get returns the current logger for callers that want structured fields.
func Get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := zlog
	return &l
}

// Component returns a child logger tagged with a component name.
func Component(name string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return zlog.With().Str("component", name).Logger()
}

// Debug logs a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	zlog.Debug().Msg(fmt.Sprintf(format, args...))
}

// Section marks the start of a pipeline stage if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	zlog.Info().Str("section", name).Msg("=== " + name + " ===")
}

// Info logs an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	zlog.Info().Msg(fmt.Sprintf(format, args...))
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	zlog.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error logs an error with a message.
func Error(err error, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	zlog.Error().Err(err).Msg(fmt.Sprintf(format, args...))
}
