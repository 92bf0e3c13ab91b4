// Package logger provides leveled logging for sercha-context.
// Messages go through a log/slog text handler. In verbose mode (the
// --verbose flag) everything from Debug up is written, which traces the
// classify, route, aggregate and select pipeline. Otherwise only errors
// are written.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	level             = new(slog.LevelVar)
	base              = newLogger(os.Stderr)
)

//nolint:gochecknoinits // default level must be set before first use
func init() {
	level.Set(slog.LevelError)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelError)
	}
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
	base = newLogger(w)
}

// Slog returns the underlying structured logger for callers that want
// key/value attributes instead of format strings.
func Slog() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func logf(lvl slog.Level, format string, args ...any) {
	mu.RLock()
	l := base
	mu.RUnlock()
	if !l.Enabled(context.Background(), lvl) {
		return
	}
	l.Log(context.Background(), lvl, fmt.Sprintf(format, args...))
}

// Debug logs a message at debug level.
func Debug(format string, args ...any) {
	logf(slog.LevelDebug, format, args...)
}

// Section logs a section header at debug level.
func Section(name string) {
	mu.RLock()
	l := base
	mu.RUnlock()
	l.Debug("=== "+name+" ===", "section", name)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	logf(slog.LevelInfo, format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	logf(slog.LevelWarn, format, args...)
}

// Error logs an error. Errors are written even when not verbose.
func Error(format string, args ...any) {
	logf(slog.LevelError, format, args...)
}
