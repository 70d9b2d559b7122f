// Package obslog provides structured logging for the cardity runtime.
// It wraps slog.Logger with convenience constructors and attribute
// helpers for the fields the runtime logs most.
package obslog

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger is a structured logger wrapping slog.Logger.
type Logger struct {
	*slog.Logger
}

// New creates a new Logger with the given handler.
func New(handler slog.Handler) *Logger {
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a new Logger with text output format.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: false,
	}
	return New(slog.NewTextHandler(w, opts))
}

// NewJSONLogger creates a new Logger with JSON output format.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: false,
	}
	return New(slog.NewJSONHandler(w, opts))
}

// NewDevelopmentLogger creates a logger suitable for development.
// Uses text format with debug level output to stderr.
func NewDevelopmentLogger() *Logger {
	return NewTextLogger(os.Stderr, slog.LevelDebug)
}

// NewProductionLogger creates a logger suitable for production.
// Uses JSON format with info level output to stdout.
func NewProductionLogger() *Logger {
	return NewJSONLogger(os.Stdout, slog.LevelInfo)
}

// NewNopLogger creates a logger that discards all output.
func NewNopLogger() *Logger {
	return New(nopHandler{})
}

// With returns a new Logger with the given attributes added to every log entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithComponent returns a new Logger with a component attribute.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With(Component(name))
}

// WithProtocol returns a new Logger with a protocol attribute.
func (l *Logger) WithProtocol(name string) *Logger {
	return l.With(Protocol(name))
}

// Common attribute constructors for runtime fields.

// Component creates a component attribute for identifying the source module.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Protocol creates a protocol name attribute.
func Protocol(name string) slog.Attr {
	return slog.String("protocol", name)
}

// Version creates a protocol version attribute.
func Version(v string) slog.Attr {
	return slog.String("version", v)
}

// Method creates a method name attribute.
func Method(name string) slog.Attr {
	return slog.String("method", name)
}

// EventName creates an event name attribute.
func EventName(name string) slog.Attr {
	return slog.String("event", name)
}

// Key creates a state key attribute.
func Key(k string) slog.Attr {
	return slog.String("key", k)
}

// Path creates a file path attribute.
func Path(p string) slog.Attr {
	return slog.String("path", p)
}

// Hash creates a content hash attribute.
func Hash(h string) slog.Attr {
	return slog.String("hash", h)
}

// Duration creates a duration attribute in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64("duration_ms", float64(d.Nanoseconds())/1e6)
}

// Count creates a count attribute.
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// Error creates an error attribute.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}
