// Package log wraps log/slog with component-aware loggers, shared field
// names and HTTP middleware carrying the logger in the request context.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger bound to one component. base holds every attribute
// except the component so that WithComponent replaces it instead of repeating it.
type Logger struct {
	*slog.Logger
	base      *slog.Logger
	component string
}

func newLogger(base *slog.Logger, component string) *Logger {
	return &Logger{
		Logger:    base.With(FieldComponent, component),
		base:      base,
		component: component,
	}
}

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Component string
	// JSON selects the JSON handler instead of the text handler.
	JSON   bool
	Writer io.Writer
	// Handler, when set, replaces the handler built from the fields above.
	Handler slog.Handler
}

// DefaultConfig returns an info-level text logger on stdout.
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
	}
}

// New creates a new logger with the given configuration
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		w := config.Writer
		if w == nil {
			w = os.Stdout
		}
		opts := &slog.HandlerOptions{Level: config.Level}
		if config.JSON {
			handler = slog.NewJSONHandler(w, opts)
		} else {
			handler = slog.NewTextHandler(w, opts)
		}
	}
	if config.Component == "" {
		config.Component = ComponentApp
	}
	return newLogger(slog.New(handler), config.Component)
}

// With returns a new logger with the given attributes
func (l *Logger) With(args ...any) *Logger {
	if l.base == nil {
		return &Logger{Logger: l.Logger.With(args...), component: l.component}
	}
	return newLogger(l.base.With(args...), l.component)
}

// WithComponent returns a logger for a sub-component, e.g. "http.rate_limit".
// Asking for the component the logger already ends with returns l.
func (l *Logger) WithComponent(component string) *Logger {
	if component == "" || l.component == component || strings.HasSuffix(l.component, "."+component) {
		return l
	}
	name := component
	if l.component != "" {
		name = l.component + "." + component
	}
	if l.base == nil {
		return &Logger{Logger: l.Logger.With(FieldComponent, name), component: name}
	}
	return newLogger(l.base, name)
}

// Component returns the logger's component name
func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs logger as the process-wide slog default.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
