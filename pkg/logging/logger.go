package logging

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is an interface for logging
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
}

// ZeroLogger implements Logger using zerolog. Events carry a target string
// and the active trace context; level gating goes through Filter so the
// reserved tracing target stays routable below the configured minimum.
type ZeroLogger struct {
	logger zerolog.Logger
	filter *Filter
	target string
}

// Option configures a ZeroLogger.
type Option func(*ZeroLogger)

// New creates a new ZeroLogger writing JSON to stdout with the tracing hook
// installed.
func New(opts ...Option) *ZeroLogger {
	l := &ZeroLogger{
		filter: FilterFromEnv(),
		target: "app",
	}
	l.logger = zerolog.New(os.Stdout).
		Level(zerolog.TraceLevel).
		With().Timestamp().Logger().
		Hook(TracingHook{})
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WithWriter redirects log output to w.
func WithWriter(w io.Writer) Option {
	return func(l *ZeroLogger) {
		l.logger = l.logger.Output(w)
	}
}

// WithLevel sets the minimum level by name; unknown names keep info.
func WithLevel(level string) Option {
	return func(l *ZeroLogger) {
		if parsed, err := zerolog.ParseLevel(level); err == nil && parsed != zerolog.NoLevel {
			l.filter = NewFilter(parsed)
		} else {
			l.filter = NewFilter(zerolog.InfoLevel)
		}
	}
}

// WithFilter replaces the call-site filter.
func WithFilter(f *Filter) Option {
	return func(l *ZeroLogger) {
		l.filter = f
	}
}

// WithTarget sets the target string recorded on every event.
func WithTarget(target string) Option {
	return func(l *ZeroLogger) {
		l.target = target
	}
}

// ForTarget returns a logger identical to l but recording events under a
// different target.
func (l *ZeroLogger) ForTarget(target string) *ZeroLogger {
	clone := *l
	clone.target = target
	return &clone
}

func (l *ZeroLogger) log(ctx context.Context, level zerolog.Level, msg string, fields map[string]interface{}) {
	if !l.filter.Enabled(l.target, level) {
		return
	}

	event := l.logger.WithLevel(level).Ctx(ctx).Str("target", l.target)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// Info logs an info message
func (l *ZeroLogger) Info(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, zerolog.InfoLevel, msg, fields)
}

// Warn logs a warning message
func (l *ZeroLogger) Warn(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, zerolog.WarnLevel, msg, fields)
}

// Error logs an error message
func (l *ZeroLogger) Error(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, zerolog.ErrorLevel, msg, fields)
}

// Debug logs a debug message
func (l *ZeroLogger) Debug(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(ctx, zerolog.DebugLevel, msg, fields)
}
