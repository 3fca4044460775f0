package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// TracingTarget is the reserved target that bypasses level filtering. Events
// recorded under it are always routed, which keeps span lifecycle events
// flowing even when ordinary logging is dialed down.
const TracingTarget = "otel::tracing"

// LogLevelEnvVar names the environment variable holding the minimum level.
const LogLevelEnvVar = "OTEL_LOG_LEVEL"

// Interest is a cacheable call-site hint: a call site registered as
// InterestNever can skip the per-event check entirely.
type Interest int

const (
	// InterestNever marks a call site that is never enabled.
	InterestNever Interest = iota
	// InterestAlways marks a call site that is always enabled.
	InterestAlways
)

// Filter gates call sites by target and level. It holds no state beyond the
// configured minimum and is safe to share across goroutines without
// synchronization.
type Filter struct {
	min zerolog.Level
}

// NewFilter creates a filter with the given minimum level.
func NewFilter(min zerolog.Level) *Filter {
	return &Filter{min: min}
}

// FilterFromEnv builds a filter from OTEL_LOG_LEVEL, defaulting to info when
// the variable is unset or unparseable.
func FilterFromEnv() *Filter {
	raw := strings.TrimSpace(os.Getenv(LogLevelEnvVar))
	if raw != "" {
		if level, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil && level != zerolog.NoLevel {
			return NewFilter(level)
		}
	}
	return NewFilter(zerolog.InfoLevel)
}

// Enabled reports whether a call site with the given target and level is
// active.
func (f *Filter) Enabled(target string, level zerolog.Level) bool {
	return target == TracingTarget || level >= f.min
}

// Callsite returns the cacheable interest for a call site.
func (f *Filter) Callsite(target string, level zerolog.Level) Interest {
	if f.Enabled(target, level) {
		return InterestAlways
	}
	return InterestNever
}

// MinLevel returns the configured minimum level.
func (f *Filter) MinLevel() zerolog.Level {
	return f.min
}
