package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestFilterLevelGate(t *testing.T) {
	f := NewFilter(zerolog.WarnLevel)

	assert.False(t, f.Enabled("app", zerolog.DebugLevel))
	assert.False(t, f.Enabled("app", zerolog.InfoLevel))
	assert.True(t, f.Enabled("app", zerolog.WarnLevel))
	assert.True(t, f.Enabled("app", zerolog.ErrorLevel))
}

func TestFilterReservedTargetBypassesLevel(t *testing.T) {
	f := NewFilter(zerolog.ErrorLevel)

	assert.True(t, f.Enabled(TracingTarget, zerolog.TraceLevel))
	assert.True(t, f.Enabled(TracingTarget, zerolog.DebugLevel))
	assert.False(t, f.Enabled("app", zerolog.DebugLevel))
}

func TestFilterCallsiteInterest(t *testing.T) {
	f := NewFilter(zerolog.InfoLevel)

	assert.Equal(t, InterestAlways, f.Callsite("app", zerolog.ErrorLevel))
	assert.Equal(t, InterestNever, f.Callsite("app", zerolog.DebugLevel))
	assert.Equal(t, InterestAlways, f.Callsite(TracingTarget, zerolog.TraceLevel))
}

func TestFilterFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "debug")
	assert.Equal(t, zerolog.DebugLevel, FilterFromEnv().MinLevel())

	t.Setenv(LogLevelEnvVar, "not-a-level")
	assert.Equal(t, zerolog.InfoLevel, FilterFromEnv().MinLevel())

	t.Setenv(LogLevelEnvVar, "")
	assert.Equal(t, zerolog.InfoLevel, FilterFromEnv().MinLevel())
}
