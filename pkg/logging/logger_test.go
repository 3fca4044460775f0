package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoggerFiltersBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithWriter(&buf), WithLevel("warn"))

	logger.Debug(context.Background(), "dropped", nil)
	logger.Info(context.Background(), "dropped too", nil)
	assert.Zero(t, buf.Len())

	logger.Error(context.Background(), "kept", nil)
	assert.Contains(t, buf.String(), `"kept"`)
}

func TestLoggerReservedTargetAlwaysRouted(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithWriter(&buf), WithLevel("error"), WithTarget(TracingTarget))

	logger.Debug(context.Background(), "span closed", nil)
	assert.Contains(t, buf.String(), `"span closed"`)
	assert.Contains(t, buf.String(), TracingTarget)
}

func TestForTargetKeepsFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithWriter(&buf), WithFilter(NewFilter(zerolog.InfoLevel)))

	setup := logger.ForTarget("otel::setup")
	setup.Info(context.Background(), "exporter ready", map[string]interface{}{"protocol": "grpc"})

	assert.Contains(t, buf.String(), `"target":"otel::setup"`)
	assert.Contains(t, buf.String(), `"protocol":"grpc"`)

	buf.Reset()
	setup.Debug(context.Background(), "dropped", nil)
	assert.Zero(t, buf.Len())
}
