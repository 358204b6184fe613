package logger

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"

	"github.com/oggyb/h1bee-match/internal/config"
)

// captureOutput redirects stdout to a buffer during f()
func captureOutput(t *testing.T, f func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	_ = r.Close()

	return buf.String()
}

func logConfig(level, format, component string, source bool) *config.Config {
	c := &config.Config{}
	c.Log.Level = level
	c.Log.Format = format
	c.Log.Component = component
	c.Log.Source = source
	return c
}

func TestLogger_TextFormat(t *testing.T) {
	out := captureOutput(t, func() {
		InitFromConfig(logConfig("debug", "text", "test", false))
		Info("hello h1bee", "key", "value")
	})

	assert.Contains(t, out, "hello h1bee")
	assert.Contains(t, out, "component=test")
	assert.Contains(t, out, "key=value")
}

func TestLogger_JSONFormat(t *testing.T) {
	out := captureOutput(t, func() {
		InitFromConfig(logConfig("info", "json", "json_test", false))
		Info("json log", "foo", "bar")
	})

	assert.Contains(t, out, `"msg":"json log"`)
	assert.Contains(t, out, `"component":"json_test"`)
	assert.Contains(t, out, `"foo":"bar"`)
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "error", Format: FormatText, Output: &buf})

	Info("should not appear")
	Error("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func TestLogger_WithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "debug", Format: FormatText, Output: &buf})

	With("req_id", "123").Info("processing request")

	assert.Contains(t, buf.String(), "req_id=123")
}

func TestLogger_FromContext(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "debug", Format: FormatJSON, Output: &buf})

	scoped := With("request_id", "abc")
	ctx := IntoContext(context.Background(), scoped)

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	FromContext(ctx, nil).Info("scoped")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"abc"`)
	assert.Contains(t, out, `"trace_id":"0102030405060708090a0b0c0d0e0f10"`)
}

func TestLogger_FromContextFallsBack(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "info", Format: FormatText, Output: &buf})

	FromContext(context.Background(), nil).Info("fallback")
	assert.True(t, strings.Contains(buf.String(), "fallback"))
}
