package logger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNew_WritesJSONWithServiceFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "warn", ServiceName: "event-inventory", Version: "1.2.3", OutputPath: path})
	require.NoError(t, err)

	l.Info("dropped")
	l.Warn("kept", zap.Int64("event_id", 7))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry), "expected exactly one JSON line, got %q", data)
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "event-inventory", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, float64(7), entry["event_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestGet_BeforeInitIsNop(t *testing.T) {
	mu.Lock()
	prev := global
	global = nil
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		global = prev
		mu.Unlock()
	})

	assert.NotNil(t, Get().Logger)
	require.NoError(t, Init(&Config{Level: "debug", OutputPath: "stderr"}))
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))
}

func TestWithContext_AddsTraceAndRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := &Logger{Logger: zap.New(core)}

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))
	ctx = context.WithValue(ctx, RequestIDKey, "req-1")

	l.Named("booking").InfoContext(ctx, "hello")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "booking", entry.LoggerName)
	fields := entry.ContextMap()
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, spanID.String(), fields["span_id"])
	assert.Equal(t, "req-1", fields["request_id"])
}

func TestWithContext_NoFields(t *testing.T) {
	l := NewNop()
	assert.Same(t, l, l.WithContext(context.Background()))
}
