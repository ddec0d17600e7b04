package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type ctxKey string

const testRequestIDKey ctxKey = "request_id"

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()

	prevProvider, prevTracer := provider, tracer
	install(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { provider, tracer = prevProvider, prevTracer })
	return recorder
}

func TestTracingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := withRecorder(t)

	var seenRequestID any
	var seenTraceID string
	router := gin.New()
	router.Use(TracingMiddleware(testRequestIDKey))
	router.GET("/events/:id/availability", func(c *gin.Context) {
		seenRequestID = c.Request.Context().Value(testRequestIDKey)
		seenTraceID = GetTraceID(c.Request.Context())
		_ = c.Error(errors.New("store unavailable"))
		c.Status(http.StatusServiceUnavailable)
	})

	req := httptest.NewRequest(http.MethodGet, "/events/7/availability", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", seenRequestID)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.NotEmpty(t, seenTraceID)
	assert.Equal(t, seenTraceID, w.Header().Get(TraceIDHeader))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /events/:id/availability", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Len(t, spans[0].Events(), 1)
}

func TestTracingMiddleware_GeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	withRecorder(t)

	router := gin.New()
	router.Use(TracingMiddleware(testRequestIDKey))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestInitDisabled(t *testing.T) {
	require.NoError(t, Init(context.Background(), &Config{Enabled: false}))
	require.NoError(t, Init(context.Background(), nil))
	assert.NoError(t, Shutdown(context.Background()))
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestInitRequiresCollector(t *testing.T) {
	err := Init(context.Background(), &Config{Enabled: true})
	assert.Error(t, err)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}
