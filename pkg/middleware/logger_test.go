package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/prohmpiriya/event-inventory/pkg/logger"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		status    int
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{"success", http.StatusOK, zapcore.InfoLevel, "Request completed"},
		{"client error", http.StatusNotFound, zapcore.WarnLevel, "Client error"},
		{"server error", http.StatusInternalServerError, zapcore.ErrorLevel, "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			log := &logger.Logger{Logger: zap.New(core)}

			router := gin.New()
			router.Use(func(c *gin.Context) {
				ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, "req-1")
				c.Request = c.Request.WithContext(ctx)
				c.Set(UserIDKey, int64(9))
				c.Next()
			})
			router.Use(RequestLogger(log))
			router.GET("/ping", func(c *gin.Context) { c.Status(tt.status) })

			req := httptest.NewRequest(http.MethodGet, "/ping?x=1", nil)
			router.ServeHTTP(httptest.NewRecorder(), req)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, tt.wantMsg, entry.Message)

			fields := entry.ContextMap()
			assert.Equal(t, "req-1", fields["request_id"])
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, "/ping", fields["path"])
			assert.Equal(t, "x=1", fields["query"])
			assert.Equal(t, int64(9), fields["user_id"])
		})
	}
}
