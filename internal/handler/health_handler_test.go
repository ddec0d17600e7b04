package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	healthy := checkerFunc(func(ctx context.Context) error { return nil })
	down := checkerFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		path       string
		checks     map[string]HealthChecker
		wantStatus int
		wantState  string
	}{
		{"liveness ignores dependencies", "/health", map[string]HealthChecker{"postgres": down}, http.StatusOK, "healthy"},
		{"ready without dependencies", "/ready", nil, http.StatusOK, "ready"},
		{"ready with healthy dependencies", "/ready", map[string]HealthChecker{"postgres": healthy, "redis": healthy}, http.StatusOK, "ready"},
		{"nil checker is skipped", "/ready", map[string]HealthChecker{"redis": nil}, http.StatusOK, "ready"},
		{"dependency down", "/ready", map[string]HealthChecker{"postgres": healthy, "redis": down}, http.StatusServiceUnavailable, "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			handler := NewHealthHandler("event-inventory", tt.checks)
			router := gin.New()
			router.GET("/health", handler.Health)
			router.GET("/ready", handler.Ready)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["status"] != tt.wantState {
				t.Errorf("expected status %q, got %v", tt.wantState, body["status"])
			}
		})
	}
}
