package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is a dependency that can report its health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves liveness and readiness checks
type HealthHandler struct {
	service string
	checks  map[string]HealthChecker
}

// NewHealthHandler creates a health handler; nil checkers are skipped
func NewHealthHandler(service string, checks map[string]HealthChecker) *HealthHandler {
	active := make(map[string]HealthChecker, len(checks))
	for name, check := range checks {
		if check != nil {
			active[name] = check
		}
	}
	return &HealthHandler{service: service, checks: active}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.service,
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(gin.H, len(h.checks))
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			components[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	ready := "ready"
	if status != http.StatusOK {
		ready = "not ready"
	}
	c.JSON(status, gin.H{
		"status":     ready,
		"service":    h.service,
		"components": components,
	})
}
