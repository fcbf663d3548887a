package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/repair_api/internal/utils"
)

var startTime = time.Now()

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler provides health endpoint.
type HealthHandler struct {
	checks map[string]HealthCheck
}

// NewHealthHandler creates a new HealthHandler probing checks by name.
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// GetHealth responds with service and dependency status. Any failing
// dependency turns the response into 503.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	healthy := true
	deps := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			healthy = false
			deps[name] = "disconnected"
			continue
		}
		deps[name] = "connected"
	}

	data := gin.H{
		"status":       "healthy",
		"uptime":       int(time.Since(startTime).Seconds()),
		"dependencies": deps,
	}
	if !healthy {
		data["status"] = "degraded"
		c.Header("Retry-After", retryAfterSeconds)
		c.JSON(http.StatusServiceUnavailable, utils.Response{
			Success: false,
			Code:    http.StatusServiceUnavailable,
			Message: "Service is degraded",
			Data:    data,
			Error:   &utils.ErrorInfo{Code: utils.ErrUnavailable.Error(), Message: "Service is degraded", Retryable: true},
			Meta:    utils.Meta{RequestID: c.GetString("request_id"), Timestamp: time.Now().Format(time.RFC3339)},
		})
		return
	}

	utils.Success(c, http.StatusOK, "Service is healthy", data)
}
