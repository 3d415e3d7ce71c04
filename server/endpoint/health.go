package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/transcriptfeed/component"
)

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []component.Health

// Health returns a handler that reports service health including component
// statuses. Any unhealthy component turns the answer into a 503.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := component.StatusHealthy
		components := []component.Health{}

		if checker != nil {
			components = append(components, checker(c.Request.Context())...)
			for _, ch := range components {
				if ch.Status == component.StatusUnhealthy {
					status = component.StatusUnhealthy
					break
				}
				if ch.Status == component.StatusDegraded {
					status = component.StatusDegraded
				}
			}
		}

		httpStatus := http.StatusOK
		if status == component.StatusUnhealthy {
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":     status,
			"service":    serviceName,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": components,
		})
	}
}
