package controllers

import (
	"context"
	"net/http"
	"time"

	"MediCore/middlewares"
	"MediCore/models"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

func rootHandler(c *gin.Context) {
	middlewares.RespondMessage(c, http.StatusOK, "Welcome to the MediCore API")
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := make(map[string]string, len(checks))
		healthy := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "up"
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, models.ApiResponse[map[string]string]{Data: status, Error: "dependency unavailable"})
			return
		}
		middlewares.RespondJSON(c, http.StatusOK, status)
	}
}

// SetupRootRoute registers the welcome and health routes.
func SetupRootRoute(router gin.IRouter, checks map[string]HealthCheck) {
	router.GET("/", rootHandler)
	router.GET("/health", healthHandler(checks))
}
