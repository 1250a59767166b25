package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/shelfscan/models"
)

// Describer reports which engine and site a searcher is configured for.
type Describer interface {
	EngineName() string
	Site() string
}

// Health returns a handler for GET /api/health.
func Health(d Describer, version string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Engine:  d.EngineName(),
			Site:    d.Site(),
			Version: version,
		})
	}
}
