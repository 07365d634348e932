package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/application/container"
)

var startedAt = time.Now()

// SystemHandlers serves liveness and operator diagnostics.
type SystemHandlers struct {
	container *container.Container
}

// NewSystemHandlers creates system handlers over the service container
func NewSystemHandlers(container *container.Container) *SystemHandlers {
	return &SystemHandlers{container: container}
}

// GetHealth handles GET /api/v1/health - liveness probe.
func (h *SystemHandlers) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(startedAt).String(),
	})
}

// GetStatus handles GET /api/v1/admin/status - operator diagnostics.
func (h *SystemHandlers) GetStatus(c *gin.Context) {
	status := gin.H{
		"uptime":    time.Since(startedAt).String(),
		"logLevels": h.container.Logger.GetChannelLevels(),
	}
	if h.container.Archive != nil {
		status["archive"] = h.container.Archive.ConnectionInfo()
	}
	if h.container.Feed != nil {
		status["feedConnected"] = h.container.Feed.Connected()
	}
	c.JSON(http.StatusOK, status)
}
