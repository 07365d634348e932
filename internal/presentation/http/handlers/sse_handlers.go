package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/messaging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/presentation/http/middleware"
	"github.com/Jsunwilke/Focal-Point-sub000/pkg/config"
)

// SSEHandlers streams dataset-update notifications to browser clients.
type SSEHandlers struct {
	broadcaster *messaging.SSEBroadcaster
	logger      *logging.ChanneledLogger
}

// NewSSEHandlers creates SSE handlers with injected dependencies
func NewSSEHandlers(broadcaster *messaging.SSEBroadcaster, logger *logging.ChanneledLogger) *SSEHandlers {
	return &SSEHandlers{broadcaster: broadcaster, logger: logger}
}

// GetStream handles GET /api/v1/sync/stream - establishes a Server-Sent
// Events connection carrying dataset_updated events for the tenant.
// EventSource cannot set custom headers, so tenant identity usually arrives
// via the tenantId query parameter.
func (h *SSEHandlers) GetStream(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	client := h.broadcaster.AddClient(tenantCtx.TenantID)
	defer h.broadcaster.RemoveClient(tenantCtx.TenantID, client)

	h.logger.SSE().Info("SSE connection established",
		"tenantId", tenantCtx.TenantID,
		"connections", h.broadcaster.ConnectionCount(tenantCtx.TenantID))

	// First frame confirms the subscription before any updates arrive.
	if _, err := c.Writer.WriteString("event: connected\ndata: {}\n\n"); err != nil {
		return
	}
	c.Writer.Flush()

	heartbeat := time.NewTicker(time.Duration(config.SSEHeartbeatIntervalSeconds) * time.Second)
	defer heartbeat.Stop()

	clientCtx := c.Request.Context()
	connectionStart := time.Now()
	for {
		select {
		case <-clientCtx.Done():
			h.logger.SSE().Info("SSE client disconnected",
				"tenantId", tenantCtx.TenantID,
				"connectionDuration", time.Since(connectionStart))
			return

		case message, ok := <-client:
			if !ok {
				// Tenant torn down; the broadcaster closed the channel.
				h.logger.SSE().Info("SSE channel closed",
					"tenantId", tenantCtx.TenantID,
					"connectionDuration", time.Since(connectionStart))
				return
			}
			if _, err := c.Writer.WriteString(message); err != nil {
				h.logger.SSE().Error("SSE write failed", "tenantId", tenantCtx.TenantID, "error", err.Error())
				return
			}
			c.Writer.Flush()

		case <-heartbeat.C:
			frame := fmt.Sprintf("event: heartbeat\ndata: {\"timestamp\":\"%s\"}\n\n", time.Now().Format(time.RFC3339))
			if _, err := c.Writer.WriteString(frame); err != nil {
				h.logger.SSE().Error("SSE heartbeat failed", "tenantId", tenantCtx.TenantID, "error", err.Error())
				return
			}
			c.Writer.Flush()
		}
	}
}
