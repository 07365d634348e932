package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/readmetrics"
	"github.com/Jsunwilke/Focal-Point-sub000/pkg/config"
)

// MetricsHandlers exposes the read instrumentation counters to operators.
type MetricsHandlers struct {
	metrics *readmetrics.Tracker
	logger  *logging.ChanneledLogger
}

// NewMetricsHandlers creates metrics handlers with injected dependencies
func NewMetricsHandlers(metrics *readmetrics.Tracker, logger *logging.ChanneledLogger) *MetricsHandlers {
	return &MetricsHandlers{metrics: metrics, logger: logger}
}

// GetReadMetrics handles GET /api/v1/admin/metrics/reads - returns
// accumulated read counts and cache hit ratios since the last reset, plus
// an estimated remote-store cost at the configured per-million-reads rate.
func (h *MetricsHandlers) GetReadMetrics(c *gin.Context) {
	snapshot := h.metrics.Snapshot()
	estimatedCost := float64(snapshot.TotalReads) / 1e6 * config.ReadCostPerMillion

	h.logger.Metrics().Debug("Read metrics served", "totalReads", snapshot.TotalReads)
	c.JSON(http.StatusOK, gin.H{
		"metrics":       snapshot,
		"estimatedCost": estimatedCost,
	})
}

// PostResetMetrics handles POST /api/v1/admin/metrics/reads/reset - zeroes the
// counters and restarts the accumulation window.
func (h *MetricsHandlers) PostResetMetrics(c *gin.Context) {
	h.metrics.Reset()
	h.logger.Metrics().Info("Read metrics reset")
	c.JSON(http.StatusOK, gin.H{"success": true})
}
