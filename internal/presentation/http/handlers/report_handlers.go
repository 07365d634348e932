package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/application/sync"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/readmetrics"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/remote"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/presentation/http/middleware"
)

// ReportHandlers serves archived job reports that have aged out of the
// synchronized window.
type ReportHandlers struct {
	archive *remote.ReportArchive
	metrics *readmetrics.Tracker
	logger  *logging.ChanneledLogger
}

// NewReportHandlers creates report handlers with injected dependencies
func NewReportHandlers(archive *remote.ReportArchive, metrics *readmetrics.Tracker, logger *logging.ChanneledLogger) *ReportHandlers {
	return &ReportHandlers{archive: archive, metrics: metrics, logger: logger}
}

// GetArchivedReports handles GET /api/v1/reports/archive - returns archived
// job reports older than the `before` cutoff (RFC 3339, default now),
// newest first, at most `limit` rows.
func (h *ReportHandlers) GetArchivedReports(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report archive not configured"})
		return
	}

	cutoff := time.Now()
	if before := c.Query("before"); before != "" {
		parsed, err := time.Parse(time.RFC3339, before)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "before must be an RFC 3339 timestamp"})
			return
		}
		cutoff = parsed
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	start := time.Now()
	reports, err := h.archive.FetchBefore(c.Request.Context(), tenantCtx.TenantID, cutoff, limit)
	if err != nil {
		h.logger.Store().Error("Archive query failed", "tenantId", tenantCtx.TenantID, "error", err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"error": "archive query failed"})
		return
	}

	h.metrics.RecordRead(tenantCtx.TenantID, sync.DatasetReports, "http", "archive", len(reports))
	h.logger.Store().Debug("Archived reports served", "tenantId", tenantCtx.TenantID, "count", len(reports), "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{"reports": reports, "count": len(reports)})
}
