// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/application/sync"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/readmetrics"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/presentation/http/middleware"
)

// SyncHandlers serves the synchronized read model and its mutations.
type SyncHandlers struct {
	metrics *readmetrics.Tracker
	logger  *logging.ChanneledLogger
}

// NewSyncHandlers creates sync handlers with injected dependencies
func NewSyncHandlers(metrics *readmetrics.Tracker, logger *logging.ChanneledLogger) *SyncHandlers {
	return &SyncHandlers{metrics: metrics, logger: logger}
}

// GetReadModel handles GET /api/v1/sync - returns all four dataset views
// plus the aggregate loading and error flags.
func (h *SyncHandlers) GetReadModel(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	start := time.Now()
	model := tenantCtx.Engine.ReadModel()

	h.metrics.RecordRead(tenantCtx.TenantID, sync.DatasetSessions, "http", "readModel", len(model.Sessions.Data))
	h.metrics.RecordRead(tenantCtx.TenantID, sync.DatasetPersonnel, "http", "readModel", len(model.Personnel.Data))
	h.metrics.RecordRead(tenantCtx.TenantID, sync.DatasetTimeOff, "http", "readModel", len(model.TimeOff.Data))
	h.metrics.RecordRead(tenantCtx.TenantID, sync.DatasetReports, "http", "readModel", len(model.Reports.Data))

	h.logger.Sync().Debug("Read model served", "tenantId", tenantCtx.TenantID, "loadingAny", model.LoadingAny, "errorsAny", model.ErrorsAny, "duration", time.Since(start))
	c.JSON(http.StatusOK, model)
}

// GetDataset handles GET /api/v1/sync/:dataset - returns a single dataset view.
func (h *SyncHandlers) GetDataset(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	dataset := c.Param("dataset")
	model := tenantCtx.Engine.ReadModel()

	var view any
	var count int
	switch dataset {
	case sync.DatasetSessions:
		view, count = model.Sessions, len(model.Sessions.Data)
	case sync.DatasetPersonnel:
		view, count = model.Personnel, len(model.Personnel.Data)
	case sync.DatasetTimeOff:
		view, count = model.TimeOff, len(model.TimeOff.Data)
	case sync.DatasetReports:
		view, count = model.Reports, len(model.Reports.Data)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown dataset: " + dataset})
		return
	}

	h.metrics.RecordRead(tenantCtx.TenantID, dataset, "http", "dataset", count)
	c.JSON(http.StatusOK, view)
}

// PostInvalidate handles POST /api/v1/sync/:dataset/invalidate - drops the
// persisted cache blob for one dataset, or every dataset when the path
// segment is "all". In-memory data keeps serving until the next teardown.
func (h *SyncHandlers) PostInvalidate(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	dataset := c.Param("dataset")
	if err := tenantCtx.Engine.Invalidate(dataset); err != nil {
		h.logger.Sync().Warn("Invalidate failed", "tenantId", tenantCtx.TenantID, "dataset", dataset, "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Sync().Info("Cache invalidated", "tenantId", tenantCtx.TenantID, "dataset", dataset)
	c.JSON(http.StatusOK, gin.H{"success": true, "dataset": dataset})
}

// PostRefresh handles POST /api/v1/sync/:dataset/refresh - clears the
// persisted blob and refetches the dataset from the remote store.
func (h *SyncHandlers) PostRefresh(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	dataset := c.Param("dataset")
	start := time.Now()
	if err := tenantCtx.Engine.Refresh(c.Request.Context(), dataset); err != nil {
		h.logger.Sync().Warn("Refresh failed", "tenantId", tenantCtx.TenantID, "dataset", dataset, "error", err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.logger.Sync().Info("Dataset refreshed", "tenantId", tenantCtx.TenantID, "dataset", dataset, "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{"success": true, "dataset": dataset})
}

// OptimisticRequest is the body of a PATCH /api/v1/sync/:dataset/records/:id
// request. Partial carries only the fields being changed.
type OptimisticRequest struct {
	Partial map[string]any `json:"partial" binding:"required"`
}

// PatchRecord handles PATCH /api/v1/sync/:dataset/records/:id - merges
// partial fields over one cached record so readers see the change before
// the remote store confirms it.
func (h *SyncHandlers) PatchRecord(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	dataset := c.Param("dataset")
	id := c.Param("id")

	var req OptimisticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := tenantCtx.Engine.ApplyOptimistic(dataset, id, req.Partial); err != nil {
		h.logger.Sync().Warn("Optimistic update rejected", "tenantId", tenantCtx.TenantID, "dataset", dataset, "recordId", id, "error", err.Error())
		status := http.StatusBadRequest
		if errors.Is(err, sync.ErrRecordNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.logger.Sync().Info("Optimistic update applied", "tenantId", tenantCtx.TenantID, "dataset", dataset, "recordId", id)
	c.JSON(http.StatusOK, gin.H{"success": true, "dataset": dataset, "id": id})
}
