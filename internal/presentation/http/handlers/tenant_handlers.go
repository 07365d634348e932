package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/tenant"
)

// TenantHandlers provides operator endpoints for tenant provisioning.
type TenantHandlers struct {
	registry *tenant.Registry
	manager  *tenant.Manager
	logger   *logging.ChanneledLogger
}

// NewTenantHandlers creates tenant handlers with injected dependencies
func NewTenantHandlers(registry *tenant.Registry, manager *tenant.Manager, logger *logging.ChanneledLogger) *TenantHandlers {
	return &TenantHandlers{registry: registry, manager: manager, logger: logger}
}

// tenantSummary is the wire shape for a registered tenant; credentials
// never leave the registry.
type tenantSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Active bool   `json:"engineRunning"`
}

// GetTenants handles GET /api/v1/admin/tenants - lists registered tenants
// and whether each has a running sync engine.
func (h *TenantHandlers) GetTenants(c *gin.Context) {
	tenants := h.registry.List()
	out := make([]tenantSummary, 0, len(tenants))
	for _, t := range tenants {
		_, running := h.manager.Engine(t.ID)
		out = append(out, tenantSummary{ID: t.ID, Name: t.Name, Status: t.Status, Active: running})
	}
	c.JSON(http.StatusOK, gin.H{"tenants": out})
}

// RegisterTenantRequest is the body for tenant provisioning.
type RegisterTenantRequest struct {
	ID           string `json:"id" binding:"required"`
	Name         string `json:"name"`
	AdminToken   string `json:"adminToken"`
	ArchiveToken string `json:"archiveToken"`
}

// PostRegisterTenant handles POST /api/v1/admin/tenants - registers a new
// tenant (or updates an existing one) and starts its sync engine.
func (h *TenantHandlers) PostRegisterTenant(c *gin.Context) {
	var req RegisterTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	record := tenant.Tenant{ID: req.ID, Name: req.Name, Status: tenant.StatusActive}
	if err := h.registry.Register(record, req.AdminToken, req.ArchiveToken); err != nil {
		h.logger.Tenant().Error("Tenant registration failed", "tenantId", req.ID, "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.manager.Activate(req.ID); err != nil {
		h.logger.Tenant().Error("Tenant engine activation failed", "tenantId", req.ID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant registered but engine failed to start"})
		return
	}

	h.logger.Tenant().Info("Tenant registered", "tenantId", req.ID, "name", req.Name)
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": req.ID})
}

// PostDeactivateTenant handles POST /api/v1/admin/tenants/:id/deactivate -
// marks a tenant inactive and tears down its sync engine. Readers of the
// old tenant see nothing once teardown completes.
func (h *TenantHandlers) PostDeactivateTenant(c *gin.Context) {
	tenantID := c.Param("id")

	if err := h.registry.SetStatus(tenantID, tenant.StatusInactive); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.manager.Deactivate(tenantID)

	h.logger.Tenant().Info("Tenant deactivated", "tenantId", tenantID)
	c.JSON(http.StatusOK, gin.H{"success": true, "id": tenantID})
}

// PostActivateTenant handles POST /api/v1/admin/tenants/:id/activate -
// marks a tenant active again and starts its sync engine.
func (h *TenantHandlers) PostActivateTenant(c *gin.Context) {
	tenantID := c.Param("id")

	if err := h.registry.SetStatus(tenantID, tenant.StatusActive); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.manager.Activate(tenantID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Tenant().Info("Tenant activated", "tenantId", tenantID)
	c.JSON(http.StatusOK, gin.H{"success": true, "id": tenantID})
}
