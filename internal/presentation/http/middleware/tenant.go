// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/tenant"
)

// TenantMiddleware resolves the tenant a request belongs to, activates the
// tenant's sync engine if it is not already running, and stores the tenant
// context for handlers.
func TenantMiddleware(detector *tenant.Detector, manager *tenant.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := detector.Detect(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		engine, err := manager.Activate(tenantID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "tenant not available"})
			c.Abort()
			return
		}

		c.Set("tenant", tenant.NewContext(tenantID, engine))
		c.Next()
	}
}

// GetTenantContext retrieves the tenant context from gin context
func GetTenantContext(c *gin.Context) (*tenant.Context, bool) {
	value, exists := c.Get("tenant")
	if !exists {
		return nil, false
	}

	ctx, ok := value.(*tenant.Context)
	return ctx, ok
}
