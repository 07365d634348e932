package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/tenant"
)

// AdminMiddleware gates operator endpoints behind the X-Admin-Token header.
// The token is checked against the admin credential of the request's tenant;
// routes mounted before tenant resolution check against the default tenant.
func AdminMiddleware(registry *tenant.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Admin-Token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Admin-Token header is required"})
			c.Abort()
			return
		}

		tenantID := "default"
		if ctx, ok := GetTenantContext(c); ok {
			tenantID = ctx.TenantID
		}

		if !registry.VerifyAdminToken(tenantID, token) {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid admin token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
