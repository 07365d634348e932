package tenant

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/security"
)

// Detector resolves the tenant a request belongs to.
type Detector struct {
	registry  *Registry
	jwtSecret string
	logger    *logging.ChanneledLogger
}

// NewDetector creates a tenant detector over the registry.
func NewDetector(registry *Registry, jwtSecret string, logger *logging.ChanneledLogger) *Detector {
	return &Detector{registry: registry, jwtSecret: jwtSecret, logger: logger}
}

// Detect resolves the tenant id for a request. A bearer token's tenantId
// claim wins; the X-Tenant-ID header and the tenantId query parameter are
// fallbacks (EventSource cannot set custom headers, so SSE connections use
// the query form).
func (d *Detector) Detect(c *gin.Context) (string, error) {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimPrefix(auth, "Bearer ")
		if claims, err := security.ValidateJWT(token, d.jwtSecret); err == nil {
			if session, err := security.SessionFromClaims(claims); err == nil {
				return d.validated(session.TenantID)
			}
		} else {
			d.logger.Auth().Debug("Bearer token rejected", "error", err.Error())
		}
	}

	if tenantID := c.GetHeader("X-Tenant-ID"); tenantID != "" {
		return d.validated(tenantID)
	}
	if tenantID := c.Query("tenantId"); tenantID != "" {
		return d.validated(tenantID)
	}

	return "", fmt.Errorf("no tenant identity on request")
}

func (d *Detector) validated(tenantID string) (string, error) {
	if !d.registry.IsActive(tenantID) {
		return "", fmt.Errorf("tenant %q is not active", tenantID)
	}
	return tenantID, nil
}
