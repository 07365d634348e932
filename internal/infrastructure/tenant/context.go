package tenant

import (
	"github.com/Jsunwilke/Focal-Point-sub000/internal/application/sync"
)

// Context is the per-request tenant context handlers work against.
type Context struct {
	TenantID string
	Engine   *sync.Engine
}

// NewContext binds a tenant id to its running engine.
func NewContext(tenantID string, engine *sync.Engine) *Context {
	return &Context{TenantID: tenantID, Engine: engine}
}
