package tenant

import (
	"fmt"
	gosync "sync"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/application/sync"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/messaging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/readmetrics"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/persistence/blobstore"
	"github.com/Jsunwilke/Focal-Point-sub000/pkg/config"
)

// EngineDeps bundles the shared infrastructure every tenant engine uses.
// Sources are tenant-agnostic; each engine scopes its queries by tenant id.
type EngineDeps struct {
	Sources     sync.Sources
	Blobs       blobstore.Store
	Metrics     *readmetrics.Tracker
	Broadcaster messaging.Broadcaster
	Logger      *logging.ChanneledLogger
}

// Manager owns one sync engine per active tenant. Engines are created
// lazily on first access and torn down on deactivation; a tenant switch
// always tears the old engine down before the new one starts.
type Manager struct {
	registry *Registry
	deps     EngineDeps

	mu      gosync.RWMutex
	engines map[string]*sync.Engine
	locks   gosync.Map // per-tenant mutexes for engine creation
	logger  *logging.ChanneledLogger
}

// NewManager creates a tenant manager over the given registry.
func NewManager(registry *Registry, deps EngineDeps) *Manager {
	return &Manager{
		registry: registry,
		deps:     deps,
		engines:  make(map[string]*sync.Engine),
		logger:   deps.Logger,
	}
}

// Registry exposes the tenant directory.
func (m *Manager) Registry() *Registry { return m.registry }

// Engine returns the running engine for a tenant, if any.
func (m *Manager) Engine(tenantID string) (*sync.Engine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	engine, ok := m.engines[tenantID]
	return engine, ok
}

// Activate returns the tenant's engine, creating and starting it on first
// use. Unknown or inactive tenants are rejected.
func (m *Manager) Activate(tenantID string) (*sync.Engine, error) {
	if !m.registry.IsActive(tenantID) {
		return nil, fmt.Errorf("tenant %q is not active", tenantID)
	}

	if engine, ok := m.Engine(tenantID); ok {
		return engine, nil
	}

	lockAny, _ := m.locks.LoadOrStore(tenantID, &gosync.Mutex{})
	lock := lockAny.(*gosync.Mutex)
	lock.Lock()
	defer lock.Unlock()

	if engine, ok := m.Engine(tenantID); ok {
		return engine, nil
	}

	engine := sync.NewEngine(sync.EngineOptions{
		TenantID:    tenantID,
		KeyPrefix:   config.CacheKeyPrefix,
		BlobVersion: config.CacheBlobVersion,
		Sources:     m.deps.Sources,
		Blobs:       m.deps.Blobs,
		Metrics:     m.deps.Metrics,
		Logger:      m.deps.Logger,
		Notify:      m.notify,
	})
	engine.Start()

	m.mu.Lock()
	m.engines[tenantID] = engine
	m.mu.Unlock()

	m.logger.WithTenant(logging.ChannelTenant, tenantID).Info("Tenant activated")
	return engine, nil
}

func (m *Manager) notify(tenantID, dataset string) {
	if m.deps.Broadcaster != nil {
		m.deps.Broadcaster.BroadcastDatasetUpdated(tenantID, dataset)
	}
}

// Deactivate tears down a tenant's engine and disconnects its SSE clients.
// Safe to call for tenants that were never activated.
func (m *Manager) Deactivate(tenantID string) {
	m.mu.Lock()
	engine, ok := m.engines[tenantID]
	delete(m.engines, tenantID)
	m.mu.Unlock()

	if !ok {
		return
	}

	engine.Teardown()
	if m.deps.Broadcaster != nil {
		m.deps.Broadcaster.DisconnectTenant(tenantID)
	}
	m.logger.WithTenant(logging.ChannelTenant, tenantID).Info("Tenant deactivated")
}

// Switch deactivates one tenant and activates another. The teardown
// completes before the new engine starts, so no moment exists where the
// old tenant's data is readable alongside the new tenant's.
func (m *Manager) Switch(fromTenantID, toTenantID string) (*sync.Engine, error) {
	if fromTenantID != "" && fromTenantID != toTenantID {
		m.Deactivate(fromTenantID)
	}
	return m.Activate(toTenantID)
}

// ActivateAll starts engines for every active tenant, used at boot.
func (m *Manager) ActivateAll() error {
	for _, tenant := range m.registry.List() {
		if tenant.Status != StatusActive {
			continue
		}
		if _, err := m.Activate(tenant.ID); err != nil {
			return fmt.Errorf("failed to activate tenant %s: %w", tenant.ID, err)
		}
	}
	return nil
}

// Shutdown tears down every engine.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	engines := m.engines
	m.engines = make(map[string]*sync.Engine)
	m.mu.Unlock()

	for tenantID, engine := range engines {
		engine.Teardown()
		m.logger.WithTenant(logging.ChannelShutdown, tenantID).Info("Tenant engine stopped")
	}
}
