// Package tenant manages tenant registration, detection, and the lifecycle
// of per-tenant sync engines, isolating multi-tenancy from the rest of the
// application.
package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/security"
)

// Tenant statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Tenant is one registered studio organization.
type Tenant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`

	// AdminTokenHash is the bcrypt hash of the tenant's admin token.
	AdminTokenHash string `json:"adminTokenHash,omitempty"`

	// ArchiveToken is the tenant's report-archive credential, AES-encrypted
	// at rest with the registry key.
	ArchiveToken string `json:"archiveToken,omitempty"`
}

type registryFile struct {
	Tenants []Tenant `json:"tenants"`
}

// Registry is the JSON-file-backed tenant directory.
type Registry struct {
	path   string
	aesKey string

	mu      sync.RWMutex
	tenants map[string]Tenant
}

// LoadRegistry reads the registry file, creating a default single-tenant
// registry when none exists.
func LoadRegistry(path, aesKey string) (*Registry, error) {
	r := &Registry{
		path:    path,
		aesKey:  aesKey,
		tenants: make(map[string]Tenant),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		r.tenants["default"] = Tenant{ID: "default", Name: "Default", Status: StatusActive}
		if err := r.save(); err != nil {
			return nil, err
		}
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tenant registry: %w", err)
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tenant registry: %w", err)
	}
	for _, tenant := range file.Tenants {
		r.tenants[tenant.ID] = tenant
	}
	return r, nil
}

func (r *Registry) save() error {
	file := registryFile{Tenants: make([]Tenant, 0, len(r.tenants))}
	for _, tenant := range r.tenants {
		file.Tenants = append(file.Tenants, tenant)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tenant registry: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create registry directory: %w", err)
		}
	}
	if err := os.WriteFile(r.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write tenant registry: %w", err)
	}
	return nil
}

// Get returns one tenant by id.
func (r *Registry) Get(tenantID string) (Tenant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tenant, ok := r.tenants[tenantID]
	return tenant, ok
}

// IsActive reports whether a tenant exists and is active.
func (r *Registry) IsActive(tenantID string) bool {
	tenant, ok := r.Get(tenantID)
	return ok && tenant.Status == StatusActive
}

// List returns all registered tenants.
func (r *Registry) List() []Tenant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tenant, 0, len(r.tenants))
	for _, tenant := range r.tenants {
		out = append(out, tenant)
	}
	return out
}

// Register adds or updates a tenant, hashing its admin token and
// encrypting its archive credential before persisting.
func (r *Registry) Register(tenant Tenant, adminToken, archiveToken string) error {
	if tenant.ID == "" {
		return fmt.Errorf("tenant id is required")
	}
	if tenant.Status == "" {
		tenant.Status = StatusActive
	}

	if adminToken != "" {
		hash, err := security.HashAdminToken(adminToken)
		if err != nil {
			return err
		}
		tenant.AdminTokenHash = hash
	}
	if archiveToken != "" {
		encrypted, err := security.Encrypt(archiveToken, r.aesKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt archive token: %w", err)
		}
		tenant.ArchiveToken = encrypted
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[tenant.ID] = tenant
	return r.save()
}

// SetStatus changes a tenant's status and persists the registry.
func (r *Registry) SetStatus(tenantID, status string) error {
	if status != StatusActive && status != StatusInactive {
		return fmt.Errorf("invalid tenant status %q", status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	tenant, ok := r.tenants[tenantID]
	if !ok {
		return fmt.Errorf("unknown tenant %q", tenantID)
	}
	tenant.Status = status
	r.tenants[tenantID] = tenant
	return r.save()
}

// ArchiveTokenFor decrypts a tenant's report-archive credential.
func (r *Registry) ArchiveTokenFor(tenantID string) (string, error) {
	tenant, ok := r.Get(tenantID)
	if !ok {
		return "", fmt.Errorf("unknown tenant %q", tenantID)
	}
	if tenant.ArchiveToken == "" {
		return "", nil
	}
	token, err := security.Decrypt(tenant.ArchiveToken, r.aesKey)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt archive token for %s: %w", tenantID, err)
	}
	return token, nil
}

// VerifyAdminToken checks a presented admin token for a tenant.
func (r *Registry) VerifyAdminToken(tenantID, token string) bool {
	tenant, ok := r.Get(tenantID)
	if !ok {
		return false
	}
	return security.VerifyAdminToken(token, tenant.AdminTokenHash)
}
