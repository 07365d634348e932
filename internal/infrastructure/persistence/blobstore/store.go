// Package blobstore persists one JSON cache blob per tenant and dataset so a
// restarted process can render from cache while live sync catches up. Every
// failure mode on the read path collapses to a cache miss.
package blobstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// Blob is the persisted cache envelope. Data holds the raw record array
// exactly as it was last synchronized.
type Blob struct {
	Version   string          `json:"version"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds at write time
	TenantID  string          `json:"tenantId"`
	Data      json.RawMessage `json:"data"`
}

// Store is the persistence contract for cache blobs. Get returns found=false
// for any blob that is absent or unreadable; envelope validity (version,
// tenant, age) is the caller's concern via Blob.Usable.
type Store interface {
	Get(key string) (Blob, bool)
	Set(key string, blob Blob) error
	Remove(key string) error
	Close() error
}

// Key builds the namespaced storage key for one tenant's dataset blob.
func Key(prefix, dataset, tenantID string) string {
	return fmt.Sprintf("%s_%s_%s", prefix, dataset, tenantID)
}

// NewBlob wraps raw record data in a fresh envelope stamped with the current
// time.
func NewBlob(version, tenantID string, data json.RawMessage) Blob {
	return Blob{
		Version:   version,
		Timestamp: time.Now().UnixMilli(),
		TenantID:  tenantID,
		Data:      data,
	}
}

// Age returns how long ago the blob was written.
func (b Blob) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(b.Timestamp))
}

// Usable reports whether the blob can serve a hydration read: the envelope
// version and tenant must match and the blob must be younger than maxAge.
func (b Blob) Usable(tenantID, version string, maxAge time.Duration, now time.Time) bool {
	if b.Version != version || b.TenantID != tenantID {
		return false
	}
	if b.Timestamp <= 0 {
		return false
	}
	return b.Age(now) <= maxAge
}
