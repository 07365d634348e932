package messaging

// Broadcaster is the contract for per-tenant SSE client management and
// dataset-update fan-out.
type Broadcaster interface {
	AddClient(tenantID string) chan string
	RemoveClient(tenantID string, ch chan string)
	ConnectionCount(tenantID string) int
	BroadcastDatasetUpdated(tenantID, dataset string)
	DisconnectTenant(tenantID string)
}
