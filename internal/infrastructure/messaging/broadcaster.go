// Package messaging provides the SSE broadcaster that pushes dataset
// update notifications to connected clients.
package messaging

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
)

// SSEBroadcaster manages tenant-scoped SSE connections. Clients of one
// tenant never receive another tenant's events.
type SSEBroadcaster struct {
	tenantClients map[string][]chan string // tenantId -> client channels
	buffer        int
	mu            sync.Mutex
	logger        *logging.ChanneledLogger
}

var _ Broadcaster = (*SSEBroadcaster)(nil)

// NewSSEBroadcaster creates a broadcaster. Each client channel buffers up
// to buffer messages; a full channel drops rather than blocks.
func NewSSEBroadcaster(buffer int, logger *logging.ChanneledLogger) *SSEBroadcaster {
	if buffer <= 0 {
		buffer = 10
	}
	return &SSEBroadcaster{
		tenantClients: make(map[string][]chan string),
		buffer:        buffer,
		logger:        logger,
	}
}

// AddClient registers a new SSE client for a tenant.
func (b *SSEBroadcaster) AddClient(tenantID string) chan string {
	ch := make(chan string, b.buffer)

	b.mu.Lock()
	b.tenantClients[tenantID] = append(b.tenantClients[tenantID], ch)
	b.mu.Unlock()

	b.logger.SSE().Debug("SSE client registered", "tenantId", tenantID)
	return ch
}

// RemoveClient unregisters an SSE client.
func (b *SSEBroadcaster) RemoveClient(tenantID string, ch chan string) {
	b.mu.Lock()
	clients := b.tenantClients[tenantID]
	remaining := make([]chan string, 0, len(clients))
	for _, client := range clients {
		if client != ch {
			remaining = append(remaining, client)
		}
	}
	if len(remaining) == 0 {
		delete(b.tenantClients, tenantID)
	} else {
		b.tenantClients[tenantID] = remaining
	}
	b.mu.Unlock()

	b.logger.SSE().Debug("SSE client unregistered", "tenantId", tenantID)
}

// ConnectionCount returns the number of connected clients for a tenant.
func (b *SSEBroadcaster) ConnectionCount(tenantID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tenantClients[tenantID])
}

// BroadcastDatasetUpdated notifies a tenant's clients that one dataset's
// projected data changed. Slow clients miss events rather than stalling
// the sync path.
func (b *SSEBroadcaster) BroadcastDatasetUpdated(tenantID, dataset string) {
	payload, _ := json.Marshal(map[string]string{"dataset": dataset})
	message := fmt.Sprintf("event: dataset_updated\ndata: %s\n\n", payload)

	b.mu.Lock()
	clients := b.tenantClients[tenantID]
	delivered := 0
	for _, ch := range clients {
		select {
		case ch <- message:
			delivered++
		default:
			b.logger.SSE().Warn("SSE channel full, message dropped",
				"tenantId", tenantID, "dataset", dataset)
		}
	}
	b.mu.Unlock()

	if delivered > 0 {
		b.logger.LogSSEEvent("dataset_updated", tenantID, delivered)
	}
}

// DisconnectTenant closes every client channel for a tenant, used during
// tenant teardown so no stale stream survives the switch.
func (b *SSEBroadcaster) DisconnectTenant(tenantID string) {
	b.mu.Lock()
	clients := b.tenantClients[tenantID]
	delete(b.tenantClients, tenantID)
	b.mu.Unlock()

	for _, ch := range clients {
		close(ch)
	}
	if len(clients) > 0 {
		b.logger.SSE().Info("SSE clients disconnected", "tenantId", tenantID, "count", len(clients))
	}
}
