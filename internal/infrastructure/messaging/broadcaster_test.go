package messaging

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
)

func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToConsole: true,
		JSONFormat:      true,
		DefaultLevel:    slog.Level(12),
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return logger
}

func TestBroadcastReachesTenantClients(t *testing.T) {
	t.Parallel()

	b := NewSSEBroadcaster(10, testLogger(t))
	ch := b.AddClient("org1")
	defer b.RemoveClient("org1", ch)

	b.BroadcastDatasetUpdated("org1", "sessions")

	select {
	case msg := <-ch:
		if !strings.Contains(msg, "event: dataset_updated") {
			t.Fatalf("message = %q", msg)
		}
		if !strings.Contains(msg, `"dataset":"sessions"`) {
			t.Fatalf("payload missing dataset: %q", msg)
		}
	default:
		t.Fatal("no message delivered")
	}
}

func TestBroadcastIsolatesTenants(t *testing.T) {
	t.Parallel()

	b := NewSSEBroadcaster(10, testLogger(t))
	org1 := b.AddClient("org1")
	org2 := b.AddClient("org2")
	defer b.RemoveClient("org1", org1)
	defer b.RemoveClient("org2", org2)

	b.BroadcastDatasetUpdated("org1", "personnel")

	if len(org2) != 0 {
		t.Fatal("tenant org2 received org1 event")
	}
	if len(org1) != 1 {
		t.Fatalf("org1 message count = %d", len(org1))
	}
}

func TestBroadcastDropsWhenChannelFull(t *testing.T) {
	t.Parallel()

	b := NewSSEBroadcaster(1, testLogger(t))
	ch := b.AddClient("org1")
	defer b.RemoveClient("org1", ch)

	// Second broadcast must not block despite the full channel.
	b.BroadcastDatasetUpdated("org1", "sessions")
	b.BroadcastDatasetUpdated("org1", "sessions")

	if len(ch) != 1 {
		t.Fatalf("buffered messages = %d, want 1", len(ch))
	}
}

func TestRemoveClientStopsDelivery(t *testing.T) {
	t.Parallel()

	b := NewSSEBroadcaster(10, testLogger(t))
	ch := b.AddClient("org1")
	b.RemoveClient("org1", ch)

	if b.ConnectionCount("org1") != 0 {
		t.Fatalf("connection count = %d", b.ConnectionCount("org1"))
	}
	b.BroadcastDatasetUpdated("org1", "sessions")
	if len(ch) != 0 {
		t.Fatal("removed client received message")
	}
}

func TestDisconnectTenantClosesChannels(t *testing.T) {
	t.Parallel()

	b := NewSSEBroadcaster(10, testLogger(t))
	ch := b.AddClient("org1")

	b.DisconnectTenant("org1")

	if _, open := <-ch; open {
		t.Fatal("channel still open after disconnect")
	}
	if b.ConnectionCount("org1") != 0 {
		t.Fatal("clients remain after disconnect")
	}
}
