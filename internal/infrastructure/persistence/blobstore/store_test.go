package blobstore

import (
	"encoding/json"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	t.Parallel()

	got := Key("focalpoint", "sessions", "org42")
	want := "focalpoint_sessions_org42"
	if got != want {
		t.Fatalf("Key = %q, want %q", got, want)
	}
}

func TestBlobUsable(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	fresh := Blob{
		Version:   "1.3",
		Timestamp: now.Add(-time.Hour).UnixMilli(),
		TenantID:  "org1",
	}

	tests := []struct {
		name string
		blob Blob
		want bool
	}{
		{"fresh matching blob", fresh, true},
		{"wrong version", Blob{Version: "1.2", Timestamp: fresh.Timestamp, TenantID: "org1"}, false},
		{"wrong tenant", Blob{Version: "1.3", Timestamp: fresh.Timestamp, TenantID: "org2"}, false},
		{"too old", Blob{Version: "1.3", Timestamp: now.Add(-3 * time.Hour).UnixMilli(), TenantID: "org1"}, false},
		{"zero timestamp", Blob{Version: "1.3", TenantID: "org1"}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.blob.Usable("org1", "1.3", 2*time.Hour, now); got != tt.want {
				t.Fatalf("Usable = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	key := Key("focalpoint", "personnel", "org1")
	blob := NewBlob("1.3", "org1", json.RawMessage(`[{"id":"u1"}]`))

	if err := store.Set(key, blob); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, found := store.Get(key)
	if !found {
		t.Fatal("expected blob to be found")
	}
	if got.TenantID != "org1" || string(got.Data) != `[{"id":"u1"}]` {
		t.Fatalf("unexpected blob: %+v", got)
	}

	if err := store.Remove(key); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, found := store.Get(key); found {
		t.Fatal("expected blob to be gone after remove")
	}
	if err := store.Remove(key); err != nil {
		t.Fatalf("removing absent key should not error: %v", err)
	}
}

func TestMemoryStoreFailWrites(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	store.FailWrites = true

	err := store.Set("k", NewBlob("1.3", "org1", json.RawMessage(`[]`)))
	if err == nil {
		t.Fatal("expected write error")
	}
	if store.Len() != 0 {
		t.Fatalf("store should be empty, has %d blobs", store.Len())
	}
}
