// Package remote provides access to the remote document store: typed
// change-feed subscriptions over websocket plus a one-shot archive query
// path for historical job reports.
package remote

import (
	"context"
	"time"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/domain/records"
)

// ChangeType classifies one record change in a delivery.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
)

// Change is one record-level change. For removals only ID is meaningful.
type Change[R records.Record] struct {
	Type   ChangeType `json:"type"`
	ID     string     `json:"id"`
	Record R          `json:"record"`
}

// Delivery is one batch handed to a subscriber. The first delivery on a
// subscription carries Initial=true and the full current result set as
// added changes; later deliveries carry only deltas.
type Delivery[R records.Record] struct {
	Initial bool        `json:"initial"`
	Changes []Change[R] `json:"changes"`
}

// Query scopes a subscription or fetch to one tenant, optionally windowed
// by date for datasets that bound their sync range.
type Query struct {
	TenantID string
	From     time.Time
	To       time.Time
}

// Windowed reports whether the query carries a date window.
func (q Query) Windowed() bool {
	return !q.From.IsZero() || !q.To.IsZero()
}

// Unsubscribe tears down one subscription. Safe to call more than once.
type Unsubscribe func()

// Source is the typed contract a cache controller syncs against.
type Source[R records.Record] interface {
	// Fetch returns the current full result set for the query.
	Fetch(ctx context.Context, q Query) ([]R, error)

	// Subscribe opens a live subscription. The deliver callback receives
	// the initial batch first, then incremental deltas, until the
	// returned Unsubscribe is called.
	Subscribe(q Query, deliver func(Delivery[R])) (Unsubscribe, error)
}
