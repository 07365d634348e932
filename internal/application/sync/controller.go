// Package sync implements incremental cache synchronization for one tenant:
// per-dataset controllers that hydrate from the persistent cache, subscribe
// to the remote change feed, and keep projected read models current.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/domain/projection"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/domain/records"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/readmetrics"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/persistence/blobstore"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/remote"
	"github.com/Jsunwilke/Focal-Point-sub000/pkg/config"
)

// State is the lifecycle phase of one dataset controller.
type State string

const (
	StateCold      State = "cold"      // created, not started
	StateHydrating State = "hydrating" // waiting for the first remote batch
	StateLive      State = "live"      // serving data, subscription open or pending
	StateError     State = "error"     // hydration failed
)

// ErrRecordNotFound is returned by optimistic updates targeting an unknown
// record id.
var ErrRecordNotFound = errors.New("record not found")

// Projector transforms raw records into projected entries.
type Projector[R records.Record, P any] func(projection.Context, []R) []P

// Options configures one controller.
type Options[R records.Record, P any] struct {
	Dataset  string
	TenantID string
	Query    remote.Query
	Tuning   config.DatasetConfig

	KeyPrefix   string
	BlobVersion string

	Source  remote.Source[R]
	Blobs   blobstore.Store
	Metrics *readmetrics.Tracker
	Logger  *logging.ChanneledLogger

	Project    Projector[R, P]
	ProjectCtx projection.Context

	// OnPublish fires after every projected-data change, outside the
	// controller lock. Optional.
	OnPublish func(dataset string)

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// Controller synchronizes one dataset for one tenant. All state is guarded
// by mu; subscription callbacks and timers re-check their generation so
// work scheduled before a teardown never touches the next lifecycle.
type Controller[R records.Record, P any] struct {
	opts Options[R, P]
	key  string

	mu           sync.Mutex
	state        State
	err          error
	raw          map[string]R
	projected    []P
	lastSynced   time.Time
	lastDelivery time.Time

	unsubscribe     remote.Unsubscribe
	activationTimer *time.Timer
	hydrationTimer  *time.Timer
	generation      int
	started         bool
}

// NewController creates a controller in the cold state.
func NewController[R records.Record, P any](opts Options[R, P]) *Controller[R, P] {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	c := &Controller[R, P]{
		opts:  opts,
		key:   blobstore.Key(opts.KeyPrefix, opts.Dataset, opts.TenantID),
		state: StateCold,
		raw:   make(map[string]R),
	}
	return c
}

func (c *Controller[R, P]) lock()   { c.mu.Lock() }
func (c *Controller[R, P]) unlock() { c.mu.Unlock() }

// Start hydrates the controller. With a usable persisted blob the cached
// data is published immediately and the live subscription opens after the
// activation delay; on a cache miss the subscription opens at once and the
// first batch hydrates. Start is a no-op after the first call.
func (c *Controller[R, P]) Start() {
	c.lock()
	if c.started {
		c.unlock()
		return
	}
	c.started = true
	gen := c.generation

	if c.hydrateFromBlob() {
		c.setState(StateLive, "cache-hit")
		delay := c.opts.Tuning.ActivationDelay
		c.activationTimer = time.AfterFunc(delay, func() {
			c.openSubscription(gen)
		})
		publish := c.opts.OnPublish
		dataset := c.opts.Dataset
		c.unlock()
		if publish != nil {
			publish(dataset)
		}
		return
	}

	c.setState(StateHydrating, "cache-miss")
	timeout := c.opts.Tuning.HydrationTimeout
	c.hydrationTimer = time.AfterFunc(timeout, func() {
		c.onHydrationTimeout(gen, timeout)
	})
	c.unlock()

	c.openSubscription(gen)
}

// hydrateFromBlob loads and validates the persisted blob. Caller holds the
// lock. Returns true when the cache served.
func (c *Controller[R, P]) hydrateFromBlob() bool {
	now := c.opts.Clock()
	start := now

	blob, found := c.opts.Blobs.Get(c.key)
	if !found {
		c.opts.Metrics.RecordCacheMiss(c.opts.TenantID, c.opts.Dataset)
		return false
	}
	if !blob.Usable(c.opts.TenantID, c.opts.BlobVersion, c.opts.Tuning.CacheMaxAge, now) {
		c.opts.Logger.Cache().Debug("Persisted blob unusable, hydrating from remote",
			"key", c.key, "version", blob.Version, "age", blob.Age(now).String())
		c.opts.Metrics.RecordCacheMiss(c.opts.TenantID, c.opts.Dataset)
		return false
	}

	var recs []R
	if err := json.Unmarshal(blob.Data, &recs); err != nil {
		c.opts.Logger.Cache().Debug("Persisted blob undecodable, hydrating from remote",
			"key", c.key, "error", err.Error())
		c.opts.Metrics.RecordCacheMiss(c.opts.TenantID, c.opts.Dataset)
		return false
	}

	c.raw = make(map[string]R, len(recs))
	for _, rec := range recs {
		c.raw[rec.RecordID()] = rec
	}
	c.reprojectLocked()
	c.lastSynced = time.UnixMilli(blob.Timestamp)

	c.opts.Metrics.RecordCacheHit(c.opts.TenantID, c.opts.Dataset)
	c.opts.Logger.LogCacheOperation("hydrate", c.key, true, time.Since(start), c.opts.TenantID)
	return true
}

// openSubscription opens the live change-feed subscription unless the
// controller generation moved on.
func (c *Controller[R, P]) openSubscription(gen int) {
	c.lock()
	if gen != c.generation || c.unsubscribe != nil {
		c.unlock()
		return
	}
	query := c.opts.Query
	c.unlock()

	unsubscribe, err := c.opts.Source.Subscribe(query, func(d remote.Delivery[R]) {
		c.onDelivery(gen, d)
	})

	c.lock()
	if err != nil {
		if c.state == StateHydrating {
			c.setState(StateError, "subscribe-failed")
			c.err = fmt.Errorf("failed to open %s subscription: %w", c.opts.Dataset, err)
			c.stopTimersLocked()
		} else {
			c.opts.Logger.LogError(logging.ChannelSync, "subscribe", err, c.opts.TenantID,
				map[string]any{"dataset": c.opts.Dataset})
		}
		c.unlock()
		return
	}
	if gen != c.generation {
		// Torn down while the subscribe call was in flight.
		c.unlock()
		unsubscribe()
		return
	}
	c.unsubscribe = unsubscribe
	c.unlock()
}

func (c *Controller[R, P]) onHydrationTimeout(gen int, timeout time.Duration) {
	c.lock()
	defer c.unlock()

	if gen != c.generation || c.state != StateHydrating {
		return
	}
	c.setState(StateError, "hydration-timeout")
	c.err = fmt.Errorf("hydration of %s timed out after %s", c.opts.Dataset, timeout)
}

// onDelivery processes one change-feed delivery. The initial batch always
// replaces the full record set; deltas landing inside the cooldown window
// are dropped.
func (c *Controller[R, P]) onDelivery(gen int, d remote.Delivery[R]) {
	start := time.Now()

	c.lock()
	if gen != c.generation {
		c.unlock()
		return
	}

	now := c.opts.Clock()
	if !d.Initial && !c.lastDelivery.IsZero() && now.Sub(c.lastDelivery) < c.opts.Tuning.Cooldown {
		c.opts.Logger.Sync().Debug("Delivery dropped by cooldown",
			"tenantId", c.opts.TenantID, "dataset", c.opts.Dataset,
			"sinceLast", now.Sub(c.lastDelivery).String())
		c.unlock()
		return
	}

	if d.Initial {
		c.raw = make(map[string]R, len(d.Changes))
		for _, change := range d.Changes {
			if change.Type == remote.ChangeRemoved {
				continue
			}
			c.raw[change.Record.RecordID()] = change.Record
		}
		c.stopHydrationTimerLocked()
		c.err = nil
		c.setState(StateLive, "initial-batch")
		c.opts.Metrics.RecordRead(c.opts.TenantID, c.opts.Dataset, "controller", "initial-batch", len(d.Changes))
	} else {
		c.mergeLocked(d.Changes)
		c.opts.Metrics.RecordRead(c.opts.TenantID, c.opts.Dataset, "controller", "delta", len(d.Changes))
	}

	c.lastDelivery = now
	c.lastSynced = now
	c.reprojectLocked()
	c.persistLocked()

	publish := c.opts.OnPublish
	dataset := c.opts.Dataset
	c.unlock()

	elapsed := time.Since(start)
	if config.SlowSyncWarning > 0 && elapsed > config.SlowSyncWarning {
		c.opts.Logger.LogSlowSync(c.opts.TenantID, c.opts.Dataset, elapsed, len(d.Changes))
	}
	if publish != nil {
		publish(dataset)
	}
}

// mergeLocked applies delta changes. Modifications and removals of unknown
// ids are silently ignored as already-consistent; the next initial batch
// reconciles any drift.
func (c *Controller[R, P]) mergeLocked(changes []remote.Change[R]) {
	for _, change := range changes {
		switch change.Type {
		case remote.ChangeRemoved:
			delete(c.raw, change.ID)
		case remote.ChangeAdded:
			c.raw[change.Record.RecordID()] = change.Record
		case remote.ChangeModified:
			id := change.Record.RecordID()
			if _, ok := c.raw[id]; ok {
				c.raw[id] = change.Record
			}
		default:
			c.opts.Logger.Sync().Debug("Ignoring unknown change type",
				"dataset", c.opts.Dataset, "type", string(change.Type))
		}
	}
}

// sortedRecordsLocked returns the raw set ordered by id so projection and
// persistence are deterministic.
func (c *Controller[R, P]) sortedRecordsLocked() []R {
	recs := make([]R, 0, len(c.raw))
	for _, rec := range c.raw {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].RecordID() < recs[j].RecordID()
	})
	return recs
}

func (c *Controller[R, P]) reprojectLocked() {
	c.projected = c.opts.Project(c.opts.ProjectCtx, c.sortedRecordsLocked())
}

// persistLocked writes the current raw set to the blob store. Persistence
// failures are logged and otherwise ignored; the in-memory state stays
// authoritative.
func (c *Controller[R, P]) persistLocked() {
	data, err := json.Marshal(c.sortedRecordsLocked())
	if err != nil {
		c.opts.Logger.LogError(logging.ChannelCache, "persist-encode", err, c.opts.TenantID,
			map[string]any{"dataset": c.opts.Dataset})
		return
	}
	blob := blobstore.NewBlob(c.opts.BlobVersion, c.opts.TenantID, data)
	if err := c.opts.Blobs.Set(c.key, blob); err != nil {
		c.opts.Logger.LogError(logging.ChannelCache, "persist-write", err, c.opts.TenantID,
			map[string]any{"dataset": c.opts.Dataset})
	}
}

// Reproject re-runs the projector over the current raw set and publishes.
// Used when a cross-dataset dependency (personnel names) changes.
func (c *Controller[R, P]) Reproject() {
	c.lock()
	if len(c.raw) == 0 {
		c.unlock()
		return
	}
	c.reprojectLocked()
	publish := c.opts.OnPublish
	dataset := c.opts.Dataset
	c.unlock()

	if publish != nil {
		publish(dataset)
	}
}

// ApplyOptimistic merges partial fields over the identified record,
// re-projects, persists, and publishes synchronously. There is no rollback
// if the corresponding remote write later fails; a future delta or initial
// batch reconciles the record.
func (c *Controller[R, P]) ApplyOptimistic(id string, partial map[string]any) error {
	c.lock()
	rec, ok := c.raw[id]
	if !ok {
		c.unlock()
		return fmt.Errorf("%w: %s/%s", ErrRecordNotFound, c.opts.Dataset, id)
	}

	merged, err := records.MergePartial(rec, partial)
	if err != nil {
		c.unlock()
		return fmt.Errorf("optimistic merge failed for %s/%s: %w", c.opts.Dataset, id, err)
	}

	c.raw[id] = merged
	c.reprojectLocked()
	c.persistLocked()

	publish := c.opts.OnPublish
	dataset := c.opts.Dataset
	c.unlock()

	c.opts.Logger.Sync().Debug("Optimistic update applied",
		"tenantId", c.opts.TenantID, "dataset", dataset, "id", id)
	if publish != nil {
		publish(dataset)
	}
	return nil
}

// Invalidate drops the persisted blob and clears the last-synced timestamp
// so the next cold start hydrates from the remote store. In-memory data
// stays available.
func (c *Controller[R, P]) Invalidate() error {
	if err := c.opts.Blobs.Remove(c.key); err != nil {
		return fmt.Errorf("failed to invalidate %s cache: %w", c.opts.Dataset, err)
	}
	c.lock()
	c.lastSynced = time.Time{}
	c.unlock()
	c.opts.Logger.Cache().Info("Cache invalidated",
		"tenantId", c.opts.TenantID, "dataset", c.opts.Dataset)
	return nil
}

// Refresh drops both the persisted blob and the in-memory state, then
// refetches the full result set from the remote store. The open
// subscription keeps streaming deltas afterwards.
func (c *Controller[R, P]) Refresh(ctx context.Context) error {
	c.lock()
	gen := c.generation
	c.unlock()

	if err := c.Invalidate(); err != nil {
		return err
	}

	recs, err := c.opts.Source.Fetch(ctx, c.opts.Query)
	if err != nil {
		return fmt.Errorf("failed to refresh %s: %w", c.opts.Dataset, err)
	}
	c.opts.Metrics.RecordRead(c.opts.TenantID, c.opts.Dataset, "controller", "refresh", len(recs))

	c.lock()
	if gen != c.generation {
		// Torn down while the fetch was in flight.
		c.unlock()
		return nil
	}
	c.raw = make(map[string]R, len(recs))
	for _, rec := range recs {
		c.raw[rec.RecordID()] = rec
	}
	now := c.opts.Clock()
	c.lastSynced = now
	c.lastDelivery = now
	c.err = nil
	if c.state == StateError || c.state == StateHydrating {
		c.stopHydrationTimerLocked()
		c.setState(StateLive, "refresh")
	}
	c.reprojectLocked()
	c.persistLocked()

	publish := c.opts.OnPublish
	dataset := c.opts.Dataset
	c.unlock()

	if publish != nil {
		publish(dataset)
	}
	return nil
}

// Teardown closes the subscription, cancels pending timers, and clears all
// in-memory state. It is idempotent; the persisted blob survives for the
// next start of the same tenant.
func (c *Controller[R, P]) Teardown() {
	c.lock()
	c.generation++
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.stopTimersLocked()
	c.raw = make(map[string]R)
	c.projected = nil
	c.err = nil
	c.lastSynced = time.Time{}
	c.lastDelivery = time.Time{}
	c.started = false
	if c.state != StateCold {
		c.setState(StateCold, "teardown")
	}
	c.unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (c *Controller[R, P]) stopTimersLocked() {
	if c.activationTimer != nil {
		c.activationTimer.Stop()
		c.activationTimer = nil
	}
	c.stopHydrationTimerLocked()
}

func (c *Controller[R, P]) stopHydrationTimerLocked() {
	if c.hydrationTimer != nil {
		c.hydrationTimer.Stop()
		c.hydrationTimer = nil
	}
}

func (c *Controller[R, P]) setState(next State, reason string) {
	prev := c.state
	c.state = next
	if prev != next {
		c.opts.Logger.LogStateTransition(c.opts.TenantID, c.opts.Dataset, string(prev), string(next), reason)
	}
}

// View is one dataset's read model.
type View[P any] struct {
	State      State     `json:"state"`
	Loading    bool      `json:"loading"`
	Error      string    `json:"error,omitempty"`
	Data       []P       `json:"data"`
	LastSynced time.Time `json:"lastSynced,omitempty"`
}

// Snapshot returns the current read model for the dataset.
func (c *Controller[R, P]) Snapshot() View[P] {
	c.lock()
	defer c.unlock()

	view := View[P]{
		State:      c.state,
		Loading:    c.state == StateCold || c.state == StateHydrating,
		Data:       c.projected,
		LastSynced: c.lastSynced,
	}
	if c.err != nil {
		view.Error = c.err.Error()
	}
	return view
}

// Raw returns a copy of the raw record set, used for cross-dataset lookups.
func (c *Controller[R, P]) Raw() map[string]R {
	c.lock()
	defer c.unlock()

	out := make(map[string]R, len(c.raw))
	for id, rec := range c.raw {
		out[id] = rec
	}
	return out
}

// Lookup returns one raw record by id.
func (c *Controller[R, P]) Lookup(id string) (R, bool) {
	c.lock()
	defer c.unlock()
	rec, ok := c.raw[id]
	return rec, ok
}
