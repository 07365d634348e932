// Package readmetrics counts remote document reads and cache outcomes so
// operators can see how much traffic the sync layer absorbs. Recording is
// passive: it never fails, blocks, or influences the data path.
package readmetrics

import (
	"sort"
	"sync"
	"time"
)

// ReadKey identifies one counter bucket.
type ReadKey struct {
	TenantID  string `json:"tenantId"`
	Dataset   string `json:"dataset"`
	Component string `json:"component"`
	Operation string `json:"operation"`
}

// CacheCounts holds hit/miss tallies for one tenant+dataset pair.
type CacheCounts struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// HitRatio returns hits/(hits+misses), or 0 when nothing was recorded.
func (c CacheCounts) HitRatio() float64 {
	total := c.Hits + c.Misses
	if total == 0 {
		return 0
	}
	return float64(c.Hits) / float64(total)
}

type cacheKey struct {
	tenantID string
	dataset  string
}

// Tracker accumulates read and cache counters in memory.
type Tracker struct {
	mu      sync.Mutex
	reads   map[ReadKey]int64
	cache   map[cacheKey]*CacheCounts
	started time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		reads:   make(map[ReadKey]int64),
		cache:   make(map[cacheKey]*CacheCounts),
		started: time.Now(),
	}
}

// RecordRead counts documents fetched from the remote store. A count of zero
// or less records nothing.
func (t *Tracker) RecordRead(tenantID, dataset, component, operation string, count int) {
	if t == nil || count <= 0 {
		return
	}
	key := ReadKey{TenantID: tenantID, Dataset: dataset, Component: component, Operation: operation}

	t.mu.Lock()
	t.reads[key] += int64(count)
	t.mu.Unlock()
}

// RecordCacheHit counts a successful persistent cache load.
func (t *Tracker) RecordCacheHit(tenantID, dataset string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.bucket(tenantID, dataset).Hits++
	t.mu.Unlock()
}

// RecordCacheMiss counts a persistent cache miss, including stale or
// unreadable blobs treated as absent.
func (t *Tracker) RecordCacheMiss(tenantID, dataset string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.bucket(tenantID, dataset).Misses++
	t.mu.Unlock()
}

func (t *Tracker) bucket(tenantID, dataset string) *CacheCounts {
	key := cacheKey{tenantID: tenantID, dataset: dataset}
	counts, ok := t.cache[key]
	if !ok {
		counts = &CacheCounts{}
		t.cache[key] = counts
	}
	return counts
}

// ReadEntry is one row of the read report.
type ReadEntry struct {
	ReadKey
	Count int64 `json:"count"`
}

// CacheEntry is one row of the cache report.
type CacheEntry struct {
	TenantID string `json:"tenantId"`
	Dataset  string `json:"dataset"`
	CacheCounts
	HitRatio float64 `json:"hitRatio"`
}

// Snapshot is a point-in-time view of all counters.
type Snapshot struct {
	Since      time.Time    `json:"since"`
	TotalReads int64        `json:"totalReads"`
	Reads      []ReadEntry  `json:"reads"`
	Cache      []CacheEntry `json:"cache"`
}

// Snapshot copies the current counters into a report, sorted for stable
// output. The tracker keeps counting afterwards.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		Since: t.started,
		Reads: make([]ReadEntry, 0, len(t.reads)),
		Cache: make([]CacheEntry, 0, len(t.cache)),
	}

	for key, count := range t.reads {
		snap.TotalReads += count
		snap.Reads = append(snap.Reads, ReadEntry{ReadKey: key, Count: count})
	}
	sort.Slice(snap.Reads, func(i, j int) bool {
		a, b := snap.Reads[i], snap.Reads[j]
		if a.TenantID != b.TenantID {
			return a.TenantID < b.TenantID
		}
		if a.Dataset != b.Dataset {
			return a.Dataset < b.Dataset
		}
		if a.Component != b.Component {
			return a.Component < b.Component
		}
		return a.Operation < b.Operation
	})

	for key, counts := range t.cache {
		snap.Cache = append(snap.Cache, CacheEntry{
			TenantID:    key.tenantID,
			Dataset:     key.dataset,
			CacheCounts: *counts,
			HitRatio:    counts.HitRatio(),
		})
	}
	sort.Slice(snap.Cache, func(i, j int) bool {
		a, b := snap.Cache[i], snap.Cache[j]
		if a.TenantID != b.TenantID {
			return a.TenantID < b.TenantID
		}
		return a.Dataset < b.Dataset
	})

	return snap
}

// Reset clears all counters, typically after a tenant teardown in tests.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.reads = make(map[ReadKey]int64)
	t.cache = make(map[cacheKey]*CacheCounts)
	t.started = time.Now()
}
