package remote

import (
	"context"
	"sync"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/domain/records"
)

// MemorySource is an in-process Source used by tests and standalone dev
// mode. Records are seeded per tenant; Publish pushes deltas to open
// subscriptions the way the real feed would.
type MemorySource[R records.Record] struct {
	mu      sync.Mutex
	byTen   map[string]map[string]R
	subs    map[int]*memorySub[R]
	nextSub int

	// FetchErr makes Fetch fail, simulating an unreachable store.
	FetchErr error
	// SubscribeErr makes Subscribe fail.
	SubscribeErr error
	// HoldInitial suppresses the automatic initial delivery on Subscribe;
	// tests trigger it later with ReleaseInitial.
	HoldInitial bool
	// FetchHook, when set, runs at the start of every Fetch. Tests use it
	// to interleave other operations with an in-flight fetch.
	FetchHook func()

	fetchCount int
}

type memorySub[R records.Record] struct {
	tenantID string
	deliver  func(Delivery[R])
	active   bool
	seeded   bool
}

// NewMemorySource creates an empty source.
func NewMemorySource[R records.Record]() *MemorySource[R] {
	return &MemorySource[R]{
		byTen: make(map[string]map[string]R),
		subs:  make(map[int]*memorySub[R]),
	}
}

// Seed replaces the stored record set for a tenant.
func (s *MemorySource[R]) Seed(tenantID string, recs ...R) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[string]R, len(recs))
	for _, r := range recs {
		set[r.RecordID()] = r
	}
	s.byTen[tenantID] = set
}

func (s *MemorySource[R]) snapshot(tenantID string) []R {
	out := make([]R, 0, len(s.byTen[tenantID]))
	for _, r := range s.byTen[tenantID] {
		out = append(out, r)
	}
	return out
}

// Fetch returns the seeded records for the query's tenant.
func (s *MemorySource[R]) Fetch(ctx context.Context, q Query) ([]R, error) {
	if s.FetchHook != nil {
		s.FetchHook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.fetchCount++
	return s.snapshot(q.TenantID), nil
}

// FetchCount reports how many Fetch calls succeeded, for asserting that
// cache hits avoided remote reads.
func (s *MemorySource[R]) FetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCount
}

// Subscribe registers a subscriber and, unless HoldInitial is set,
// immediately delivers the initial batch on the caller's goroutine.
func (s *MemorySource[R]) Subscribe(q Query, deliver func(Delivery[R])) (Unsubscribe, error) {
	s.mu.Lock()
	if s.SubscribeErr != nil {
		err := s.SubscribeErr
		s.mu.Unlock()
		return nil, err
	}

	id := s.nextSub
	s.nextSub++
	sub := &memorySub[R]{tenantID: q.TenantID, deliver: deliver, active: true}
	s.subs[id] = sub

	var initial *Delivery[R]
	if !s.HoldInitial {
		sub.seeded = true
		d := s.initialDelivery(q.TenantID)
		initial = &d
	}
	s.mu.Unlock()

	if initial != nil {
		deliver(*initial)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if sub, ok := s.subs[id]; ok {
				sub.active = false
				delete(s.subs, id)
			}
			s.mu.Unlock()
		})
	}, nil
}

func (s *MemorySource[R]) initialDelivery(tenantID string) Delivery[R] {
	changes := make([]Change[R], 0, len(s.byTen[tenantID]))
	for id, r := range s.byTen[tenantID] {
		changes = append(changes, Change[R]{Type: ChangeAdded, ID: id, Record: r})
	}
	return Delivery[R]{Initial: true, Changes: changes}
}

// ReleaseInitial delivers the held initial batch to all subscriptions that
// have not yet received one.
func (s *MemorySource[R]) ReleaseInitial() {
	s.mu.Lock()
	type pending struct {
		deliver func(Delivery[R])
		batch   Delivery[R]
	}
	var out []pending
	for _, sub := range s.subs {
		if sub.active && !sub.seeded {
			sub.seeded = true
			out = append(out, pending{deliver: sub.deliver, batch: s.initialDelivery(sub.tenantID)})
		}
	}
	s.mu.Unlock()

	for _, p := range out {
		p.deliver(p.batch)
	}
}

// Publish applies changes to the stored set and fans them out as one delta
// delivery to every active subscription for the tenant.
func (s *MemorySource[R]) Publish(tenantID string, changes ...Change[R]) {
	s.mu.Lock()
	set, ok := s.byTen[tenantID]
	if !ok {
		set = make(map[string]R)
		s.byTen[tenantID] = set
	}
	for _, c := range changes {
		switch c.Type {
		case ChangeRemoved:
			delete(set, c.ID)
		default:
			set[c.ID] = c.Record
		}
	}

	var targets []func(Delivery[R])
	for _, sub := range s.subs {
		if sub.active && sub.seeded && sub.tenantID == tenantID {
			targets = append(targets, sub.deliver)
		}
	}
	s.mu.Unlock()

	d := Delivery[R]{Changes: changes}
	for _, deliver := range targets {
		deliver(d)
	}
}

// ActiveSubscriptions reports how many live subscriptions exist, for
// asserting teardown behavior.
func (s *MemorySource[R]) ActiveSubscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
