package agent

import (
	"context"
	"slices"
	"sync"

	"hayat/internal/agent/ports"
	"hayat/internal/family"
	"hayat/internal/obligation"
)

type settlement struct {
	basis obligation.Record
	apply []func(*obligation.Record)
}

// Tracker keeps an agent's obligation cache in step with its feed. Local
// settlements (a fine paid, a renewal started) are re-applied on every sync
// until the feed reports something different from what was settled.
type Tracker struct {
	feed   ports.FeedPort
	family ports.FamilyStructureProvider
	kinds  []obligation.Kind
	cache  *obligation.Cache

	mu          sync.Mutex
	settled     map[obligation.Key]*settlement
	subscribed  bool
	unsubscribe func()
}

// NewTracker tracks the given kinds for every household member.
func NewTracker(feed ports.FeedPort, provider ports.FamilyStructureProvider, kinds ...obligation.Kind) *Tracker {
	return &Tracker{
		feed:    feed,
		family:  provider,
		kinds:   kinds,
		cache:   obligation.NewCache(),
		settled: make(map[obligation.Key]*settlement),
	}
}

// Owns reports whether the tracker is responsible for kind.
func (t *Tracker) Owns(kind obligation.Kind) bool {
	return slices.Contains(t.kinds, kind)
}

// Sync fetches a full snapshot for the household and reconciles the cache.
func (t *Tracker) Sync(ctx context.Context) ([]obligation.Supersession, error) {
	memberIDs := t.memberIDs()
	var snapshot []obligation.Record
	if len(memberIDs) > 0 {
		records, err := t.feed.Fetch(ctx, memberIDs)
		if err != nil {
			return nil, err
		}
		snapshot = records
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	present := make(map[obligation.Key]bool, len(snapshot))
	for i := range snapshot {
		snapshot[i] = snapshot[i].Normalize()
		key := snapshot[i].Key()
		present[key] = true
		t.settleLocked(&snapshot[i])
	}
	for key := range t.settled {
		if !present[key] {
			delete(t.settled, key)
		}
	}
	return t.cache.Sync(t.kinds, snapshot), nil
}

// Ingest applies a single pushed record. Records of other kinds or for
// people outside the household are ignored.
func (t *Tracker) Ingest(rec obligation.Record) (obligation.Supersession, bool) {
	if !t.Owns(rec.Kind) {
		return obligation.Supersession{}, false
	}
	if ids := t.memberIDs(); len(ids) > 0 && !slices.Contains(ids, rec.MemberID) {
		return obligation.Supersession{}, false
	}
	rec = rec.Normalize()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settleLocked(&rec)
	return t.cache.Upsert(rec)
}

func (t *Tracker) settleLocked(rec *obligation.Record) {
	key := rec.Key()
	s, ok := t.settled[key]
	if !ok {
		return
	}
	if !s.basis.Equal(*rec) {
		delete(t.settled, key)
		return
	}
	for _, fn := range s.apply {
		fn(rec)
	}
}

// Settle applies a local change to a cached record and keeps it applied
// while the feed still reports the pre-change version.
func (t *Tracker) Settle(key obligation.Key, fn func(*obligation.Record)) (obligation.Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.cache.Get(key)
	if !ok {
		return obligation.Record{}, false
	}
	s, exists := t.settled[key]
	if !exists {
		s = &settlement{basis: current}
		t.settled[key] = s
	}
	s.apply = append(s.apply, fn)
	return t.cache.Update(key, fn)
}

// Subscribe ingests pushed records until Unsubscribe. onSupersede, if set,
// is called for every record that replaced a cached version. Repeated calls
// keep the first subscription.
func (t *Tracker) Subscribe(sub ports.SubscriptionPort, onSupersede func(obligation.Supersession)) {
	if sub == nil {
		return
	}
	t.mu.Lock()
	if t.subscribed {
		t.mu.Unlock()
		return
	}
	t.subscribed = true
	t.mu.Unlock()

	unsubscribe := sub.Subscribe(func(rec obligation.Record) {
		if sup, changed := t.Ingest(rec); changed && onSupersede != nil {
			onSupersede(sup)
		}
	})

	t.mu.Lock()
	t.unsubscribe = unsubscribe
	t.mu.Unlock()
}

// Unsubscribe releases the subscription. Safe to call repeatedly.
func (t *Tracker) Unsubscribe() {
	t.mu.Lock()
	fn := t.unsubscribe
	t.unsubscribe = nil
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Records returns the cached records in first-seen order.
func (t *Tracker) Records() []obligation.Record {
	return t.cache.List()
}

// Get returns one cached record.
func (t *Tracker) Get(key obligation.Key) (obligation.Record, bool) {
	return t.cache.Get(key)
}

// Member resolves a household member, if the structure is known.
func (t *Tracker) Member(id string) (family.Member, bool) {
	if t.family == nil {
		return family.Member{}, false
	}
	s, ok := t.family.FamilyStructure()
	if !ok || s == nil {
		return family.Member{}, false
	}
	return s.Member(id)
}

func (t *Tracker) memberIDs() []string {
	if t.family == nil {
		return nil
	}
	return t.family.MemberIDs()
}
