package obligation

import "sync"

// Supersession describes an authoritative record replaced by a newer version.
type Supersession struct {
	Previous Record `json:"previous"`
	Current  Record `json:"current"`
}

// Cache holds exactly one authoritative record per Key, in first-seen order.
type Cache struct {
	mu      sync.RWMutex
	records map[Key]Record
	order   []Key
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{records: make(map[Key]Record)}
}

// Upsert stores r. If a different record already holds r's key, it is
// returned as a supersession.
func (c *Cache) Upsert(r Record) (Supersession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.upsertLocked(r)
}

func (c *Cache) upsertLocked(r Record) (Supersession, bool) {
	key := r.Key()
	prev, exists := c.records[key]
	c.records[key] = r.clone()
	if !exists {
		c.order = append(c.order, key)
		return Supersession{}, false
	}
	if prev.Equal(r) {
		return Supersession{}, false
	}
	return Supersession{Previous: prev, Current: r.clone()}, true
}

// Sync reconciles the cache with a full snapshot from a feed restricted to the
// given kinds: records in the snapshot are upserted and records of those kinds
// missing from it are removed. Changed records are returned as supersessions.
func (c *Cache) Sync(kinds []Kind, snapshot []Record) []Supersession {
	c.mu.Lock()
	defer c.mu.Unlock()

	owned := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		owned[k] = true
	}
	present := make(map[Key]bool, len(snapshot))
	var changed []Supersession
	for _, r := range snapshot {
		if !owned[r.Kind] {
			continue
		}
		present[r.Key()] = true
		if sup, ok := c.upsertLocked(r); ok {
			changed = append(changed, sup)
		}
	}

	kept := c.order[:0]
	for _, key := range c.order {
		if owned[key.Kind] && !present[key] {
			delete(c.records, key)
			continue
		}
		kept = append(kept, key)
	}
	c.order = kept
	return changed
}

// Get returns the record for key.
func (c *Cache) Get(key Key) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.records[key]
	return r.clone(), ok
}

// Update applies fn to the stored record and returns the result.
func (c *Cache) Update(key Key, fn func(*Record)) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[key]
	if !ok {
		return Record{}, false
	}
	r = r.clone()
	fn(&r)
	c.records[key] = r
	return r.clone(), true
}

// List returns copies of all records in first-seen order.
func (c *Cache) List() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Record, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.records[key].clone())
	}
	return out
}

// Len returns the number of records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
