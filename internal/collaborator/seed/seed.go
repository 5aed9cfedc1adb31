// Package seed loads a household and its obligations from a YAML file and
// serves them in-process as a feed with push updates.
package seed

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"hayat/internal/family"
	"hayat/internal/obligation"
)

// File is the on-disk seed document.
type File struct {
	Family struct {
		ID      string          `yaml:"id"`
		Members []family.Member `yaml:"members"`
	} `yaml:"family"`
	Obligations []obligation.Record `yaml:"obligations"`
}

// Load reads and decodes a seed file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a seed document and validates every obligation.
func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	for i, rec := range f.Obligations {
		if rec.Kind == "" || rec.MemberID == "" || rec.Ref == "" {
			return nil, fmt.Errorf("obligation %d: kind, member_id and ref are required", i)
		}
		if rec.Kind == obligation.KindParkingFine && rec.Fine == nil {
			return nil, fmt.Errorf("obligation %d: parking fine %s has no fine details", i, rec.Ref)
		}
		f.Obligations[i] = rec.Normalize()
	}
	return &f, nil
}

// Structure builds the household described by the file, or nil when the file
// has no members.
func (f *File) Structure(now time.Time) (*family.Structure, error) {
	if len(f.Family.Members) == 0 {
		return nil, nil
	}
	return family.NewStructure(f.Family.ID, f.Family.Members, now)
}

// Feed is an in-memory obligation feed. Push replaces a record and notifies
// subscribers, which makes it usable as both FeedPort and SubscriptionPort.
type Feed struct {
	mu          sync.RWMutex
	records     []obligation.Record
	subscribers map[int]func(obligation.Record)
	nextID      int
}

// NewFeed creates a feed holding records.
func NewFeed(records []obligation.Record) *Feed {
	return &Feed{
		records:     slices.Clone(records),
		subscribers: make(map[int]func(obligation.Record)),
	}
}

// Fetch returns every record belonging to one of memberIDs.
func (f *Feed) Fetch(ctx context.Context, memberIDs []string) ([]obligation.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]obligation.Record, 0, len(f.records))
	for _, rec := range f.records {
		if slices.Contains(memberIDs, rec.MemberID) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Push stores rec, replacing any record with the same key, and delivers it to
// every subscriber.
func (f *Feed) Push(rec obligation.Record) {
	f.mu.Lock()
	idx := slices.IndexFunc(f.records, func(r obligation.Record) bool { return r.Key() == rec.Key() })
	if idx >= 0 {
		f.records[idx] = rec
	} else {
		f.records = append(f.records, rec)
	}
	subs := make([]func(obligation.Record), 0, len(f.subscribers))
	for _, fn := range f.subscribers {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(rec)
	}
}

// Subscribe registers callback until the returned function is called.
func (f *Feed) Subscribe(callback func(obligation.Record)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subscribers[id] = callback
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subscribers, id)
			f.mu.Unlock()
		})
	}
}
