// Package dedupe remembers recently seen chat message ids so that a
// redelivered message is applied to the game at most once.
package dedupe

import (
	"context"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const defaultMaxSize = 50_000

// Deduper records seen message ids.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a later redelivery is processed. Used when a
	// message was recorded but could not be queued.
	Unrecord(ctx context.Context, id string)

	// Size returns the number of remembered ids.
	Size() int64
}

// inMemoryDeduper keeps the most recent maxSize ids. Ids are only ever added
// once, so the LRU order is arrival order and a full cache forgets the
// oldest id. maxSize <= 0 remembers every id.
type inMemoryDeduper struct {
	mu      sync.Mutex
	recent  *simplelru.LRU[string, struct{}]
	all     map[string]struct{}
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}

	if d.maxSize > 0 {
		// NewLRU only fails for a non-positive size.
		d.recent, _ = simplelru.NewLRU[string, struct{}](d.maxSize, nil)
	} else {
		d.all = make(map[string]struct{})
	}
	return d
}

// SeenAndRecord implements Deduper.SeenAndRecord.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.recent == nil {
		if _, ok := d.all[id]; ok {
			return true
		}
		d.all[id] = struct{}{}
		return false
	}

	// Contains does not touch recency.
	if d.recent.Contains(id) {
		return true
	}
	d.recent.Add(id, struct{}{})
	return false
}

// Unrecord implements Deduper.Unrecord.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.recent == nil {
		delete(d.all, id)
		return
	}
	d.recent.Remove(id)
}

// Size implements Deduper.Size.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.recent == nil {
		return int64(len(d.all))
	}
	return int64(d.recent.Len())
}
