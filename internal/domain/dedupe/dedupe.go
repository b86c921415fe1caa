// Package dedupe tracks emitted shot ids for at-most-once emission.
//
// Once a ValidatedShot is emitted for a shot id, no further event for that
// id may be emitted. The tracker is bounded: the device recycles ids across
// power cycles, so old entries are evicted oldest-first.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records emitted shot ids.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id int64) bool

	// Seen reports whether id was recorded, without recording it.
	Seen(ctx context.Context, id int64) bool

	// Unrecord removes an id, allowing it to be emitted again. Used when an
	// emission was recorded but delivery failed before reaching any sink.
	Unrecord(ctx context.Context, id int64)

	Size() int
}

// inMemoryDeduper implements Deduper with a map plus insertion-ordered ring
// for oldest-first eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[int64]struct{}
	order   []int64
	head    int
	maxSize int
}

const defaultMaxSize = 4096

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[int64]struct{}, d.maxSize)
	d.order = make([]int64, 0, d.maxSize)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
	return false
}

func (d *inMemoryDeduper) Seen(_ context.Context, id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[id]
	return ok
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
	// The stale ring entry is skipped at eviction time.
}

// evictOldest drops the oldest live entry. Must hold d.mu.
func (d *inMemoryDeduper) evictOldest() {
	for d.head < len(d.order) {
		id := d.order[d.head]
		d.head++
		if _, ok := d.seen[id]; ok {
			delete(d.seen, id)
			break
		}
	}
	// Compact once the dead prefix dominates.
	if d.head > d.maxSize {
		d.order = append([]int64(nil), d.order[d.head:]...)
		d.head = 0
	}
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
