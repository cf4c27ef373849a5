// Package dedupe tracks submission IDs so a retried event upload is applied
// at most once.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen submission IDs.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it if
	// not. Returns true when id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets an id so a submission can be retried. Used when an
	// event was recorded here but rejected downstream.
	Unrecord(ctx context.Context, id string)

	// Size returns the number of IDs currently tracked.
	Size() int64
}

// ringDeduper keeps the last capacity IDs in a fixed ring. When the ring is
// full the oldest ID is forgotten first, so a very old duplicate can slip
// through; capacity should comfortably exceed the events of one match.
type ringDeduper struct {
	mu       sync.Mutex
	ring     []string
	index    map[string]int // id -> ring slot
	next     int            // slot the next insert overwrites
	count    int
	capacity int
}

// New builds a ring deduper. The default capacity holds several full
// matches of events.
func New(opts ...Option) Deduper {
	d := &ringDeduper{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(d)
	}
	if d.capacity < 1 {
		d.capacity = 1
	}
	d.ring = make([]string, d.capacity)
	d.index = make(map[string]int, d.capacity)
	return d
}

func (d *ringDeduper) SeenAndRecord(_ context.Context, id string) bool {
	if id == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.index[id]; ok {
		return true
	}

	if old := d.ring[d.next]; old != "" {
		delete(d.index, old)
		d.count--
	}
	d.ring[d.next] = id
	d.index[id] = d.next
	d.next = (d.next + 1) % d.capacity
	d.count++
	return false
}

func (d *ringDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.index[id]
	if !ok {
		return
	}
	delete(d.index, id)
	d.ring[slot] = ""
	d.count--
}

func (d *ringDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.count)
}
