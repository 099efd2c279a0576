package events

import "sync"

// defaultRingCapacity bounds the delivered-event registry.
const defaultRingCapacity = 200

// Ring is an insertion-ordered set of event ids with FIFO eviction. It
// keeps re-fetched feed entries from being delivered twice.
type Ring struct {
	mu       sync.Mutex
	capacity int
	order    []string
	index    map[string]struct{}
}

// NewRing creates a ring. A non-positive capacity gets the default.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = defaultRingCapacity
	}
	return &Ring{
		capacity: capacity,
		index:    make(map[string]struct{}, capacity),
	}
}

// Admit records id and reports whether it was new. Admitting past
// capacity evicts the oldest id.
func (r *Ring) Admit(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, seen := r.index[id]; seen {
		return false
	}
	r.index[id] = struct{}{}
	r.order = append(r.order, id)
	if len(r.order) > r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.index, oldest)
	}
	return true
}

// Len reports how many ids are held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
