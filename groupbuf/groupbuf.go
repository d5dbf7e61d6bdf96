// Package groupbuf holds the small fixed-size structures that sit
// between the per-document scan and the per-group accumulation: a
// fixed-capacity ring of pending group ids and a dirty set tracking
// which group rows were touched during the current term's pass.
package groupbuf

import "slices"

// Ring is a fixed-capacity FIFO of group ids. The producer must drain
// it before it overflows; Push reports whether the ring is full after
// the insert so callers can batch-drain at the boundary.
type Ring struct {
	buf   []uint32
	head  int
	count int
}

// NewRing creates a ring with the given capacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{buf: make([]uint32, capacity)}
}

// Cap returns the fixed capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Len returns the number of pending entries.
func (r *Ring) Len() int { return r.count }

// Full reports whether the ring is at capacity.
func (r *Ring) Full() bool { return r.count == len(r.buf) }

// Push appends a group id. The ring must not be full.
func (r *Ring) Push(group uint32) {
	r.buf[(r.head+r.count)%len(r.buf)] = group
	r.count++
}

// Pop removes and returns the oldest entry. The ring must not be
// empty.
func (r *Ring) Pop() uint32 {
	g := r.buf[r.head]
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	return g
}

// Reset discards all pending entries.
func (r *Ring) Reset() {
	r.head = 0
	r.count = 0
}

// DirtySet tracks which of n group rows received an update in the
// current pass. Marking is idempotent; Reset clears only the flags
// that were set, so flush+reset cost stays proportional to the number
// of groups touched rather than the total group count.
type DirtySet struct {
	words   []uint64
	touched []uint32
}

// NewDirtySet creates a dirty set over n groups, all clear.
func NewDirtySet(n int) *DirtySet {
	return &DirtySet{words: make([]uint64, (n+63)/64)}
}

// Size returns the number of tracked groups (rounded capacity).
func (d *DirtySet) Size() int { return len(d.words) * 64 }

// Mark flags group as dirty.
func (d *DirtySet) Mark(group uint32) {
	w, bit := group/64, uint64(1)<<(group%64)
	if d.words[w]&bit == 0 {
		d.words[w] |= bit
		d.touched = append(d.touched, group)
	}
}

// IsMarked reports whether group is flagged.
func (d *DirtySet) IsMarked(group uint32) bool {
	return d.words[group/64]&(uint64(1)<<(group%64)) != 0
}

// Count returns the number of distinct groups flagged.
func (d *DirtySet) Count() int { return len(d.touched) }

// Touched returns the flagged groups in ascending order. The returned
// slice is owned by the set and valid until the next Mark or Reset.
func (d *DirtySet) Touched() []uint32 {
	slices.Sort(d.touched)
	return d.touched
}

// Reset clears exactly the flagged entries.
func (d *DirtySet) Reset() {
	for _, g := range d.touched {
		d.words[g/64] &^= uint64(1) << (g % 64)
	}
	d.touched = d.touched[:0]
}
