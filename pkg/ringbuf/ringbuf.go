// Package ringbuf provides a fixed-capacity circular byte queue.
//
// Ring has no internal locking. The producer (Add) and the consumer
// (PeekContiguous/Remove) must never run concurrently from different
// execution contexts.
package ringbuf

// Ring is a circular byte queue over caller-supplied storage.
type Ring struct {
	buf   []byte
	head  int // index of the oldest byte
	count int
}

// New creates a Ring with its own storage of the given capacity.
func New(capacity int) *Ring {
	r := &Ring{}
	r.Init(make([]byte, capacity))
	return r
}

// Init binds storage and resets the ring to empty.
func (r *Ring) Init(storage []byte) {
	r.buf, r.head, r.count = storage, 0, 0
}

// Cap returns the capacity.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Len returns the number of buffered bytes.
func (r *Ring) Len() int {
	return r.count
}

// IsEmpty indicates no bytes are buffered.
func (r *Ring) IsEmpty() bool {
	return r.count == 0
}

// FreeSpace returns capacity minus occupied bytes.
func (r *Ring) FreeSpace() int {
	return len(r.buf) - r.count
}

// Add copies data in, wrapping as needed.
// The caller must have checked FreeSpace() >= len(data) beforehand.
func (r *Ring) Add(data []byte) {
	n := len(data)
	if n > r.FreeSpace() {
		panic("ringbuf: Add beyond free space")
	}
	if n == 0 {
		return
	}
	size := len(r.buf)
	tail := (r.head + r.count) % size
	first := size - tail
	if first > n {
		first = n
	}
	copy(r.buf[tail:tail+first], data[:first])
	if second := n - first; second > 0 {
		copy(r.buf[:second], data[first:])
	}
	r.count += n
}

// PeekContiguous returns the next run of occupied bytes without removing
// them. The run stops at the end of storage, so when the data wraps the
// remainder is only visible after Remove.
// The returned slice aliases the ring's storage.
func (r *Ring) PeekContiguous() []byte {
	if r.count == 0 {
		return r.buf[:0]
	}
	end := r.head + r.count
	if end > len(r.buf) {
		end = len(r.buf)
	}
	return r.buf[r.head:end]
}

// Remove frees n bytes from the consumer side.
func (r *Ring) Remove(n int) {
	if n < 0 || n > r.count {
		panic("ringbuf: Remove beyond occupied bytes")
	}
	if n == 0 {
		return
	}
	r.head = (r.head + n) % len(r.buf)
	r.count -= n
}
