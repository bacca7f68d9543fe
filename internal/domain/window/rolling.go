// Package window provides the fixed-capacity sample buffer shared by the
// detectors and the rhythm analyzer.
package window

// Rolling keeps the most recent Cap() values in arrival order. Pushing into a
// full window evicts the oldest value.
type Rolling struct {
	buf  []float64
	head int // index of the oldest value
	size int
}

// New returns an empty window. Capacities below one are raised to one.
func New(capacity int) *Rolling {
	if capacity < 1 {
		capacity = 1
	}
	return &Rolling{buf: make([]float64, capacity)}
}

// Push appends v, dropping the oldest value when the window is full.
func (r *Rolling) Push(v float64) {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = v
		r.size++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
}

// Snapshot copies the contents oldest first.
func (r *Rolling) Snapshot() []float64 {
	out := make([]float64, r.size)
	n := copy(out, r.buf[r.head:min(r.head+r.size, len(r.buf))])
	copy(out[n:], r.buf[:r.size-n])
	return out
}

func (r *Rolling) Len() int   { return r.size }
func (r *Rolling) Cap() int   { return len(r.buf) }
func (r *Rolling) Full() bool { return r.size == len(r.buf) }
