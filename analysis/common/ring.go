package common

// FrameRing is a fixed-capacity ring of frame snapshots with
// most-recent-first indexing. Push copies the incoming frame; once the ring
// is full the oldest snapshot is dropped. Index 0 always refers to the most
// recently pushed frame.
type FrameRing struct {
	frames   [][]float64
	capacity int
	head     int
	count    int
}

// NewFrameRing creates a ring holding up to capacity frame snapshots
func NewFrameRing(capacity int) *FrameRing {
	if capacity < 1 {
		capacity = 1
	}
	return &FrameRing{
		frames:   make([][]float64, capacity),
		capacity: capacity,
	}
}

// Push stores a copy of frame as the most recent snapshot, evicting the
// oldest one when the ring is full
func (r *FrameRing) Push(frame []float64) {
	r.head = (r.head + r.capacity - 1) % r.capacity

	// Reuse the evicted slot's backing array when sizes match
	slot := r.frames[r.head]
	if len(slot) != len(frame) {
		slot = make([]float64, len(frame))
	}
	copy(slot, frame)
	r.frames[r.head] = slot

	if r.count < r.capacity {
		r.count++
	}
}

// At returns the snapshot at index i, where 0 is the most recent push.
// Returns nil when i is out of range. The returned slice is owned by the
// ring and must not be modified.
func (r *FrameRing) At(i int) []float64 {
	if i < 0 || i >= r.count {
		return nil
	}
	return r.frames[(r.head+i)%r.capacity]
}

// Len returns the number of snapshots currently held
func (r *FrameRing) Len() int {
	return r.count
}

// Cap returns the ring capacity
func (r *FrameRing) Cap() int {
	return r.capacity
}

// Clear drops all snapshots but keeps the allocated storage
func (r *FrameRing) Clear() {
	r.head = 0
	r.count = 0
}

// ScalarRing is a fixed-capacity ring of scalar values with the same
// most-recent-first semantics as FrameRing.
type ScalarRing struct {
	values   []float64
	capacity int
	head     int
	count    int
}

// NewScalarRing creates a ring holding up to capacity values
func NewScalarRing(capacity int) *ScalarRing {
	if capacity < 1 {
		capacity = 1
	}
	return &ScalarRing{
		values:   make([]float64, capacity),
		capacity: capacity,
	}
}

// Push stores value as the most recent entry
func (r *ScalarRing) Push(value float64) {
	r.head = (r.head + r.capacity - 1) % r.capacity
	r.values[r.head] = value
	if r.count < r.capacity {
		r.count++
	}
}

// At returns the value at index i, where 0 is the most recent push
func (r *ScalarRing) At(i int) float64 {
	if i < 0 || i >= r.count {
		return 0.0
	}
	return r.values[(r.head+i)%r.capacity]
}

// Mean returns the mean of the held values, 0 when empty
func (r *ScalarRing) Mean() float64 {
	if r.count == 0 {
		return 0.0
	}

	sum := 0.0
	for i := 0; i < r.count; i++ {
		sum += r.At(i)
	}
	return sum / float64(r.count)
}

// Len returns the number of values currently held
func (r *ScalarRing) Len() int {
	return r.count
}

// Clear drops all values
func (r *ScalarRing) Clear() {
	r.head = 0
	r.count = 0
}
