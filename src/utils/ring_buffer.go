package utils

// -----------------------------------------------------------------------------
// TickBuffer is a fixed-size circular buffer of live ticks. It caps how much
// live-appended history one view session can accumulate; no resizing during
// use.
// -----------------------------------------------------------------------------

// Tick is one accepted live price sample.
type Tick struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

type TickBuffer struct {
	data     []Tick
	capacity int
	index    int // next write position
	size     int
}

// -----------------------------------------------------------------------------

// NewTickBuffer creates a buffer with fixed capacity.
func NewTickBuffer(capacity int) *TickBuffer {
	if capacity <= 0 {
		capacity = 1000
	}
	return &TickBuffer{
		data:     make([]Tick, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append adds one tick, overwriting the oldest when full.
func (tb *TickBuffer) Append(t Tick) {
	tb.data[tb.index] = t
	tb.index = (tb.index + 1) % tb.capacity
	if tb.size < tb.capacity {
		tb.size++
	}
}

// -----------------------------------------------------------------------------

// All returns the buffered ticks in insertion order (oldest to newest).
func (tb *TickBuffer) All() []Tick {
	if tb.size == 0 {
		return []Tick{}
	}

	start := 0
	if tb.size == tb.capacity {
		start = tb.index
	}

	result := make([]Tick, tb.size)
	for i := 0; i < tb.size; i++ {
		result[i] = tb.data[(start+i)%tb.capacity]
	}
	return result
}

// -----------------------------------------------------------------------------

// Size returns the current number of buffered ticks.
func (tb *TickBuffer) Size() int {
	return tb.size
}

// Capacity returns the fixed capacity.
func (tb *TickBuffer) Capacity() int {
	return tb.capacity
}

// IsFull reports whether the buffer has wrapped.
func (tb *TickBuffer) IsFull() bool {
	return tb.size == tb.capacity
}

// Clear resets the buffer.
func (tb *TickBuffer) Clear() {
	tb.index = 0
	tb.size = 0
}
