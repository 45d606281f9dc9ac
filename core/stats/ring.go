package stats

// History is a fixed-capacity ring buffer of samples. When full, pushing a
// new sample evicts the oldest one. Updates are O(1); the dynamically resized
// list with repeated front removal this replaces was O(n) per update.
type History struct {
	buf  []float64
	head int // index of the oldest sample
	n    int
}

// NewHistory creates a History bounded to the given number of samples.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{buf: make([]float64, capacity)}
}

// Push appends a sample, evicting the oldest when the buffer is full.
func (h *History) Push(v float64) {
	if h.n < len(h.buf) {
		h.buf[(h.head+h.n)%len(h.buf)] = v
		h.n++
		return
	}
	h.buf[h.head] = v
	h.head = (h.head + 1) % len(h.buf)
}

// Len returns the number of retained samples.
func (h *History) Len() int { return h.n }

// Cap returns the buffer capacity.
func (h *History) Cap() int { return len(h.buf) }

// Values returns the retained samples, oldest first, as a fresh slice.
func (h *History) Values() []float64 {
	out := make([]float64, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.head+i)%len(h.buf)]
	}
	return out
}

// Oldest returns the oldest retained sample.
func (h *History) Oldest() (float64, bool) {
	if h.n == 0 {
		return 0, false
	}
	return h.buf[h.head], true
}

// Latest returns the most recently pushed sample.
func (h *History) Latest() (float64, bool) {
	if h.n == 0 {
		return 0, false
	}
	return h.buf[(h.head+h.n-1)%len(h.buf)], true
}
