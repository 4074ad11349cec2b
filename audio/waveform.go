package audio

import "sync"

// Waveform keeps a rolling window of per-frame RMS levels for display. It
// is a pure transform over frames and owns no stream; Observe is cheap
// enough to run on the capture goroutine.
type Waveform struct {
	mu     sync.Mutex
	levels []float64
	head   int
	count  int
}

func NewWaveform(size int) *Waveform {
	if size <= 0 {
		size = 64
	}
	return &Waveform{levels: make([]float64, size)}
}

func (w *Waveform) Observe(f Frame) {
	level := f.RMS()
	w.mu.Lock()
	w.levels[w.head] = level
	w.head = (w.head + 1) % len(w.levels)
	if w.count < len(w.levels) {
		w.count++
	}
	w.mu.Unlock()
}

// Snapshot returns the buffered levels, oldest first.
func (w *Waveform) Snapshot() []float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]float64, w.count)
	start := (w.head - w.count + len(w.levels)) % len(w.levels)
	for i := range out {
		out[i] = w.levels[(start+i)%len(w.levels)]
	}
	return out
}

// Level returns the most recent level, or 0 when empty.
func (w *Waveform) Level() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.count == 0 {
		return 0
	}
	return w.levels[(w.head-1+len(w.levels))%len(w.levels)]
}

func (w *Waveform) Reset() {
	w.mu.Lock()
	w.head = 0
	w.count = 0
	w.mu.Unlock()
}
