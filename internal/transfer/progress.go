package transfer

import "sync"

// ProgressFunc receives a percentage in [0,100].
type ProgressFunc func(percent int)

// ProgressTracker forwards percentages to a ProgressFunc, clamping them to
// [0,100] and dropping any value that would make the sequence decrease.
// It is safe for concurrent use.
type ProgressTracker struct {
	mu   sync.Mutex
	last int
	fn   ProgressFunc
}

// NewProgressTracker creates a tracker. fn may be nil.
func NewProgressTracker(fn ProgressFunc) *ProgressTracker {
	return &ProgressTracker{fn: fn}
}

// Report records percent if it advances the sequence.
func (t *ProgressTracker) Report(percent int) {
	percent = min(max(percent, 0), 100)

	t.mu.Lock()
	if percent <= t.last {
		t.mu.Unlock()
		return
	}
	t.last = percent
	fn := t.fn
	t.mu.Unlock()

	if fn != nil {
		fn(percent)
	}
}

// ReportBytes reports done/total as a percentage. A zero total counts as complete.
func (t *ProgressTracker) ReportBytes(done, total int64) {
	if total <= 0 {
		t.Report(100)
		return
	}
	t.Report(int(done * 100 / total))
}

// Last returns the highest percentage reported so far.
func (t *ProgressTracker) Last() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
