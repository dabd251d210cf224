package pipeline

import "sync"

// Phase names a stage of an extraction run
type Phase string

const (
	PhaseExtract Phase = "extract"
	PhaseOutputs Phase = "outputs"
	PhaseMerge   Phase = "merge"
	PhaseDone    Phase = "done"
)

// Progress percentages marking phase boundaries
const (
	extractEnd = 50.0
	outputsEnd = 75.0
	mergeEnd   = 100.0
)

// Progress is one progress notification
type Progress struct {
	Phase   Phase
	Percent float64
	Done    int
	Total   int
}

// ProgressFunc receives progress notifications. Calls are serialized.
type ProgressFunc func(Progress)

// progressTracker serializes notifications and keeps Percent non-decreasing
type progressTracker struct {
	mu   sync.Mutex
	fn   ProgressFunc
	last float64
}

func newProgressTracker(fn ProgressFunc) *progressTracker {
	return &progressTracker{fn: fn}
}

func (t *progressTracker) report(phase Phase, percent float64, done, total int) {
	if t.fn == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if percent > mergeEnd {
		percent = mergeEnd
	}
	if percent < t.last {
		percent = t.last
	}
	t.last = percent
	t.fn(Progress{Phase: phase, Percent: percent, Done: done, Total: total})
}

// span maps done/total onto the [from, to] percentage range
func span(from, to float64, done, total int) float64 {
	if total <= 0 {
		return to
	}
	return from + (to-from)*float64(done)/float64(total)
}
