package opt

// stallTracker detects runs whose best value has stopped improving.
// An improvement counts only when the best value drops by more than the
// absolute threshold; after patience consecutive iterations without one,
// Update reports true. A patience of 0 disables the tracker.
type stallTracker struct {
	threshold float64
	patience  int
	last      float64
	stale     int
	seen      bool
}

func newStallTracker(threshold float64, patience int) *stallTracker {
	return &stallTracker{threshold: threshold, patience: patience}
}

// Update records the best value of the current iteration and returns true
// once the run is considered stalled.
func (s *stallTracker) Update(best float64) bool {
	if s.patience <= 0 {
		return false
	}
	if !s.seen {
		s.seen = true
		s.last = best
		return false
	}
	if best < s.last-s.threshold {
		s.last = best
		s.stale = 0
		return false
	}
	s.stale++
	return s.stale >= s.patience
}
