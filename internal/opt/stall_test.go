package opt

import "testing"

func TestStallTrackerDisabled(t *testing.T) {
	s := newStallTracker(0.1, 0)

	for i := 0; i < 100; i++ {
		if s.Update(1.0) {
			t.Fatal("disabled tracker should never report a stall")
		}
	}
}

func TestStallTrackerDetectsStall(t *testing.T) {
	s := newStallTracker(0.01, 3)

	if s.Update(10.0) {
		t.Error("first observation should not stall")
	}
	// Improvements below the threshold count as stale iterations.
	if s.Update(9.995) {
		t.Error("stalled after 1 stale iteration, patience is 3")
	}
	if s.Update(9.991) {
		t.Error("stalled after 2 stale iterations, patience is 3")
	}
	if !s.Update(9.990) {
		t.Error("expected stall after 3 stale iterations")
	}
}

func TestStallTrackerResetsOnImprovement(t *testing.T) {
	s := newStallTracker(0.01, 2)

	s.Update(10.0)
	s.Update(10.0) // stale 1
	if s.Update(5.0) {
		t.Error("significant improvement should reset the stale count")
	}
	if s.Update(5.0) {
		t.Error("stalled after 1 stale iteration, patience is 2")
	}
	if !s.Update(5.0) {
		t.Error("expected stall after 2 stale iterations")
	}
}
