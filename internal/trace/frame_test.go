package trace

import "testing"

func TestFrameTrackerLIFOWithinLevel(t *testing.T) {
	tr := NewFrameTracker()
	first := &TimelineStep{StepNumber: 1, Level: 2}
	second := &TimelineStep{StepNumber: 2, Level: 2}

	id1 := tr.Push(2, first)
	id2 := tr.Push(2, second)
	if id2 <= id1 {
		t.Fatalf("frame ids must be monotonic: got %d then %d", id1, id2)
	}

	// Two sibling calls open at the same level stay distinct; the most
	// recent one closes first.
	f, ok := tr.PopMostRecent(2)
	if !ok || f.Node != second {
		t.Fatalf("PopMostRecent returned %+v, want the second frame", f)
	}
	f, ok = tr.PopMostRecent(2)
	if !ok || f.Node != first {
		t.Fatalf("PopMostRecent returned %+v, want the first frame", f)
	}
}

func TestFrameTrackerLevelsAreIndependent(t *testing.T) {
	tr := NewFrameTracker()
	a := &TimelineStep{StepNumber: 1, Level: 0}
	b := &TimelineStep{StepNumber: 2, Level: 1}
	tr.Push(0, a)
	tr.Push(1, b)

	f, ok := tr.PopMostRecent(0)
	if !ok || f.Node != a {
		t.Fatal("pop at level 0 must not touch level 1")
	}
	if tr.OpenAt(1) != 1 {
		t.Errorf("level 1 should still have 1 open frame, has %d", tr.OpenAt(1))
	}
}

func TestFrameTrackerEmptyPopSignalsInconsistency(t *testing.T) {
	tr := NewFrameTracker()
	if _, ok := tr.PopMostRecent(3); ok {
		t.Fatal("pop on an empty level must report no frame")
	}
	if _, ok := tr.PeekMostRecent(0); ok {
		t.Fatal("peek on an empty level must report no frame")
	}
}

func TestFrameTrackerPeekDoesNotClose(t *testing.T) {
	tr := NewFrameTracker()
	n := &TimelineStep{StepNumber: 1}
	tr.Push(0, n)
	if _, ok := tr.PeekMostRecent(0); !ok {
		t.Fatal("peek should see the open frame")
	}
	if tr.OpenAt(0) != 1 {
		t.Fatal("peek must leave the frame open")
	}
	if tr.OpenTotal() != 1 {
		t.Fatalf("OpenTotal() = %d, want 1", tr.OpenTotal())
	}
}
