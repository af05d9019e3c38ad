package trace

// Frame is a transient stack entry for an open call. It exists only while
// the call is open and is discarded on exit or fail.
type Frame struct {
	Level int
	ID    int
	Node  *TimelineStep
}

// FrameTracker keeps one LIFO stack of open frames per recursion level,
// each push tagged with a fresh monotonic frame id. Keying open calls by
// level alone silently aliases sibling calls at the same depth; the
// per-level stack keeps concurrent-in-time siblings distinguishable in
// creation order even though only one is open at an instant.
type FrameTracker struct {
	nextID int
	open   map[int][]*Frame
}

// NewFrameTracker returns an empty tracker.
func NewFrameTracker() *FrameTracker {
	return &FrameTracker{open: make(map[int][]*Frame)}
}

// Push opens a frame for node at the given level and returns its frame id.
func (t *FrameTracker) Push(level int, node *TimelineStep) int {
	t.nextID++
	f := &Frame{Level: level, ID: t.nextID, Node: node}
	t.open[level] = append(t.open[level], f)
	return f.ID
}

// PopMostRecent removes and returns the most recently pushed still-open
// frame at the level, independent of any other level's stack. The second
// return is false when no frame is open there, which callers must treat as
// an event-stream inconsistency.
func (t *FrameTracker) PopMostRecent(level int) (*Frame, bool) {
	stack := t.open[level]
	if len(stack) == 0 {
		return nil, false
	}
	f := stack[len(stack)-1]
	t.open[level] = stack[:len(stack)-1]
	return f, true
}

// PeekMostRecent returns the most recently pushed still-open frame at the
// level without closing it. Used to locate the parent of an entering call.
func (t *FrameTracker) PeekMostRecent(level int) (*Frame, bool) {
	stack := t.open[level]
	if len(stack) == 0 {
		return nil, false
	}
	return stack[len(stack)-1], true
}

// OpenAt reports how many frames are open at a level.
func (t *FrameTracker) OpenAt(level int) int {
	return len(t.open[level])
}

// OpenTotal reports how many frames are open across all levels.
func (t *FrameTracker) OpenTotal() int {
	n := 0
	for _, stack := range t.open {
		n += len(stack)
	}
	return n
}
