package trace

import (
	"portray/internal/term"
	"portray/internal/unify"
)

// Status is the lifecycle state of a timeline step.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSuccess   Status = "success"
	StatusFailure   Status = "failure"
	StatusRecovered Status = "recovered"
)

// TimelineStep is one node of the reconstructed call tree and one entry of
// the chronological step list. A step is created by its enter event,
// mutated by its matching exit/fail/retry events, and immutable once the
// builder has consumed the whole event stream. Each node is owned
// exclusively by its parent; no node has two parents.
type TimelineStep struct {
	// StepNumber is assigned at enter, strictly increasing in creation
	// order; it is the S of this step's subgoal labels.
	StepNumber int
	// ExitStepNumber is assigned when the step completes (exit or fail),
	// strictly increasing in completion order. Zero while open.
	ExitStepNumber int

	GoalText  string
	Goal      *term.Term // nil when the goal text failed to parse
	Predicate string
	Level     int

	Clause *ClauseInfo
	// PatternMatch holds the bindings from unifying the enter goal with
	// the clause head.
	PatternMatch []unify.Binding
	// HeadMismatch explains a clause head that did not match the goal,
	// the signal behind a failed clause attempt.
	HeadMismatch string

	Subgoals []Subgoal
	Children []*TimelineStep

	Status Status
	// Result is the fully bound goal from the exit event.
	Result     *term.Term
	ResultText string
	// ResultBindings are the bindings recovered by unifying the enter
	// goal against the exit goal, including internal variables.
	ResultBindings []unify.Binding

	// ParentSubgoalLabel names the parent subgoal this call resolves.
	ParentSubgoalLabel string
	// RetryOf is the step number of the prior attempt this step is a
	// backtrack continuation of, zero for first attempts.
	RetryOf int

	Notes []string

	parent *TimelineStep
	// cursor indexes the subgoal currently being resolved.
	cursor int
	// shortCircuited is set once a subgoal failed: no later subgoal of
	// this body is ever instantiated.
	shortCircuited bool
}

// AddNote appends a human-readable annotation.
func (s *TimelineStep) AddNote(note string) {
	s.Notes = append(s.Notes, note)
}

// Parent returns the owning node, nil for root-level attempts.
func (s *TimelineStep) Parent() *TimelineStep {
	return s.parent
}

// ShortCircuited reports whether a failed subgoal cut off the rest of this
// step's body.
func (s *TimelineStep) ShortCircuited() bool {
	return s.shortCircuited
}

// CurrentSubgoalLabel returns the label of the subgoal being resolved, or
// empty when the body is exhausted, absent, or short-circuited.
func (s *TimelineStep) CurrentSubgoalLabel() string {
	if s.shortCircuited || s.cursor >= len(s.Subgoals) {
		return ""
	}
	return s.Subgoals[s.cursor].Label
}

// advancePast moves the unresolved-subgoal pointer past the given label,
// recording which step resolved it.
func (s *TimelineStep) advancePast(label string, byStep int) {
	if s.shortCircuited {
		return
	}
	for i := s.cursor; i < len(s.Subgoals); i++ {
		if s.Subgoals[i].Label == label {
			s.Subgoals[i].BoundAtStep = byStep
			s.cursor = i + 1
			return
		}
	}
}

// rewindTo moves the pointer back to the given label when a child attempt
// is re-tried, clearing resolution state from that subgoal onward.
func (s *TimelineStep) rewindTo(label string) {
	for i, sg := range s.Subgoals {
		if sg.Label == label {
			s.cursor = i
			for j := i; j < len(s.Subgoals); j++ {
				s.Subgoals[j].BoundAtStep = 0
				s.Subgoals[j].Instantiated = ""
			}
			return
		}
	}
}

// Walk visits the subtree rooted at s in depth-first order.
func (s *TimelineStep) Walk(fn func(*TimelineStep)) {
	fn(s)
	for _, c := range s.Children {
		c.Walk(fn)
	}
}
