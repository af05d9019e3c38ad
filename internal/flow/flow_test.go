package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portray/internal/trace"
)

func ev(port trace.Port, level int, goal string) trace.TraceEvent {
	return trace.TraceEvent{Port: port, Level: level, Goal: goal}
}

func evc(port trace.Port, level int, goal, head, body string, line int) trace.TraceEvent {
	e := ev(port, level, goal)
	e.Clause = &trace.ClauseRef{Head: head, Body: body, SourceLine: line}
	return e
}

func buildAppendTimeline(t *testing.T) *trace.Timeline {
	t.Helper()
	const (
		recHead  = "append([H|T],L,[H|R])"
		recBody  = "append(T,L,R)"
		baseHead = "append([],L,L)"
	)
	b := trace.NewBuilder(trace.Options{})
	return b.Build([]trace.TraceEvent{
		evc(trace.PortEnter, 0, "append([1,2],[3,4],X)", recHead, recBody, 27),
		evc(trace.PortEnter, 1, "append([2],[3,4],R1)", recHead, recBody, 27),
		evc(trace.PortEnter, 2, "append([],[3,4],R2)", baseHead, "", 26),
		ev(trace.PortExit, 2, "append([],[3,4],[3,4])"),
		ev(trace.PortExit, 1, "append([2],[3,4],[2,3,4])"),
		ev(trace.PortExit, 0, "append([1,2],[3,4],[1,2,3,4])"),
	})
}

// The query variable's value is assembled outside-in: each recursive head
// match contributes one cell, leaving a hole the next level fills.
func TestAnnotateAppendProgressiveViews(t *testing.T) {
	tl := buildAppendTimeline(t)
	report := Annotate(tl)

	assert.Equal(t, "X", report.QueryVariable)
	require.Len(t, report.Views, 4)

	assert.Equal(t, PartialView{AfterStep: 1, Rendered: "[1|_]"}, report.Views[0])
	assert.Equal(t, PartialView{AfterStep: 2, Rendered: "[1,2|_]"}, report.Views[1])
	assert.Equal(t, PartialView{AfterStep: 3, Rendered: "[1,2,3,4]"}, report.Views[2])

	// The last view is the fully bound value from the root's exit.
	assert.Equal(t, PartialView{AfterStep: 1, Rendered: "[1,2,3,4]"}, report.Views[3])
}

func TestAnnotateSubgoalInstantiationAndProvenance(t *testing.T) {
	b := trace.NewBuilder(trace.Options{})
	tl := b.Build([]trace.TraceEvent{
		evc(trace.PortEnter, 0, "factorial(3,F)",
			"factorial(N,F)", "N > 0, N1 is N - 1, factorial(N1,F1), F is N * F1", 7),
		ev(trace.PortEnter, 1, "3 > 0"),
		ev(trace.PortExit, 1, "3 > 0"),
		ev(trace.PortEnter, 1, "N1 is 3 - 1"),
		ev(trace.PortExit, 1, "2 is 3 - 1"),
		ev(trace.PortEnter, 1, "factorial(2,F1)"),
		ev(trace.PortExit, 1, "factorial(2,2)"),
		ev(trace.PortEnter, 1, "F is 3 * 2"),
		ev(trace.PortExit, 1, "6 is 3 * 2"),
		ev(trace.PortExit, 0, "factorial(3,6)"),
	})
	report := Annotate(tl)

	root := tl.Root
	require.Len(t, root.Subgoals, 4)

	assert.Equal(t, "3 > 0", root.Subgoals[0].Instantiated)
	assert.Equal(t, "N from the head match", root.Subgoals[0].Provenance)

	assert.Equal(t, "N1 is 3 - 1", root.Subgoals[1].Instantiated)
	assert.Equal(t, "N from the head match", root.Subgoals[1].Provenance)

	// N1 was produced by the arithmetic subgoal, not by the head match.
	assert.Equal(t, "factorial(2,F1)", root.Subgoals[2].Instantiated)
	assert.Equal(t, "N1 bound at step 3", root.Subgoals[2].Provenance)

	assert.Equal(t, "F is 3 * 2", root.Subgoals[3].Instantiated)
	assert.Equal(t, "F1 bound at step 4, N from the head match", root.Subgoals[3].Provenance)

	// Second argument of the query goal is the distinguished variable; its
	// only view here is the final result.
	assert.Equal(t, "F", report.QueryVariable)
	require.Len(t, report.Views, 1)
	assert.Equal(t, PartialView{AfterStep: 1, Rendered: "6"}, report.Views[0])
}

func TestAnnotateShortCircuitedBodyLeavesLaterSubgoalsBlank(t *testing.T) {
	b := trace.NewBuilder(trace.Options{})
	tl := b.Build([]trace.TraceEvent{
		evc(trace.PortEnter, 0, "p(1)", "p(X)", "q(X), r(X)", 4),
		ev(trace.PortEnter, 1, "q(1)"),
		ev(trace.PortFail, 1, "q(1)"),
		ev(trace.PortFail, 0, "p(1)"),
	})
	Annotate(tl)

	root := tl.Root
	require.Len(t, root.Subgoals, 2)
	assert.Equal(t, "q(1)", root.Subgoals[0].Instantiated)
	// r(X) never ran and must not pretend it did.
	assert.Empty(t, root.Subgoals[1].Instantiated)
	assert.Empty(t, root.Subgoals[1].Provenance)
}

func TestAnnotateNilTimeline(t *testing.T) {
	report := Annotate(nil)
	require.NotNil(t, report)
	assert.Empty(t, report.Views)
}
