package trace

import (
	"fmt"

	"portray/internal/term"
)

// Subgoal is one conjunct of a clause body, solved left to right.
type Subgoal struct {
	// Label is "[S.i]" where S is the owning step's number and i the
	// 1-based source position of the conjunct.
	Label    string
	Template *term.Term
	Text     string
	// Instantiated is the value-substituted rendering of the template,
	// filled in by the variable-flow pass once earlier siblings have
	// bound variables the template mentions. Empty until then.
	Instantiated string
	// Provenance names the step(s) whose bindings produced the
	// instantiated rendering, filled in alongside Instantiated.
	Provenance string
	// BoundAtStep is the step number that resolved this subgoal, zero
	// while unresolved.
	BoundAtStep int
}

// DecomposeBody splits a rule body into its ordered direct subgoals by
// unfolding the conjunction operator at the top level only. Conjunctions
// nested inside argument positions of other compounds are never descended
// into. A bare atom body yields a single-element sequence.
func DecomposeBody(body *term.Term) []*term.Term {
	if body == nil {
		return nil
	}
	if body.Kind == term.KindCompound && body.Functor == "," && len(body.Args) == 2 {
		out := DecomposeBody(body.Args[0])
		return append(out, DecomposeBody(body.Args[1])...)
	}
	return []*term.Term{body}
}

// LabelSubgoals decomposes a body and labels the conjuncts for the owning
// step number.
func LabelSubgoals(stepNumber int, body *term.Term) []Subgoal {
	goals := DecomposeBody(body)
	subgoals := make([]Subgoal, len(goals))
	for i, g := range goals {
		subgoals[i] = Subgoal{
			Label:    fmt.Sprintf("[%d.%d]", stepNumber, i+1),
			Template: g,
			Text:     g.String(),
		}
	}
	return subgoals
}
