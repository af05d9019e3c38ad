// Package flow post-processes a finished timeline to explain variable
// bindings: which step bound a clause variable, how each subgoal looks once
// earlier siblings have filled its variables in, and how the query-level
// variable's value is progressively constructed across recursive calls.
package flow

import (
	"fmt"
	"sort"
	"strings"

	"portray/internal/term"
	"portray/internal/trace"
	"portray/internal/unify"
)

// PartialView is one snapshot of the query variable's partially built
// value, taken after the named step's pattern match (holes shown as "_").
type PartialView struct {
	AfterStep int
	Rendered  string
}

// Report summarizes the query-level variable's construction.
type Report struct {
	QueryVariable string
	Views         []PartialView
}

// Annotate walks the finished tree, filling in instantiated subgoal
// renderings with provenance, and derives the progressive partial-structure
// views of the distinguished query variable. The tree's structure and
// numbering are never altered.
func Annotate(tl *trace.Timeline) *Report {
	if tl == nil {
		return &Report{}
	}
	for _, step := range tl.Steps {
		annotateStep(step)
	}
	return queryVariableReport(tl)
}

// annotateStep maintains the node's binding table: seeded by the
// pattern-match unifications, updated as each child resolves a subgoal.
// Whenever a later subgoal's template mentions a variable bound by an
// earlier sibling, the value-substituted instantiation is recorded next to
// the literal template.
func annotateStep(step *trace.TimelineStep) {
	if len(step.Subgoals) == 0 {
		return
	}

	table := unify.AsMap(step.PatternMatch)
	boundBy := make(map[string]int) // variable -> step that bound it
	for _, b := range step.PatternMatch {
		boundBy[b.Variable] = step.StepNumber
	}

	// ran marks the subgoals that actually spawned a call; a
	// short-circuited body never instantiates the ones after the failure.
	ran := make(map[string]bool)
	for _, c := range step.Children {
		if c.ParentSubgoalLabel != "" {
			ran[c.ParentSubgoalLabel] = true
		}
	}

	idx := make(map[string]int, len(step.Subgoals))
	for i := range step.Subgoals {
		idx[step.Subgoals[i].Label] = i
	}

	for _, c := range step.Children {
		i, ok := idx[c.ParentSubgoalLabel]
		if !ok {
			continue
		}
		sg := &step.Subgoals[i]

		// Render the subgoal as it was actually called, with
		// everything bound so far substituted in.
		instantiate(sg, table, boundBy, step)

		if c.Status != trace.StatusSuccess || c.Result == nil || sg.Template == nil {
			continue
		}
		// Unifying the template against the child's result recovers
		// what this subgoal bound in the clause's own variables.
		bindings, mm := unify.Unify(sg.Template, c.Result)
		if mm != nil {
			continue
		}
		for _, b := range bindings {
			if _, exists := table[b.Variable]; !exists {
				table[b.Variable] = b.Value
				boundBy[b.Variable] = c.StepNumber
			}
		}
	}

	// Subgoals that never ran still get an instantiated rendering when
	// the body completed normally; a short-circuited body leaves them
	// untouched.
	if !step.ShortCircuited() {
		for i := range step.Subgoals {
			sg := &step.Subgoals[i]
			if sg.Instantiated == "" && !ran[sg.Label] {
				instantiate(sg, table, boundBy, step)
			}
		}
	}
}

// instantiate fills in the value-substituted rendering of a subgoal when
// its template mentions variables already in the table.
func instantiate(sg *trace.Subgoal, table map[string]*term.Term, boundBy map[string]int, owner *trace.TimelineStep) {
	if sg.Template == nil || len(table) == 0 {
		return
	}
	var used []string
	for _, v := range sg.Template.Variables() {
		if _, ok := table[v]; ok {
			used = append(used, v)
		}
	}
	if len(used) == 0 {
		return
	}
	substituted := term.Substitute(sg.Template, table)
	if term.Equal(substituted, sg.Template) {
		return
	}
	sg.Instantiated = substituted.String()
	sg.Provenance = provenanceNote(used, boundBy, owner.StepNumber)
}

func provenanceNote(vars []string, boundBy map[string]int, ownerStep int) string {
	sort.Strings(vars)
	var parts []string
	for _, v := range vars {
		by := boundBy[v]
		if by == 0 || by == ownerStep {
			parts = append(parts, fmt.Sprintf("%s from the head match", v))
		} else {
			parts = append(parts, fmt.Sprintf("%s bound at step %d", v, by))
		}
	}
	return strings.Join(parts, ", ")
}

// queryVariableReport renders the progressively-filled partial structure of
// the distinguished query variable. The recursion chain is recognized by
// the same argument position recurring across nested calls of the same
// predicate, never by comparing values.
func queryVariableReport(tl *trace.Timeline) *Report {
	report := &Report{}
	root := tl.Root
	if root == nil || root.Goal == nil || root.Goal.Kind != term.KindCompound {
		return report
	}

	// The distinguished query variable is the first variable argument of
	// the query goal.
	pos := -1
	for i, a := range root.Goal.Args {
		if a.Kind == term.KindVariable {
			pos = i
			report.QueryVariable = a.Functor
			break
		}
	}
	if pos < 0 {
		return report
	}

	functor := root.Goal.Functor
	arity := len(root.Goal.Args)

	// expr accumulates the query variable's structure; at each chain node
	// the single remaining hole is filled with that call's head binding
	// for its own position-pos variable.
	var expr *term.Term
	node := root
	for node != nil {
		if v, val := positionBinding(node, pos); v != "" && val != nil {
			if expr == nil {
				expr = val
			} else {
				holes := expr.Variables()
				if len(holes) != 1 {
					break
				}
				expr = term.Substitute(expr, map[string]*term.Term{holes[0]: val})
			}
			report.Views = append(report.Views, PartialView{
				AfterStep: node.StepNumber,
				Rendered:  expr.StringPartial(),
			})
		}
		node = recursiveChild(node, functor, arity, pos)
	}

	// The final, fully bound value from the root's exit.
	for _, b := range root.ResultBindings {
		if b.Variable == report.QueryVariable {
			report.Views = append(report.Views, PartialView{
				AfterStep: root.StepNumber,
				Rendered:  b.Value.String(),
			})
			break
		}
	}
	return report
}

// positionBinding returns the variable at the given argument position of a
// node's goal together with its pattern-match value, if both exist.
func positionBinding(node *trace.TimelineStep, pos int) (string, *term.Term) {
	if node.Goal == nil || node.Goal.Kind != term.KindCompound || pos >= len(node.Goal.Args) {
		return "", nil
	}
	arg := node.Goal.Args[pos]
	if arg.Kind != term.KindVariable {
		return "", nil
	}
	for _, b := range node.PatternMatch {
		if b.Variable == arg.Functor {
			// The raw binding may mention other head variables bound
			// in the same batch ([H|R] with H=1); substitute them so
			// the only holes left are genuinely unbound.
			return arg.Functor, term.Substitute(b.Value, unify.AsMap(node.PatternMatch))
		}
	}
	return arg.Functor, nil
}

// recursiveChild finds the child continuing the recursion: same predicate,
// with a variable still in the tracked argument position.
func recursiveChild(node *trace.TimelineStep, functor string, arity, pos int) *trace.TimelineStep {
	for _, c := range node.Children {
		if c.Goal == nil || c.Goal.Kind != term.KindCompound {
			continue
		}
		if c.Goal.Functor == functor && len(c.Goal.Args) == arity {
			return c
		}
	}
	return nil
}
