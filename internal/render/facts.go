package render

import (
	"fmt"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/factstore"

	"portray/internal/trace"
)

// Fact predicates the timeline is materialized under.
var (
	predStep    = ast.PredicateSym{Symbol: "timeline_step", Arity: 5}
	predChild   = ast.PredicateSym{Symbol: "step_child", Arity: 2}
	predBinding = ast.PredicateSym{Symbol: "step_binding", Arity: 3}
	predClause  = ast.PredicateSym{Symbol: "step_clause", Arity: 2}
	predSubgoal = ast.PredicateSym{Symbol: "step_subgoal", Arity: 3}
)

// MaterializeFacts loads the timeline into a Mangle fact store as
// timeline_step/5, step_child/2, step_binding/3, step_clause/2 and
// step_subgoal/3 facts, giving downstream tooling a queryable relational
// view of the trace.
func MaterializeFacts(tl *trace.Timeline) (factstore.SimpleInMemoryStore, error) {
	store := factstore.NewSimpleInMemoryStore()
	for _, s := range tl.Steps {
		atom := ast.Atom{Predicate: predStep, Args: []ast.BaseTerm{
			ast.Number(int64(s.StepNumber)),
			ast.String(s.GoalText),
			ast.Number(int64(s.Level)),
			ast.String(string(s.Status)),
			ast.Number(int64(s.ExitStepNumber)),
		}}
		if !store.Add(atom) {
			return store, fmt.Errorf("duplicate timeline_step fact for step %d", s.StepNumber)
		}

		for _, c := range s.Children {
			store.Add(ast.Atom{Predicate: predChild, Args: []ast.BaseTerm{
				ast.Number(int64(s.StepNumber)),
				ast.Number(int64(c.StepNumber)),
			}})
		}
		for _, b := range s.PatternMatch {
			store.Add(ast.Atom{Predicate: predBinding, Args: []ast.BaseTerm{
				ast.Number(int64(s.StepNumber)),
				ast.String(b.Variable),
				ast.String(b.Value.String()),
			}})
		}
		if s.Clause != nil {
			store.Add(ast.Atom{Predicate: predClause, Args: []ast.BaseTerm{
				ast.Number(int64(s.StepNumber)),
				ast.String(s.Clause.ClauseNumber),
			}})
		}
		for _, sg := range s.Subgoals {
			store.Add(ast.Atom{Predicate: predSubgoal, Args: []ast.BaseTerm{
				ast.Number(int64(s.StepNumber)),
				ast.String(sg.Label),
				ast.String(sg.Text),
			}})
		}
	}
	return store, nil
}

// FactListing renders every materialized fact in Datalog text form,
// grouped by predicate.
func FactListing(store factstore.SimpleInMemoryStore) []string {
	var out []string
	for _, sym := range store.ListPredicates() {
		_ = store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
			out = append(out, atom.String())
			return nil
		})
	}
	return out
}
